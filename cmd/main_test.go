package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astowny/monteur-ia/internal/config"
)

type fakeScheduler struct {
	called bool
	err    error
}

func (f *fakeScheduler) Schedule(context.Context) error {
	f.called = true
	return f.err
}

type fakeCron struct {
	started bool
	stopped bool
}

func (f *fakeCron) Start() {
	f.started = true
}

func (f *fakeCron) Stop() context.Context {
	f.stopped = true
	return context.Background()
}

type fakeHTTP struct {
	listenCalled chan struct{}
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	listenErr    error
}

func newFakeHTTP() *fakeHTTP {
	return &fakeHTTP{
		listenCalled: make(chan struct{}),
		shutdownCh:   make(chan struct{}),
	}
}

func (f *fakeHTTP) ListenAndServe(string) error {
	close(f.listenCalled)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.shutdownCh
	return http.ErrServerClosed
}

func (f *fakeHTTP) Shutdown(context.Context) error {
	f.shutdownOnce.Do(func() { close(f.shutdownCh) })
	return nil
}

func TestRunWithComponents_StartsCronAndHTTP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{HTTP: config.HTTPConfig{Addr: "127.0.0.1:0"}}
	scheduler := &fakeScheduler{}
	cronEngine := &fakeCron{}
	httpSrv := newFakeHTTP()

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- runWithComponents(ctx, cfg, scheduler, cronEngine, httpSrv)
	}()

	select {
	case <-httpSrv.listenCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("http server did not start")
	}

	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runWithComponents did not exit after cancellation")
	}

	assert.True(t, scheduler.called)
	assert.True(t, cronEngine.started)
	assert.True(t, cronEngine.stopped)
}

func TestRunWithComponents_ServerFailure(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Addr: "127.0.0.1:0"}}
	httpSrv := newFakeHTTP()
	httpSrv.listenErr = errors.New("address in use")
	cronEngine := &fakeCron{}

	err := runWithComponents(context.Background(), cfg, &fakeScheduler{}, cronEngine, httpSrv)
	require.EqualError(t, err, "address in use")
	assert.True(t, cronEngine.stopped)
}

func TestRunWithComponents_ScheduleError(t *testing.T) {
	cfg := &config.Config{}
	cronEngine := &fakeCron{}

	err := runWithComponents(context.Background(), cfg, &fakeScheduler{err: errors.New("bad cron")}, cronEngine, newFakeHTTP())
	require.Error(t, err)
	assert.False(t, cronEngine.started)
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"transcript": [
			{"start": 0, "end": 3, "text": "Le secret, vraiment", "confidence": 0.9},
			{"start": 3, "end": 6, "text": "Rien de spécial.", "confidence": 0.9}
		],
		"audio_peaks": [0.9, 0.1],
		"durations": [0.1, 0.2, 0.3, 0.5, 0.2],
		"amplitudes": [0.9, 0.1, 0.05, 0.8, 0.01],
		"style": "business",
		"limit": 1
	}`), 0o644))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"analyze", path})
	require.NoError(t, root.Execute())

	var res analyzeResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Len(t, res.Silences, 1)
	assert.Len(t, res.Candidates, 2)
	assert.Equal(t, 0.0, res.Candidates[0].Start)
	assert.Equal(t, []string{"Les 3 erreurs : Le secret"}, res.Hooks)
}

func TestAnalyzeCommand_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"unknown field": `{"transcript": [], "mood": "happy"}`,
		"bad segment":   `{"transcript": [{"start": 2, "end": 1, "text": "x", "confidence": 0.5}]}`,
		"bad style":     `{"style": "viral"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetArgs([]string{"analyze", path})
			assert.Error(t, root.Execute())
		})
	}
}

func TestCheckCommand(t *testing.T) {
	t.Setenv("MONTEUR_SQLITE_PATH", filepath.Join(t.TempDir(), "monteur.db"))
	t.Setenv("MONTEUR_TRANSCRIBE_MODE", "stub")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"check"})
	require.NoError(t, root.Execute())

	var status map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &status))
	assert.Equal(t, "stub", status["transcribe_mode"])
	assert.Contains(t, status, "ffmpeg_available")
	assert.Contains(t, status, "job_sweep")
}

func TestCheckCommand_InvalidConfig(t *testing.T) {
	t.Setenv("MONTEUR_TRANSCRIBE_MODE", "cloud")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"check"})
	assert.Error(t, root.Execute())
}
