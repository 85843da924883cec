package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astowny/monteur-ia/internal/payload"
)

type memoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*CloudJob
	history map[string][]Status
	failOn  func(job *CloudJob) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:    make(map[string]*CloudJob),
		history: make(map[string][]Status),
	}
}

func (m *memoryStore) UpsertJob(_ context.Context, job *CloudJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		if err := m.failOn(job); err != nil {
			return err
		}
	}
	m.jobs[job.ID] = cloneJob(job)
	m.history[job.ID] = append(m.history[job.ID], job.Status)
	return nil
}

func (m *memoryStore) GetJob(_ context.Context, id string) (*CloudJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (m *memoryStore) ListJobsByStatus(_ context.Context, status Status) ([]*CloudJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := make([]*CloudJob, 0)
	for _, job := range m.jobs {
		if job.Status == status {
			ret = append(ret, cloneJob(job))
		}
	}
	return ret, nil
}

func (m *memoryStore) statuses(id string) []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Status(nil), m.history[id]...)
}

func TestOrchestrator_Enqueue(t *testing.T) {
	store := newMemoryStore()
	o := NewOrchestrator(store)

	job, err := o.Enqueue(context.Background(), OperationViralScore, payload.Bundle{"video": "a.mp4"})
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Nil(t, job.Result)

	stored, err := o.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, stored.Status)
	assert.Equal(t, "a.mp4", stored.Payload["video"])
}

func TestOrchestrator_Enqueue_UniqueIDs(t *testing.T) {
	o := NewOrchestrator(newMemoryStore())
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		job, err := o.Enqueue(context.Background(), OperationTranscribe, nil)
		require.NoError(t, err)
		require.False(t, seen[job.ID])
		seen[job.ID] = true
	}
}

func TestOrchestrator_Enqueue_RejectsUnknownOperation(t *testing.T) {
	o := NewOrchestrator(newMemoryStore())
	_, err := o.Enqueue(context.Background(), Operation("render"), nil)
	assert.Error(t, err)
}

func TestOrchestrator_Process_DefaultAcknowledgement(t *testing.T) {
	store := newMemoryStore()
	o := NewOrchestrator(store)
	ctx := context.Background()

	job, err := o.Enqueue(ctx, OperationHookGeneration, payload.Bundle{})
	require.NoError(t, err)

	done, err := o.Process(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, payload.Bundle{
		"ok":        true,
		"operation": "hook-generation",
		"insights":  "processed",
	}, done.Result)

	got, err := o.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, []Status{StatusQueued, StatusProcessing, StatusDone}, store.statuses(job.ID))
}

func TestOrchestrator_Process_ExecutorErrorFailsJob(t *testing.T) {
	store := newMemoryStore()
	o := NewOrchestrator(store, WithExecutor(OperationTranscribe, func(context.Context, *CloudJob) (payload.Bundle, error) {
		return nil, errors.New("whisper binary not found")
	}))
	ctx := context.Background()

	job, err := o.Enqueue(ctx, OperationTranscribe, nil)
	require.NoError(t, err)

	failed, err := o.Process(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, false, failed.Result["ok"])
	assert.Equal(t, "whisper binary not found", failed.Result["error"])
	assert.Equal(t, []Status{StatusQueued, StatusProcessing, StatusFailed}, store.statuses(job.ID))
}

func TestOrchestrator_Process_ExecutorPanicFailsJob(t *testing.T) {
	o := NewOrchestrator(newMemoryStore(), WithExecutor(OperationViralScore, func(context.Context, *CloudJob) (payload.Bundle, error) {
		panic("boom")
	}))
	ctx := context.Background()

	job, err := o.Enqueue(ctx, OperationViralScore, nil)
	require.NoError(t, err)

	failed, err := o.Process(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Contains(t, failed.Result["error"], "boom")
}

func TestOrchestrator_Process_ExecutorResultMerged(t *testing.T) {
	o := NewOrchestrator(newMemoryStore(), WithExecutor(OperationViralScore, func(_ context.Context, job *CloudJob) (payload.Bundle, error) {
		return payload.Bundle{"candidates": 2, "input": job.Payload["video"]}, nil
	}))
	ctx := context.Background()

	job, err := o.Enqueue(ctx, OperationViralScore, payload.Bundle{"video": "v.mp4"})
	require.NoError(t, err)

	done, err := o.Process(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, true, done.Result["ok"])
	assert.Equal(t, 2, done.Result["candidates"])
	assert.Equal(t, "v.mp4", done.Result["input"])
}

func TestOrchestrator_Process_NotFound(t *testing.T) {
	o := NewOrchestrator(newMemoryStore())
	_, err := o.Process(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = o.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrchestrator_Process_RejectsTerminalJob(t *testing.T) {
	o := NewOrchestrator(newMemoryStore())
	ctx := context.Background()

	job, err := o.Enqueue(ctx, OperationViralScore, nil)
	require.NoError(t, err)
	_, err = o.Process(ctx, job.ID)
	require.NoError(t, err)

	_, err = o.Process(ctx, job.ID)
	assert.ErrorIs(t, err, ErrNotQueued)

	got, err := o.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
}

func TestOrchestrator_Process_ConcurrentCallsRunOnce(t *testing.T) {
	var runs atomic.Int64
	release := make(chan struct{})
	o := NewOrchestrator(newMemoryStore(), WithExecutor(OperationViralScore, func(context.Context, *CloudJob) (payload.Bundle, error) {
		runs.Add(1)
		<-release
		return nil, nil
	}))
	ctx := context.Background()

	job, err := o.Enqueue(ctx, OperationViralScore, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := o.Process(ctx, job.ID)
			if err == nil && !got.Status.Terminal() {
				err = fmt.Errorf("non-terminal status %s", got.Status)
			}
			if err != nil && !errors.Is(err, ErrNotQueued) {
				errs <- err
			}
		}()
	}
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	assert.Equal(t, int64(1), runs.Load())
}

func TestOrchestrator_Process_IgnoresCancellationOnceStarted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o := NewOrchestrator(newMemoryStore(), WithExecutor(OperationTranscribe, func(execCtx context.Context, _ *CloudJob) (payload.Bundle, error) {
		cancel()
		return nil, execCtx.Err()
	}))

	job, err := o.Enqueue(context.Background(), OperationTranscribe, nil)
	require.NoError(t, err)

	done, err := o.Process(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
}

func TestOrchestrator_RecoverInterrupted(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertJob(ctx, &CloudJob{ID: "a", Operation: OperationTranscribe, Status: StatusProcessing}))
	require.NoError(t, store.UpsertJob(ctx, &CloudJob{ID: "b", Operation: OperationTranscribe, Status: StatusQueued}))

	o := NewOrchestrator(store)
	n, err := o.RecoverInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a, err := o.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, a.Status)
	assert.Equal(t, "interrupted", a.Result["error"])

	b, err := o.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, b.Status)
}

func TestParseOperation(t *testing.T) {
	for _, s := range []string{"viral-score", "hook-generation", "transcribe"} {
		op, err := ParseOperation(s)
		require.NoError(t, err)
		assert.Equal(t, Operation(s), op)
	}
	_, err := ParseOperation("export")
	assert.Error(t, err)
}
