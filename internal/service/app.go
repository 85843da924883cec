// Package service wires the domain components behind the operations the
// HTTP API and the CLI expose.
package service

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/astowny/monteur-ia/internal/analytics"
	"github.com/astowny/monteur-ia/internal/config"
	"github.com/astowny/monteur-ia/internal/gate"
	"github.com/astowny/monteur-ia/internal/hooks"
	"github.com/astowny/monteur-ia/internal/jobs"
	"github.com/astowny/monteur-ia/internal/media"
	"github.com/astowny/monteur-ia/internal/payload"
	"github.com/astowny/monteur-ia/internal/platform"
	"github.com/astowny/monteur-ia/internal/silence"
	"github.com/astowny/monteur-ia/internal/subtitle"
	"github.com/astowny/monteur-ia/internal/transcription"
	"github.com/astowny/monteur-ia/internal/viral"
	"github.com/astowny/monteur-ia/pkg/file"
	"github.com/astowny/monteur-ia/pkg/icron"
	"github.com/astowny/monteur-ia/pkg/log"
)

// Store is the durable backend shared by jobs and analytics.
type Store interface {
	jobs.Store
	analytics.Store
}

type MediaPipeline interface {
	IsAvailable() bool
	ProbeMetadata(inputPath string) (media.Metadata, error)
	BuildExportCommand(opts media.ExportOptions) ([]string, error)
}

// App is built once at process start and handed to every transport.
type App struct {
	cfg         *config.Config
	gate        *gate.Gate
	orch        *jobs.Orchestrator
	sweeper     *jobs.Sweeper
	recorder    *analytics.Recorder
	media       MediaPipeline
	transcriber transcription.Transcriber
	exporter    *platform.Exporter
	lookPath    func(string) (string, error)
	now         func() time.Time
}

type Option func(*App)

func WithMediaPipeline(m MediaPipeline) Option {
	return func(a *App) {
		a.media = m
	}
}

func WithTranscriber(t transcription.Transcriber) Option {
	return func(a *App) {
		a.transcriber = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithLookPath replaces the binary lookup used by RuntimeChecks.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(a *App) {
		a.lookPath = fn
	}
}

func NewApp(cfg *config.Config, store Store, opts ...Option) (*App, error) {
	app := &App{
		cfg:      cfg,
		recorder: analytics.NewRecorder(store),
		exporter: platform.NewExporter(),
		lookPath: exec.LookPath,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.media == nil {
		app.media = media.NewPipeline(cfg.Media.FFmpegBin)
	}
	if app.transcriber == nil {
		t, err := transcription.New(cfg.Transcription.Options())
		if err != nil {
			return nil, err
		}
		app.transcriber = t
	}

	app.gate = gate.New(cfg.Auth.APIKey, cfg.Auth.RateLimitMax, cfg.Auth.Window(), gate.WithClock(app.now))
	app.orch = jobs.NewOrchestrator(store,
		jobs.WithClock(app.now),
		jobs.WithExecutor(jobs.OperationViralScore, app.executeViralScore),
		jobs.WithExecutor(jobs.OperationHookGeneration, app.executeHookGeneration),
		jobs.WithExecutor(jobs.OperationTranscribe, app.executeTranscribe),
	)
	app.sweeper = jobs.NewSweeper(app.orch, cfg.Jobs.SweepCron, cfg.Jobs.Concurrency)
	return app, nil
}

func (a *App) Orchestrator() *jobs.Orchestrator {
	return a.orch
}

func (a *App) Sweeper() *jobs.Sweeper {
	return a.sweeper
}

// Authorize admits one request from client. It runs before any operation
// and has no side effect other than consuming rate-limit budget.
func (a *App) Authorize(client, apiKey string) error {
	if err := a.gate.Check(client, apiKey); err != nil {
		return Classify(err)
	}
	return nil
}

func (a *App) track(ctx context.Context, name string, props payload.Bundle) error {
	if err := a.recorder.Track(ctx, name, props); err != nil {
		return WrapError(err, ErrUnknown, "record analytics event "+name)
	}
	return nil
}

func (a *App) CreateProject(ctx context.Context, req CreateProjectRequest) (*CreateProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	meta, err := a.media.ProbeMetadata(req.VideoPath)
	if err != nil {
		return nil, Classify(err)
	}
	if err := a.track(ctx, "project_created", payload.Bundle{
		"project_id": req.ProjectID,
		"size_bytes": meta.SizeBytes,
	}); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"project_id": req.ProjectID}).Info("project_created")
	return &CreateProjectResponse{ProjectID: req.ProjectID, Metadata: meta}, nil
}

func (a *App) PrepareExport(ctx context.Context, req PrepareExportRequest) (*PrepareExportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	subtitlePath := req.SubtitlePath
	if req.AddSubtitles && subtitlePath == "" && len(req.Transcript) > 0 {
		subtitlePath = file.ReplaceExt(req.OutputPath, ".srt")
		if err := subtitle.Write(subtitlePath, req.Transcript); err != nil {
			return nil, WrapError(err, ErrUnknown, "write subtitles")
		}
	}
	cmd, err := a.media.BuildExportCommand(media.ExportOptions{
		InputPath:    req.InputPath,
		OutputPath:   req.OutputPath,
		AspectRatio:  media.AspectRatio(req.AspectRatio),
		AddSubtitles: req.AddSubtitles,
		SubtitlePath: subtitlePath,
	})
	if err != nil {
		return nil, Classify(err)
	}
	if err := a.track(ctx, "export_prepared", payload.Bundle{"ratio": req.AspectRatio}); err != nil {
		return nil, err
	}
	resp := &PrepareExportResponse{Command: cmd, OutputPath: req.OutputPath}
	if req.AddSubtitles {
		resp.SubtitlePath = subtitlePath
	}
	return resp, nil
}

func (a *App) language(requested string) string {
	if requested != "" {
		return requested
	}
	return a.cfg.Transcription.DefaultLanguage.String()
}

func (a *App) transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResponse, error) {
	segments, err := a.transcriber.Transcribe(ctx, req.VideoPath, a.language(req.Language))
	if err != nil {
		if errors.Is(err, transcription.ErrMediaNotFound) {
			return nil, Classify(err)
		}
		return nil, WrapError(err, ErrDependency, "transcription failed")
	}
	return &TranscribeResponse{
		Segments:         segments,
		DetectedLanguage: transcription.DetectLanguage(segments),
	}, nil
}

func (a *App) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := a.transcribe(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.track(ctx, "transcription_done", payload.Bundle{
		"segments": len(resp.Segments),
		"language": resp.DetectedLanguage,
	}); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *App) DetectSilences(ctx context.Context, req DetectSilencesRequest) (*DetectSilencesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	silences := silence.Detect(req.Durations, req.Amplitudes, req.threshold())
	if err := a.track(ctx, "silence_detection_done", payload.Bundle{"silences": len(silences)}); err != nil {
		return nil, err
	}
	return &DetectSilencesResponse{Silences: silences}, nil
}

func (a *App) ScoreMoments(ctx context.Context, req ScoreMomentsRequest) (*ScoreMomentsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	candidates := viral.Score(req.Transcript, req.AudioPeaks, req.SpeechRates)
	if err := a.track(ctx, "moments_scored", payload.Bundle{"candidates": len(candidates)}); err != nil {
		return nil, err
	}
	return &ScoreMomentsResponse{Candidates: candidates}, nil
}

func (a *App) GenerateHooks(ctx context.Context, req GenerateHooksRequest) (*GenerateHooksResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	style, _ := req.style()
	generated := hooks.Generate(req.Transcript, style, req.limit())
	if err := a.track(ctx, "hooks_generated", payload.Bundle{"count": len(generated)}); err != nil {
		return nil, err
	}
	return &GenerateHooksResponse{Hooks: generated}, nil
}

func (a *App) EnqueueJob(ctx context.Context, req EnqueueJobRequest) (*JobResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	job, err := a.orch.Enqueue(ctx, jobs.Operation(req.Operation), req.Payload)
	if err != nil {
		return nil, Classify(err)
	}
	return &JobResponse{Job: job}, nil
}

// ProcessJob runs a queued job to done or failed. A job that is already
// processing or terminal is a conflict.
func (a *App) ProcessJob(ctx context.Context, id string) (*JobResponse, error) {
	if err := required("job id", id); err != nil {
		return nil, err
	}
	job, err := a.orch.Process(ctx, id)
	if err != nil {
		return nil, Classify(err)
	}
	return &JobResponse{Job: job}, nil
}

func (a *App) GetJob(ctx context.Context, id string) (*jobs.CloudJob, error) {
	if err := required("job id", id); err != nil {
		return nil, err
	}
	job, err := a.orch.Get(ctx, id)
	if err != nil {
		return nil, Classify(err)
	}
	return job, nil
}

func (a *App) ExportToPlatform(ctx context.Context, req ExportPlatformRequest) (*platform.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, _ := platform.ParsePlatform(req.Platform)
	res := a.exporter.Export(p, req.FilePath, req.Title)
	if err := a.track(ctx, "platform_export_queued", payload.Bundle{"platform": req.Platform}); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *App) Analytics(ctx context.Context) (*AnalyticsResponse, error) {
	events, err := a.recorder.Dump(ctx)
	if err != nil {
		return nil, WrapError(err, ErrUnknown, "list analytics events")
	}
	return &AnalyticsResponse{Events: events}, nil
}

func (a *App) RuntimeChecks() RuntimeStatus {
	_, whisperErr := a.lookPath(a.cfg.Transcription.WhisperBin)
	status := RuntimeStatus{
		FFmpegAvailable:  a.media.IsAvailable(),
		WhisperAvailable: whisperErr == nil,
		TranscribeMode:   string(a.cfg.Transcription.Mode),
		Environment:      a.cfg.Env,
	}
	if info, err := icron.GetTriggerInfo(a.cfg.Jobs.SweepCron, a.now()); err == nil {
		status.JobSweep = info
	}
	return status
}
