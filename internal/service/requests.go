package service

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"

	"github.com/astowny/monteur-ia/internal/analytics"
	"github.com/astowny/monteur-ia/internal/hooks"
	"github.com/astowny/monteur-ia/internal/jobs"
	"github.com/astowny/monteur-ia/internal/media"
	"github.com/astowny/monteur-ia/internal/payload"
	"github.com/astowny/monteur-ia/internal/platform"
	"github.com/astowny/monteur-ia/internal/silence"
	"github.com/astowny/monteur-ia/internal/transcript"
	"github.com/astowny/monteur-ia/internal/viral"
	"github.com/astowny/monteur-ia/pkg/icron"
)

const (
	DefaultSilenceThreshold = 0.12
	DefaultHookLimit        = 3
)

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewError(ErrValidation, field+" is required")
	}
	return nil
}

func invalid(err error) error {
	return WrapError(err, ErrValidation, err.Error())
}

type CreateProjectRequest struct {
	VideoPath string `json:"video_path"`
	ProjectID string `json:"project_id"`
}

func (r CreateProjectRequest) Validate() error {
	if err := required("video_path", r.VideoPath); err != nil {
		return err
	}
	return required("project_id", r.ProjectID)
}

type CreateProjectResponse struct {
	ProjectID string         `json:"project_id"`
	Metadata  media.Metadata `json:"metadata"`
}

type PrepareExportRequest struct {
	InputPath    string `json:"input_path"`
	OutputPath   string `json:"output_path"`
	AspectRatio  string `json:"aspect_ratio"`
	AddSubtitles bool   `json:"add_subtitles"`
	SubtitlePath string `json:"subtitle_path,omitempty"`

	// Transcript, when set with add_subtitles and no subtitle_path, is
	// rendered to an SRT file next to the output.
	Transcript []transcript.Segment `json:"transcript,omitempty"`
}

func (r PrepareExportRequest) Validate() error {
	if err := required("input_path", r.InputPath); err != nil {
		return err
	}
	if err := required("output_path", r.OutputPath); err != nil {
		return err
	}
	if _, err := media.ParseAspectRatio(r.AspectRatio); err != nil {
		return invalid(err)
	}
	if err := transcript.ValidateAll(r.Transcript); err != nil {
		return invalid(err)
	}
	return nil
}

type PrepareExportResponse struct {
	Command      []string `json:"command"`
	OutputPath   string   `json:"output_path"`
	SubtitlePath string   `json:"subtitle_path,omitempty"`
}

type TranscribeRequest struct {
	VideoPath string `json:"video_path"`
	Language  string `json:"language,omitempty"`
}

func (r TranscribeRequest) Validate() error {
	if err := required("video_path", r.VideoPath); err != nil {
		return err
	}
	if r.Language != "" {
		if _, err := language.Parse(r.Language); err != nil {
			return WrapError(err, ErrValidation, fmt.Sprintf("invalid language %q", r.Language))
		}
	}
	return nil
}

type TranscribeResponse struct {
	Segments         []transcript.Segment `json:"segments"`
	DetectedLanguage string               `json:"detected_language,omitempty"`
}

type DetectSilencesRequest struct {
	Durations        []float64 `json:"durations"`
	Amplitudes       []float64 `json:"amplitudes"`
	SilenceThreshold *float64  `json:"silence_threshold,omitempty"`
}

func (r DetectSilencesRequest) Validate() error {
	if r.SilenceThreshold != nil && (math.IsNaN(*r.SilenceThreshold) || math.IsInf(*r.SilenceThreshold, 0)) {
		return NewError(ErrValidation, "silence_threshold must be a finite number")
	}
	return nil
}

func (r DetectSilencesRequest) threshold() float64 {
	if r.SilenceThreshold == nil {
		return DefaultSilenceThreshold
	}
	return *r.SilenceThreshold
}

type DetectSilencesResponse struct {
	Silences []silence.Interval `json:"silences"`
}

type ScoreMomentsRequest struct {
	Transcript  []transcript.Segment `json:"transcript"`
	AudioPeaks  []float64            `json:"audio_peaks"`
	SpeechRates []float64            `json:"speech_rates"`
}

func (r ScoreMomentsRequest) Validate() error {
	if err := transcript.ValidateAll(r.Transcript); err != nil {
		return invalid(err)
	}
	return nil
}

type ScoreMomentsResponse struct {
	Candidates []viral.Candidate `json:"candidates"`
}

type GenerateHooksRequest struct {
	Transcript []transcript.Segment `json:"transcript"`
	Style      string               `json:"style,omitempty"`
	Limit      *int                 `json:"limit,omitempty"`
}

func (r GenerateHooksRequest) Validate() error {
	if err := transcript.ValidateAll(r.Transcript); err != nil {
		return invalid(err)
	}
	if _, err := r.style(); err != nil {
		return invalid(err)
	}
	if r.limit() < 1 {
		return NewError(ErrValidation, "limit must be >= 1")
	}
	return nil
}

func (r GenerateHooksRequest) style() (hooks.Style, error) {
	if r.Style == "" {
		return hooks.StyleGeneric, nil
	}
	return hooks.ParseStyle(r.Style)
}

func (r GenerateHooksRequest) limit() int {
	if r.Limit == nil {
		return DefaultHookLimit
	}
	return *r.Limit
}

type GenerateHooksResponse struct {
	Hooks []string `json:"hooks"`
}

type EnqueueJobRequest struct {
	Operation string         `json:"operation"`
	Payload   payload.Bundle `json:"payload"`
}

// Validate checks the operation and that the payload decodes into that
// operation's request.
func (r EnqueueJobRequest) Validate() error {
	op, err := jobs.ParseOperation(r.Operation)
	if err != nil {
		return invalid(err)
	}
	if r.Payload == nil {
		return NewError(ErrValidation, "payload is required")
	}
	req, err := decodeJobPayload(op, r.Payload)
	if err != nil {
		return WrapError(err, ErrValidation, "invalid payload for "+r.Operation)
	}
	return req.Validate()
}

type validator interface {
	Validate() error
}

func decodeJobPayload(op jobs.Operation, body payload.Bundle) (validator, error) {
	var req validator
	switch op {
	case jobs.OperationViralScore:
		req = &ScoreMomentsRequest{}
	case jobs.OperationHookGeneration:
		req = &GenerateHooksRequest{}
	case jobs.OperationTranscribe:
		req = &TranscribeRequest{}
	default:
		return nil, fmt.Errorf("%w %q", jobs.ErrUnsupportedOperation, op)
	}
	if err := body.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

type JobResponse struct {
	Job *jobs.CloudJob `json:"job"`
}

type ExportPlatformRequest struct {
	Platform string `json:"platform"`
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
}

func (r ExportPlatformRequest) Validate() error {
	if _, err := platform.ParsePlatform(r.Platform); err != nil {
		return invalid(err)
	}
	if err := required("file_path", r.FilePath); err != nil {
		return err
	}
	return required("title", r.Title)
}

type AnalyticsResponse struct {
	Events []analytics.Event `json:"events"`
}

type RuntimeStatus struct {
	FFmpegAvailable  bool               `json:"ffmpeg_available"`
	WhisperAvailable bool               `json:"whisper_available"`
	TranscribeMode   string             `json:"transcribe_mode"`
	Environment      string             `json:"environment"`
	JobSweep         *icron.TriggerInfo `json:"job_sweep,omitempty"`
}
