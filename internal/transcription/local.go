package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/astowny/monteur-ia/internal/transcript"
	"github.com/astowny/monteur-ia/pkg/file"
	"github.com/astowny/monteur-ia/pkg/log"
)

const (
	localTimeout    = 900 * time.Second
	localConfidence = 0.9
	defaultSpeaker  = "S1"
)

// Local runs the whisper CLI and reads the JSON file it writes next to the
// input.
type Local struct {
	bin     string
	timeout time.Duration
}

func NewLocal(bin string) *Local {
	if bin == "" {
		bin = "whisper"
	}
	return &Local{bin: bin, timeout: localTimeout}
}

type whisperOutput struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (l *Local) Transcribe(ctx context.Context, mediaPath, language string) ([]transcript.Segment, error) {
	if _, err := os.Stat(mediaPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, mediaPath)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.bin,
		mediaPath,
		"--language", language,
		"--output_format", "json",
		"--model", "base",
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Error("whisper failed for %s: %v", mediaPath, err)
		return nil, fmt.Errorf("whisper local failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	jsonPath := file.ReplaceExt(mediaPath, ".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("whisper completed but json output was not found: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(out.Segments))
	for _, seg := range out.Segments {
		segments = append(segments, transcript.Segment{
			Start:      seg.Start,
			End:        seg.End,
			Text:       strings.TrimSpace(seg.Text),
			Confidence: localConfidence,
			Speaker:    defaultSpeaker,
		})
	}
	return segments, nil
}
