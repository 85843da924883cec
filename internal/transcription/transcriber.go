// Package transcription turns a media file into timed transcript segments.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/astowny/monteur-ia/internal/transcript"
)

type Mode string

const (
	ModeStub  Mode = "stub"
	ModeLocal Mode = "local"
	ModeAPI   Mode = "api"
)

var (
	ErrMediaNotFound = errors.New("media file not found")
	ErrUnknownMode   = errors.New("unknown transcription mode")
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeStub, ModeLocal, ModeAPI:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Transcriber produces segments for the media at mediaPath.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath, language string) ([]transcript.Segment, error)
}

type Options struct {
	Mode       Mode
	WhisperBin string
	APIURL     string
	APIKey     string
	APITimeout time.Duration
}

// New returns the backend selected by opts.Mode.
func New(opts Options) (Transcriber, error) {
	switch opts.Mode {
	case ModeStub, "":
		return Stub{}, nil
	case ModeLocal:
		return NewLocal(opts.WhisperBin), nil
	case ModeAPI:
		return NewAPIClient(opts.APIURL, opts.APIKey, WithTimeout(opts.APITimeout)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
}
