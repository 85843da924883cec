package media

import "errors"

var (
	ErrInputNotFound    = errors.New("input video not found")
	ErrUnsupportedRatio = errors.New("unsupported aspect ratio")
	ErrBinaryMissing    = errors.New("ffmpeg is not available in PATH")
)

// Metadata describes a source video on disk.
type Metadata struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Name      string `json:"name"`
}

type AspectRatio string

const (
	RatioVertical   AspectRatio = "9:16"
	RatioSquare     AspectRatio = "1:1"
	RatioHorizontal AspectRatio = "16:9"
)

// ExportOptions selects the output framing of an export.
type ExportOptions struct {
	InputPath    string
	OutputPath   string
	AspectRatio  AspectRatio
	AddSubtitles bool
	SubtitlePath string
}
