package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/astowny/monteur-ia/pkg/log"
)

var scaleFilters = map[AspectRatio]string{
	RatioVertical:   "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2",
	RatioSquare:     "scale=1080:1080:force_original_aspect_ratio=decrease,pad=1080:1080:(ow-iw)/2:(oh-ih)/2",
	RatioHorizontal: "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
}

// ParseAspectRatio accepts the supported export ratios only.
func ParseAspectRatio(s string) (AspectRatio, error) {
	ratio := AspectRatio(strings.TrimSpace(s))
	if _, ok := scaleFilters[ratio]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedRatio, s)
	}
	return ratio, nil
}

// Pipeline wraps the ffmpeg binary used for exports.
type Pipeline struct {
	ffmpegCmd string
}

func NewPipeline(ffmpegCmd string) *Pipeline {
	if ffmpegCmd == "" {
		ffmpegCmd = "ffmpeg"
	}
	return &Pipeline{ffmpegCmd: ffmpegCmd}
}

func (ff *Pipeline) IsAvailable() bool {
	_, err := exec.LookPath(ff.ffmpegCmd)
	return err == nil
}

func (*Pipeline) ProbeMetadata(inputPath string) (Metadata, error) {
	mediaPath := filepath.Clean(inputPath)
	info, err := os.Stat(mediaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return Metadata{}, err
	}
	return Metadata{
		Path:      mediaPath,
		SizeBytes: info.Size(),
		Name:      filepath.Base(mediaPath),
	}, nil
}

// BuildExportCommand returns the ffmpeg argv (binary first) that reframes
// the input to the requested ratio, optionally burning subtitles.
func (ff *Pipeline) BuildExportCommand(opts ExportOptions) ([]string, error) {
	scale, ok := scaleFilters[opts.AspectRatio]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRatio, opts.AspectRatio)
	}

	filters := []string{scale}
	if opts.AddSubtitles && opts.SubtitlePath != "" {
		filters = append(filters, "subtitles="+opts.SubtitlePath)
	}

	return []string{
		ff.ffmpegCmd,
		"-y",
		"-i", opts.InputPath,
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		opts.OutputPath,
	}, nil
}

// RunExport executes a command built by BuildExportCommand and returns its
// combined output.
func (ff *Pipeline) RunExport(ctx context.Context, command []string) ([]byte, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("empty export command")
	}
	cmdPath, err := exec.LookPath(command[0])
	if err != nil {
		return nil, ErrBinaryMissing
	}
	cmd := exec.CommandContext(ctx, cmdPath, command[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Error("Failed to run ffmpeg export: %v", err)
		return output, fmt.Errorf("ffmpeg export: %w", err)
	}
	return output, nil
}
