// Package subtitle renders transcript segments as SRT files for burned-in
// captions.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/astowny/monteur-ia/internal/transcript"
)

// Write renders segments as SRT into path, creating its directory.
func Write(path string, segments []transcript.Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("subtitle data is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := Encode(writer, segments); err != nil {
		return err
	}
	return writer.Flush()
}

// Encode writes segments in SRT format. Cues are numbered from 1.
func Encode(w io.Writer, segments []transcript.Segment) error {
	for i, seg := range segments {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(seg.Start), formatTimestamp(seg.End), seg.Text)
		if err != nil {
			return err
		}
	}
	return nil
}

// formatTimestamp formats seconds as an SRT time, HH:MM:SS,mmm.
func formatTimestamp(seconds float64) string {
	ms := int64(math.Round(math.Max(seconds, 0) * 1000))
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	secs := ms / 1000 % 60
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
