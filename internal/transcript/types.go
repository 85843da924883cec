package transcript

import (
	"fmt"
	"strings"
)

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("segment start must be >= 0, got %v", s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("segment end %v must be after start %v", s.End, s.Start)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("segment confidence must be in [0,1], got %v", s.Confidence)
	}
	return nil
}

// ValidateAll checks every segment and reports the first offending index.
func ValidateAll(segments []Segment) error {
	for i, s := range segments {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("transcript[%d]: %w", i, err)
		}
	}
	return nil
}

// Text joins segment texts with spaces.
func Text(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}
