package transcription

import (
	"github.com/abadojack/whatlanggo"

	"github.com/astowny/monteur-ia/internal/transcript"
)

// DetectLanguage returns the ISO 639-1 code of the transcript text, or ""
// when detection is not reliable.
func DetectLanguage(segments []transcript.Segment) string {
	text := transcript.Text(segments)
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
