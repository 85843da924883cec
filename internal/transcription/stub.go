package transcription

import (
	"context"

	"github.com/astowny/monteur-ia/internal/transcript"
)

// Stub returns a fixed French transcript regardless of input.
type Stub struct{}

func (Stub) Transcribe(_ context.Context, _, _ string) ([]transcript.Segment, error) {
	return []transcript.Segment{
		{
			Start:      0.0,
			End:        3.1,
			Text:       "Bienvenue, aujourd'hui on transforme une vidéo longue en shorts.",
			Confidence: 0.94,
			Speaker:    "S1",
		},
		{
			Start:      3.1,
			End:        7.8,
			Text:       "Le vrai levier, ce n'est pas le montage manuel, c'est l'automatisation.",
			Confidence: 0.92,
			Speaker:    "S1",
		},
		{
			Start:      7.8,
			End:        12.4,
			Text:       "Je te montre les 3 étapes qui font gagner des heures chaque semaine.",
			Confidence: 0.95,
			Speaker:    "S1",
		},
	}, nil
}
