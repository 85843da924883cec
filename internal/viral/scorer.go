// Package viral ranks transcript segments as candidate short-form moments
// using a fixed weighted heuristic.
package viral

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/astowny/monteur-ia/internal/transcript"
)

// Signal weights. They must sum to 1.
const (
	weightPeak          = 0.30
	weightLexical       = 0.25
	weightSpeechRate    = 0.20
	weightPauseContrast = 0.15
	weightVisualMotion  = 0.10
)

const (
	neutralSignal = 0.5
	// visualMotion stands in until a real motion signal is supplied.
	visualMotion = 0.4

	// pauseWindow is the largest gap after the previous segment that still
	// counts as a tight cut. Overlaps never do.
	pauseWindow       = 0.1
	gapEpsilon        = 1e-9
	pauseContrastHigh = 0.7
	pauseContrastLow  = 0.3

	keywordsForFullLexical = 3
)

const (
	ReasonAudioPeak       = "audio_peak"
	ReasonEmotionalPhrase = "emotional_phrase"
	ReasonHighSpeechRate  = "high_speech_rate"
	ReasonBalancedSignal  = "balanced_signal"
)

var emotionalWords = []string{
	"erreur",
	"secret",
	"incroyable",
	"grave",
	"important",
	"gagner",
	"perdu",
	"levier",
	"étapes",
}

func init() {
	for i, w := range emotionalWords {
		emotionalWords[i] = norm.NFC.String(w)
	}
}

type Candidate struct {
	Start   float64  `json:"start"`
	End     float64  `json:"end"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Score returns one candidate per segment, ordered by descending score.
// Missing peak or speech-rate samples count as neutral. Equal scores keep
// input order.
func Score(segments []transcript.Segment, audioPeaks, speechRates []float64) []Candidate {
	ret := make([]Candidate, 0, len(segments))

	for i, seg := range segments {
		peak := signalAt(audioPeaks, i)
		speechRate := signalAt(speechRates, i)
		lexical := lexicalScore(seg.Text)

		pauseContrast := pauseContrastLow
		if i > 0 && followsShortPause(segments[i-1], seg) {
			pauseContrast = pauseContrastHigh
		}

		score := weightPeak*peak +
			weightLexical*lexical +
			weightSpeechRate*speechRate +
			weightPauseContrast*pauseContrast +
			weightVisualMotion*visualMotion

		ret = append(ret, Candidate{
			Start:   seg.Start,
			End:     seg.End,
			Score:   round3(score),
			Reasons: reasons(peak, lexical, speechRate),
		})
	}

	slices.SortStableFunc(ret, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ret
}

// followsShortPause reports whether prev ends at most pauseWindow before
// seg starts.
func followsShortPause(prev, seg transcript.Segment) bool {
	gap := seg.Start - prev.End
	return gap >= -gapEpsilon && gap <= pauseWindow+gapEpsilon
}

func signalAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return neutralSignal
}

func lexicalScore(text string) float64 {
	lower := norm.NFC.String(strings.ToLower(text))
	matched := 0
	for _, w := range emotionalWords {
		if strings.Contains(lower, w) {
			matched++
		}
	}
	return math.Min(1.0, float64(matched)/keywordsForFullLexical)
}

func reasons(peak, lexical, speechRate float64) []string {
	ret := make([]string, 0, 3)
	if peak > 0.7 {
		ret = append(ret, ReasonAudioPeak)
	}
	if lexical > 0.4 {
		ret = append(ret, ReasonEmotionalPhrase)
	}
	if speechRate > 0.7 {
		ret = append(ret, ReasonHighSpeechRate)
	}
	if len(ret) == 0 {
		ret = append(ret, ReasonBalancedSignal)
	}
	return ret
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
