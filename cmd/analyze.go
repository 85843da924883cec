package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/astowny/monteur-ia/internal/hooks"
	"github.com/astowny/monteur-ia/internal/payload"
	"github.com/astowny/monteur-ia/internal/service"
	"github.com/astowny/monteur-ia/internal/silence"
	"github.com/astowny/monteur-ia/internal/transcript"
	"github.com/astowny/monteur-ia/internal/viral"
)

type analyzeRequest struct {
	Transcript       []transcript.Segment `json:"transcript"`
	AudioPeaks       []float64            `json:"audio_peaks"`
	SpeechRates      []float64            `json:"speech_rates"`
	Durations        []float64            `json:"durations"`
	Amplitudes       []float64            `json:"amplitudes"`
	SilenceThreshold *float64             `json:"silence_threshold"`
	Style            string               `json:"style"`
	Limit            *int                 `json:"limit"`
}

type analyzeResult struct {
	Silences   []silence.Interval `json:"silences"`
	Candidates []viral.Candidate  `json:"candidates"`
	Hooks      []string           `json:"hooks"`
}

// runAnalyze runs the offline analysis on a request file. Nothing is
// persisted.
func runAnalyze(path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	raw, err := payload.Unmarshal(string(bytes.TrimSpace(data)))
	if err != nil {
		return err
	}
	var req analyzeRequest
	if err := raw.Decode(&req); err != nil {
		return fmt.Errorf("invalid request file: %w", err)
	}

	var res analyzeResult
	err = service.SafeExecute(func() error {
		if err := transcript.ValidateAll(req.Transcript); err != nil {
			return err
		}
		style := hooks.StyleGeneric
		if req.Style != "" {
			parsed, err := hooks.ParseStyle(req.Style)
			if err != nil {
				return err
			}
			style = parsed
		}
		limit := service.DefaultHookLimit
		if req.Limit != nil {
			limit = *req.Limit
		}
		threshold := service.DefaultSilenceThreshold
		if req.SilenceThreshold != nil {
			threshold = *req.SilenceThreshold
		}

		res = analyzeResult{
			Silences:   silence.Detect(req.Durations, req.Amplitudes, threshold),
			Candidates: viral.Score(req.Transcript, req.AudioPeaks, req.SpeechRates),
			Hooks:      hooks.Generate(req.Transcript, style, limit),
		}
		return nil
	})
	if err != nil {
		service.Handle(err)
		return err
	}
	return writeIndented(out, res)
}
