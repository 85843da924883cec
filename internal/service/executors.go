package service

import (
	"context"

	"github.com/astowny/monteur-ia/internal/hooks"
	"github.com/astowny/monteur-ia/internal/jobs"
	"github.com/astowny/monteur-ia/internal/payload"
	"github.com/astowny/monteur-ia/internal/viral"
)

const processedInsight = "processed"

func (a *App) executeViralScore(_ context.Context, job *jobs.CloudJob) (payload.Bundle, error) {
	var req ScoreMomentsRequest
	if err := job.Payload.Decode(&req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return payload.Bundle{
		"insights":   processedInsight,
		"candidates": viral.Score(req.Transcript, req.AudioPeaks, req.SpeechRates),
	}, nil
}

func (a *App) executeHookGeneration(_ context.Context, job *jobs.CloudJob) (payload.Bundle, error) {
	var req GenerateHooksRequest
	if err := job.Payload.Decode(&req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	style, _ := req.style()
	return payload.Bundle{
		"insights": processedInsight,
		"hooks":    hooks.Generate(req.Transcript, style, req.limit()),
	}, nil
}

func (a *App) executeTranscribe(ctx context.Context, job *jobs.CloudJob) (payload.Bundle, error) {
	var req TranscribeRequest
	if err := job.Payload.Decode(&req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := a.transcribe(ctx, req)
	if err != nil {
		return nil, err
	}
	return payload.Bundle{
		"insights":          processedInsight,
		"segments":          resp.Segments,
		"detected_language": resp.DetectedLanguage,
	}, nil
}
