package jobs

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/astowny/monteur-ia/internal/payload"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

type Operation string

const (
	OperationViralScore     Operation = "viral-score"
	OperationHookGeneration Operation = "hook-generation"
	OperationTranscribe     Operation = "transcribe"
)

var operations = []Operation{
	OperationViralScore,
	OperationHookGeneration,
	OperationTranscribe,
}

func ParseOperation(s string) (Operation, error) {
	for _, op := range operations {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedOperation, s)
}

var (
	ErrNotFound             = errors.New("job not found")
	ErrNotQueued            = errors.New("job is not queued")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// CloudJob is a persisted unit of asynchronous work. Result stays nil until
// the job reaches a terminal status.
type CloudJob struct {
	ID        string         `json:"id"`
	Operation Operation      `json:"operation"`
	Payload   payload.Bundle `json:"payload"`
	Status    Status         `json:"status"`
	Result    payload.Bundle `json:"result"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func cloneJob(job *CloudJob) *CloudJob {
	if job == nil {
		return nil
	}
	tmp := *job
	tmp.Payload = maps.Clone(job.Payload)
	tmp.Result = maps.Clone(job.Result)
	return &tmp
}
