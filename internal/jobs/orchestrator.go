package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/astowny/monteur-ia/internal/payload"
	"github.com/astowny/monteur-ia/pkg/log"
)

// Executor does the work of one operation. The returned bundle is merged
// into the job's acknowledgement result.
type Executor func(ctx context.Context, job *CloudJob) (payload.Bundle, error)

type Orchestrator struct {
	store     Store
	executors map[Operation]Executor
	newID     func() string
	now       func() time.Time

	inflight singleflight.Group
}

type Option func(*Orchestrator)

func WithExecutor(op Operation, exec Executor) Option {
	return func(o *Orchestrator) {
		o.executors[op] = exec
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		executors: make(map[Operation]Executor),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue persists a new queued job.
func (o *Orchestrator) Enqueue(ctx context.Context, op Operation, body payload.Bundle) (*CloudJob, error) {
	if _, err := ParseOperation(string(op)); err != nil {
		return nil, err
	}
	if body == nil {
		body = payload.Bundle{}
	}
	now := o.now().UTC()
	job := &CloudJob{
		ID:        o.newID(),
		Operation: op,
		Payload:   body,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.UpsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	log.Info("Enqueued job %s (%s)", job.ID, job.Operation)
	return cloneJob(job), nil
}

// Get reads a job; unknown ids return ErrNotFound.
func (o *Orchestrator) Get(ctx context.Context, id string) (*CloudJob, error) {
	return o.store.GetJob(ctx, id)
}

// Process runs a queued job to a terminal status. Concurrent calls for the
// same id share one run; a job that is not queued is rejected with
// ErrNotQueued. Once started, the run ignores cancellation of ctx.
func (o *Orchestrator) Process(ctx context.Context, id string) (*CloudJob, error) {
	v, err, _ := o.inflight.Do(id, func() (any, error) {
		return o.process(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	return cloneJob(v.(*CloudJob)), nil
}

func (o *Orchestrator) process(ctx context.Context, id string) (*CloudJob, error) {
	job, err := o.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusQueued {
		return nil, fmt.Errorf("%w: job %s is %s", ErrNotQueued, id, job.Status)
	}

	job.Status = StatusProcessing
	job.UpdatedAt = o.now().UTC()
	if err := o.store.UpsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist processing state: %w", err)
	}

	extra, execErr := o.execute(ctx, job)
	result := payload.Bundle{"operation": string(job.Operation)}
	if execErr != nil {
		log.Error("Job %s (%s) failed: %v", job.ID, job.Operation, execErr)
		result["ok"] = false
		result["error"] = execErr.Error()
		job.Status = StatusFailed
	} else {
		for k, v := range extra {
			result[k] = v
		}
		result["ok"] = true
		job.Status = StatusDone
	}
	job.Result = result
	job.UpdatedAt = o.now().UTC()

	if err := o.store.UpsertJob(ctx, job); err != nil {
		// the record is left in processing; RecoverInterrupted fails it on next start
		log.Error("Failed to persist terminal state of job %s: %v", job.ID, err)
		return nil, fmt.Errorf("persist terminal state: %w", err)
	}
	log.Info("Job %s (%s) finished: %s", job.ID, job.Operation, job.Status)
	return job, nil
}

func (o *Orchestrator) execute(ctx context.Context, job *CloudJob) (ret payload.Bundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret = nil
			err = fmt.Errorf("runtime error: %v", r)
		}
	}()

	exec, ok := o.executors[job.Operation]
	if !ok {
		return payload.Bundle{"insights": "processed"}, nil
	}
	return exec(ctx, cloneJob(job))
}

// RecoverInterrupted fails every job a previous process left in
// processing, and returns how many it moved.
func (o *Orchestrator) RecoverInterrupted(ctx context.Context) (int, error) {
	stuck, err := o.store.ListJobsByStatus(ctx, StatusProcessing)
	if err != nil {
		return 0, err
	}
	for _, job := range stuck {
		job.Status = StatusFailed
		job.Result = payload.Bundle{
			"ok":        false,
			"operation": string(job.Operation),
			"error":     "interrupted",
		}
		job.UpdatedAt = o.now().UTC()
		if err := o.store.UpsertJob(ctx, job); err != nil {
			return 0, fmt.Errorf("fail interrupted job %s: %w", job.ID, err)
		}
		log.Warn("Marked interrupted job %s as failed", job.ID)
	}
	return len(stuck), nil
}
