package jobs

import "context"

// Store is the durable home of job records. UpsertJob replaces every field
// of the record in one write; GetJob returns ErrNotFound for unknown ids.
type Store interface {
	UpsertJob(ctx context.Context, job *CloudJob) error
	GetJob(ctx context.Context, id string) (*CloudJob, error)
	ListJobsByStatus(ctx context.Context, status Status) ([]*CloudJob, error)
}
