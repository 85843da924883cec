package jobs

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/astowny/monteur-ia/pkg/log"
)

type scheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
}

// Sweeper periodically drains queued jobs through the orchestrator.
type Sweeper struct {
	orch        *Orchestrator
	cronExpr    string
	concurrency int

	draining atomic.Bool
}

func NewSweeper(orch *Orchestrator, cronExpr string, concurrency int) *Sweeper {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{
		orch:        orch,
		cronExpr:    cronExpr,
		concurrency: concurrency,
	}
}

func (s *Sweeper) CronExpr() string {
	return s.cronExpr
}

// Schedule registers the drain on sched.
func (s *Sweeper) Schedule(ctx context.Context, sched scheduler) error {
	_, err := sched.AddFunc(s.cronExpr, func() {
		if _, err := s.Drain(ctx); err != nil {
			log.Error("Job sweep failed: %v", err)
		}
	})
	return err
}

// Drain processes the jobs that are queued right now and returns how many
// reached a terminal status. It is a no-op while another drain runs.
func (s *Sweeper) Drain(ctx context.Context) (int, error) {
	if !s.draining.CompareAndSwap(false, true) {
		log.Debug("Job sweep already running, skipping")
		return 0, nil
	}
	defer s.draining.Store(false)

	queued, err := s.orch.store.ListJobsByStatus(ctx, StatusQueued)
	if err != nil {
		return 0, err
	}
	if len(queued) == 0 {
		return 0, nil
	}
	log.Info("Sweeping %d queued jobs", len(queued))

	var processed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, job := range queued {
		id := job.ID
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := s.orch.Process(gctx, id)
			switch {
			case err == nil:
				processed.Add(1)
			case errors.Is(err, ErrNotQueued):
				// picked up by a direct Process call in the meantime
			default:
				log.Error("Failed to process job %s: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(processed.Load()), nil
}
