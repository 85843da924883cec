// Package analytics records append-only usage events.
package analytics

import (
	"context"

	"github.com/astowny/monteur-ia/internal/payload"
)

type Event struct {
	Name       string         `json:"name"`
	Properties payload.Bundle `json:"properties"`
}

// Store appends events and lists them in insertion order.
type Store interface {
	AppendEvent(ctx context.Context, name string, properties payload.Bundle) error
	ListEvents(ctx context.Context) ([]Event, error)
}

type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Track(ctx context.Context, name string, properties payload.Bundle) error {
	if properties == nil {
		properties = payload.Bundle{}
	}
	return r.store.AppendEvent(ctx, name, properties)
}

// Dump returns every recorded event, oldest first.
func (r *Recorder) Dump(ctx context.Context) ([]Event, error) {
	return r.store.ListEvents(ctx)
}
