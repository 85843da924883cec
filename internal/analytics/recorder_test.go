package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astowny/monteur-ia/internal/payload"
)

type memoryStore struct {
	events []Event
}

func (m *memoryStore) AppendEvent(_ context.Context, name string, properties payload.Bundle) error {
	m.events = append(m.events, Event{Name: name, Properties: properties})
	return nil
}

func (m *memoryStore) ListEvents(context.Context) ([]Event, error) {
	return append([]Event(nil), m.events...), nil
}

func TestRecorder_DumpReturnsEventsInCallOrder(t *testing.T) {
	r := NewRecorder(&memoryStore{})
	ctx := context.Background()

	require.NoError(t, r.Track(ctx, "moments_scored", payload.Bundle{"candidates": 3}))
	require.NoError(t, r.Track(ctx, "hooks_generated", nil))
	require.NoError(t, r.Track(ctx, "moments_scored", payload.Bundle{"candidates": 1}))

	events, err := r.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"moments_scored", "hooks_generated", "moments_scored"},
		[]string{events[0].Name, events[1].Name, events[2].Name})
	assert.Equal(t, payload.Bundle{}, events[1].Properties)
}
