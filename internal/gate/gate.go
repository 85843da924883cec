// Package gate admits requests: a static API-key check followed by a
// per-client sliding-window rate limit.
package gate

import (
	"errors"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 120
	DefaultWindow      = 60 * time.Second
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// Gate keeps one time-ordered bucket of admission timestamps per client.
// State lives in memory only and is lost on restart.
type Gate struct {
	apiKey      string
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	buckets   map[string][]time.Time
	lastPrune time.Time
}

type Option func(*Gate)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

func New(apiKey string, maxRequests int, window time.Duration, opts ...Option) *Gate {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	g := &Gate{
		apiKey:      apiKey,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		buckets:     make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// VerifyAPIKey accepts every key when no key is configured.
func (g *Gate) VerifyAPIKey(provided string) bool {
	if g.apiKey == "" {
		return true
	}
	return provided == g.apiKey
}

// Allow records an admission for client unless the client already has
// maxRequests admissions inside the trailing window. Rejections are not
// recorded.
func (g *Gate) Allow(client string) bool {
	now := g.now()
	cutoff := now.Add(-g.window)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneIdle(now, cutoff)

	bucket := g.buckets[client]
	drop := 0
	for drop < len(bucket) && bucket[drop].Before(cutoff) {
		drop++
	}
	bucket = bucket[drop:]

	if len(bucket) >= g.maxRequests {
		g.buckets[client] = bucket
		return false
	}
	g.buckets[client] = append(bucket, now)
	return true
}

// pruneIdle drops clients with no admission inside the window, at most once
// per window. Caller holds g.mu.
func (g *Gate) pruneIdle(now, cutoff time.Time) {
	if now.Sub(g.lastPrune) < g.window {
		return
	}
	g.lastPrune = now
	for client, bucket := range g.buckets {
		if len(bucket) == 0 || bucket[len(bucket)-1].Before(cutoff) {
			delete(g.buckets, client)
		}
	}
}

// Check runs both predicates in order; the key is checked first so an
// unauthorized caller never consumes quota.
func (g *Gate) Check(client, apiKey string) error {
	if !g.VerifyAPIKey(apiKey) {
		return ErrUnauthorized
	}
	if !g.Allow(client) {
		return ErrRateLimited
	}
	return nil
}
