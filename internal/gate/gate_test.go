package gate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestGate_VerifyAPIKey(t *testing.T) {
	open := New("", 1, time.Second)
	assert.True(t, open.VerifyAPIKey(""))
	assert.True(t, open.VerifyAPIKey("anything"))

	closed := New("secret", 1, time.Second)
	assert.True(t, closed.VerifyAPIKey("secret"))
	assert.False(t, closed.VerifyAPIKey(""))
	assert.False(t, closed.VerifyAPIKey("Secret"))
}

func TestGate_Allow_ExactlyNWithinWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := New("", 3, time.Minute, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.True(t, g.Allow("c1"), "call %d", i+1)
		clock.Advance(time.Second)
	}
	assert.False(t, g.Allow("c1"))

	// another client has its own bucket
	assert.True(t, g.Allow("c2"))
}

func TestGate_Allow_WindowSlides(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := New("", 2, 10*time.Second, WithClock(clock.Now))

	assert.True(t, g.Allow("c"))
	clock.Advance(5 * time.Second)
	assert.True(t, g.Allow("c"))
	assert.False(t, g.Allow("c"))

	clock.Advance(6 * time.Second) // first admission now outside the window
	assert.True(t, g.Allow("c"))
	assert.False(t, g.Allow("c"))
}

func TestGate_Allow_RejectionIsNotRecorded(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := New("", 1, 10*time.Second, WithClock(clock.Now))

	assert.True(t, g.Allow("c"))
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		assert.False(t, g.Allow("c"))
	}
	clock.Advance(6 * time.Second)
	assert.True(t, g.Allow("c"))
}

func TestGate_Allow_ConcurrentHardBound(t *testing.T) {
	g := New("", 50, time.Hour)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow("same-client") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), admitted.Load())
}

func TestGate_Check(t *testing.T) {
	g := New("k", 1, time.Minute)

	assert.ErrorIs(t, g.Check("c", "bad"), ErrUnauthorized)
	assert.NoError(t, g.Check("c", "k"))
	assert.ErrorIs(t, g.Check("c", "k"), ErrRateLimited)
}

func TestNew_Defaults(t *testing.T) {
	g := New("", 0, 0)
	assert.Equal(t, DefaultMaxRequests, g.maxRequests)
	assert.Equal(t, DefaultWindow, g.window)
	for i := 0; i < DefaultMaxRequests; i++ {
		if !g.Allow("c") {
			t.Fatalf("call %d rejected", i+1)
		}
	}
	assert.False(t, g.Allow("c"))
}

func TestGate_Allow_DropsIdleClients(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := New("", 5, 10*time.Second, WithClock(clock.Now))

	assert.True(t, g.Allow("idle"))
	clock.Advance(5 * time.Second)
	assert.True(t, g.Allow("active"))

	clock.Advance(6 * time.Second)
	assert.True(t, g.Allow("newcomer"))

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.NotContains(t, g.buckets, "idle")
	assert.Contains(t, g.buckets, "active")
	assert.Contains(t, g.buckets, "newcomer")
	assert.Len(t, g.buckets, 2)
}
