package attendance

import (
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// Clock is the time source stamped into evidence.
type Clock interface {
	Now() time.Time
	Source() types.TimeSource
}

// OffsetClock is the local clock corrected by the last observed server
// time. Until a sample arrives it reports the raw local clock with
// TimeSourceLocal.
type OffsetClock struct {
	local func() time.Time

	mu     sync.RWMutex
	offset time.Duration
	synced bool
}

func NewOffsetClock() *OffsetClock {
	return &OffsetClock{local: time.Now}
}

// Observe records a server timestamp. sent and received bracket the
// request that carried it; the midpoint stands in for the server's
// moment of stamping.
func (c *OffsetClock) Observe(server, sent, received time.Time) {
	if server.IsZero() || received.Before(sent) {
		return
	}
	mid := sent.Add(received.Sub(sent) / 2)

	c.mu.Lock()
	c.offset = server.Sub(mid)
	c.synced = true
	c.mu.Unlock()
}

func (c *OffsetClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.local().Add(c.offset).UTC()
}

func (c *OffsetClock) Source() types.TimeSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.synced {
		return types.TimeSourceNetwork
	}
	return types.TimeSourceLocal
}
