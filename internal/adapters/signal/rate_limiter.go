package signal

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RoomRateLimiter throttles inbound events per client token, so one
// browser opening several tabs shares a single budget.
type RoomRateLimiter struct {
	every    rate.Limit
	burst    int
	entryTTL time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*clientLimiterEntry
}

// NewRoomRateLimiter allows limit events per interval with bursts of up to
// limit. Keys idle for longer than entryTTL are forgotten on Sweep.
// A non-positive limit disables throttling.
func NewRoomRateLimiter(limit int, interval, entryTTL time.Duration) *RoomRateLimiter {
	rl := &RoomRateLimiter{
		burst:    limit,
		entryTTL: entryTTL,
		now:      time.Now,
		entries:  map[string]*clientLimiterEntry{},
	}
	if limit > 0 && interval > 0 {
		rl.every = rate.Every(interval / time.Duration(limit))
	}
	if rl.entryTTL < interval {
		rl.entryTTL = interval
	}
	return rl
}

func (rl *RoomRateLimiter) Allow(key string) bool {
	if rl.burst <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.entries[key]
	if !ok {
		entry = &clientLimiterEntry{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Sweep drops limiters that have been idle for longer than the entry TTL.
func (rl *RoomRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, entry := range rl.entries {
		if now.Sub(entry.lastSeen) > rl.entryTTL {
			delete(rl.entries, key)
			removed++
		}
	}
	return removed
}
