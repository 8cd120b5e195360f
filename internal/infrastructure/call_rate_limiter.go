package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CallRateLimiter throttles webhook turns per caller number. Telephony
// gateways retry aggressively on slow responses; without this a single
// retry storm would fan out into duplicate AI and synthesis calls.
type CallRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*callerLimiter
	rate     rate.Limit
	burst    int
}

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewCallRateLimiter(r rate.Limit, burst int) *CallRateLimiter {
	rl := &CallRateLimiter{
		limiters: make(map[string]*callerLimiter),
		rate:     r,
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether this caller may start another webhook turn.
func (rl *CallRateLimiter) Allow(callerNumber string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[callerNumber]
	if !ok {
		entry = &callerLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[callerNumber] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// cleanup removes limiters for callers idle longer than 10 minutes.
func (rl *CallRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for caller, entry := range rl.limiters {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(rl.limiters, caller)
			}
		}
		rl.mu.Unlock()
	}
}
