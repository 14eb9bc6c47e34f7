package tracer

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter limit emitted events by syscall number.
type RateLimiter struct {
	lock        sync.Mutex
	limit       rate.Limit
	burst       int
	limiter     *rate.Limiter
	limiters    map[uint32]*rate.Limiter
	maxLimiters int
}

// NewRateLimiter create a limiter with default rate limit and burst.
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limit:       limit,
		burst:       burst,
		limiter:     rate.NewLimiter(limit, burst),
		limiters:    map[uint32]*rate.Limiter{},
		maxLimiters: 1000,
	}
}

// Reset resets all limiters. A zero limit drops every event of the syscall,
// a negative one falls back to the default limit.
func (rl *RateLimiter) Reset(limits map[uint32]float64) {
	limiters := map[uint32]*rate.Limiter{}
	for k, v := range limits {
		if v < 0 {
			continue
		}
		burst := rl.burst
		if v == 0 {
			burst = 0
		}
		limiters[k] = rate.NewLimiter(rate.Limit(v), burst)
	}

	rl.lock.Lock()
	defer rl.lock.Unlock()
	rl.limiters = limiters
}

// Allow checks whether an event of the syscall can be emitted now.
func (rl *RateLimiter) Allow(nr uint32) bool {
	rl.lock.Lock()
	defer rl.lock.Unlock()

	limiter, ok := rl.limiters[nr]
	if !ok {
		if len(rl.limiters) >= rl.maxLimiters {
			return rl.limiter.Allow()
		}
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[nr] = limiter
	}
	return limiter.Allow()
}
