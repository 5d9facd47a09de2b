package engine

import (
	"sync"

	"golang.org/x/time/rate"
)

// One token bucket per provider. PROVIDER_RPS <= 0 disables limiting.
var (
	limitersMu sync.RWMutex
	limiters   = map[Provider]*rate.Limiter{}
)

func initLimiters(rps float64) {
	limitersMu.Lock()
	defer limitersMu.Unlock()
	limiters = make(map[Provider]*rate.Limiter, len(Providers))
	for _, p := range Providers {
		if rps <= 0 {
			limiters[p] = rate.NewLimiter(rate.Inf, 0)
			continue
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		limiters[p] = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func limiterFor(p Provider) *rate.Limiter {
	limitersMu.RLock()
	l, ok := limiters[p]
	limitersMu.RUnlock()
	if !ok {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return l
}
