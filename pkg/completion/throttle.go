package completion

import (
	"time"

	"golang.org/x/time/rate"
)

// Throttle drops chunk notifications that arrive faster than one per interval.
// The first chunk always goes through.
func Throttle(interval time.Duration, f ChunkFunc) ChunkFunc {
	if f == nil {
		return nil
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	return func(p ChunkPayload) {
		if limiter.Allow() {
			f(p)
		}
	}
}
