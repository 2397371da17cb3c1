package session

import (
	"math/rand/v2"
	"time"
)

// maxJitter is the largest random share added on top of a backed-off delay.
const maxJitter = 0.2

// pollDelay returns the wait before the next poll after failures consecutive
// failed fetches. random yields values in [0, 1).
func pollDelay(base, limit time.Duration, failures int, random func() float64) time.Duration {
	if failures <= 0 || base <= 0 {
		return base
	}

	delay := base
	for i := 0; i < failures && delay < limit; i++ {
		delay *= 2
	}
	if limit > 0 && delay > limit {
		delay = limit
	}

	return delay + time.Duration(random()*maxJitter*float64(delay))
}

func jitter() float64 {
	return rand.Float64()
}
