package notify

import (
	"math/rand"
	"time"
)

type backoff struct {
	base time.Duration
	max  time.Duration
}

func newBackoff(base, max time.Duration) *backoff { return &backoff{base: base, max: max} }

// Delay returns the wait before retry number attempt (1-based),
// exponential and capped, with +/-20% jitter. Returning a delay rather
// than sleeping keeps retry policy as data on the task.
func (b *backoff) Delay(attempt int) time.Duration {
	d := b.base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d > b.max {
			d = b.max
			break
		}
	}
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * j)
}
