package scraper

import (
	"math/rand"
	"time"
)

// pollDelay spaces polls: the healthy interval while an instrument
// responds, the slower failed interval once it stops. A little jitter
// on the failed interval keeps a fleet of pollers from retrying in
// lockstep.
type pollDelay struct {
	healthy time.Duration
	failed  time.Duration
}

func newPollDelay(healthy, failed time.Duration) *pollDelay {
	return &pollDelay{healthy: healthy, failed: failed}
}

// Next returns the wait before the next poll after the given number of
// consecutive failures.
func (d *pollDelay) Next(failures int) time.Duration {
	if failures <= 0 {
		return d.healthy
	}

	delay := float64(d.failed)
	delay += delay * 0.1 * (2*rand.Float64() - 1)
	return time.Duration(delay)
}
