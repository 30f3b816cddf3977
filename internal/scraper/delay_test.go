package scraper

import (
	"testing"
	"time"
)

func TestDelayHealthyUsesInterval(t *testing.T) {
	d := newPollDelay(3*time.Second, 60*time.Second)
	if got := d.Next(0); got != 3*time.Second {
		t.Errorf("Next(0) = %v, want the healthy interval", got)
	}
}

func TestDelayFailingUsesFailedInterval(t *testing.T) {
	d := newPollDelay(3*time.Second, 60*time.Second)
	for _, failures := range []int{1, 5, 100} {
		got := d.Next(failures)
		if got < 54*time.Second || got > 66*time.Second {
			// Jitter is ±10% of the failed interval.
			t.Errorf("Next(%d) = %v, want around the failed interval", failures, got)
		}
	}
}
