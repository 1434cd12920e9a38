package util

import (
	"time"
)

// TimerWrapper pairs a time.Timer with its stopped state so Reset after
// expiry cannot fire from a stale tick left in the buffered channel
// (golang/go#11513).
type TimerWrapper struct {
	t       *time.Timer
	stopped bool
}

func NewTimerWrapper(d time.Duration) *TimerWrapper {
	w := &TimerWrapper{
		t:       time.NewTimer(d),
		stopped: true,
	}
	w.t.Stop()
	return w
}

// GetTimeoutCh returns nil while stopped, so a select over it simply never
// fires.
func (w *TimerWrapper) GetTimeoutCh() <-chan time.Time {
	if w.stopped {
		return nil
	}
	return w.t.C
}

func (w *TimerWrapper) Stop() {
	if w.stopped {
		return
	}
	// drain a tick that raced the Stop
	if !w.t.Stop() {
		select {
		case <-w.t.C:
		default:
		}
	}
	w.stopped = true
}

func (w *TimerWrapper) Reset(d time.Duration) {
	if !w.stopped {
		w.Stop()
	}
	w.t.Reset(d)
	w.stopped = false
}
