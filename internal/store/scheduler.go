package store

import "time"

// Handle cancels a scheduled effect.
type Handle interface {
	// Cancel stops the effect if it has not started. It reports whether the
	// effect was stopped.
	Cancel() bool
}

// Scheduler runs an effect once after a delay.
type Scheduler interface {
	Schedule(delay time.Duration, effect func()) Handle
}

// TimerScheduler schedules effects on runtime timers.
type TimerScheduler struct{}

type timerHandle struct{ t *time.Timer }

func (h timerHandle) Cancel() bool { return h.t.Stop() }

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(delay time.Duration, effect func()) Handle {
	return timerHandle{t: time.AfterFunc(delay, effect)}
}

var _ Scheduler = TimerScheduler{}
