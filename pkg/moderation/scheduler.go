package moderation

import "time"

// Scheduler runs fn once after d. The chat client supplies one that runs
// fn on its event loop.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

// SchedulerFunc adapts a function to Scheduler
type SchedulerFunc func(d time.Duration, fn func())

// Schedule implements Scheduler
func (f SchedulerFunc) Schedule(d time.Duration, fn func()) {
	f(d, fn)
}

// TimerScheduler schedules with time.AfterFunc
var TimerScheduler Scheduler = SchedulerFunc(func(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
})
