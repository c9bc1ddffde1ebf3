package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()

	ScheduleTaskOnce(at int64, task func()) error
	// ScheduleEvery runs task at every interval. A run is skipped if the previous one is
	// still in progress.
	ScheduleEvery(interval time.Duration, task func()) error
}
