package schedjobs

import "time"

// OneTimeJob - one delayed task, keyed by ID. Re-adding the same ID
// replaces the pending job; deleting the ID cancels it. That pair is the
// cancellation handle debouncing callers rely on.
type OneTimeJob struct {
	ID         string
	ExecTime   time.Time
	Task       func() error
	OnFinished func(error)
}
