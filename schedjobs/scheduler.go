package schedjobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler - delayed-task scheduler. One-time jobs are indexed by ID so
// they can be replaced or cancelled while pending; cron jobs run whenever
// their bitmask matches the tick's wall time.
//
// Start drives RunDue from a coarse ticker. Tests skip Start and call
// RunDue with their own timestamps, advancing virtual time as they like.
type Scheduler struct {
	tickInterval time.Duration
	oneTimeJobs  map[string]*OneTimeJob
	cronJobs     []*CronJob
	mu           sync.Mutex
	wg           sync.WaitGroup
	cancel       context.CancelFunc
	// Default Callbacks
	OnOneTimeJobAdded    func(job *OneTimeJob)
	OnOneTimeJobFinished func(job *OneTimeJob, err error)
	OnOneTimeJobDeleted  func(job *OneTimeJob)
	OnCronJobFinished    func(job *CronJob, err error)
}

func NewScheduler(tickInterval time.Duration) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &Scheduler{
		tickInterval: tickInterval,
		oneTimeJobs:  make(map[string]*OneTimeJob),
	}
}

func (s *Scheduler) Start() {
	if s.cancel != nil {
		return // already started
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx)
	log.Println("[INFO] job scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait() // wait for running tasks
	log.Println("[INFO] job scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		s.RunDue(time.Now())
		select {
		case <-ticker.C:
			// continue for-loop
		case <-ctx.Done():
			return
		}
	}
}

// RunDue fires every one-time job whose ExecTime has passed `now` and
// every cron job matching `now`. Tasks run on their own goroutines; use
// Flush to wait for them.
func (s *Scheduler) RunDue(now time.Time) {
	s.mu.Lock()
	var due []*OneTimeJob
	for id, job := range s.oneTimeJobs {
		if !job.ExecTime.After(now) {
			due = append(due, job)
			delete(s.oneTimeJobs, id)
		}
	}
	crons := append([]*CronJob(nil), s.cronJobs...) // copy so unlocking early is possible
	s.mu.Unlock()
	for _, job := range due {
		s.runOneTimeJob(job)
	}
	for _, job := range crons {
		if job.Matches(now) {
			s.runCronJob(job)
		}
	}
}

// Flush blocks until every fired task has returned
func (s *Scheduler) Flush() {
	s.wg.Wait()
}

func (s *Scheduler) runOneTimeJob(job *OneTimeJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := job.Task()
		if job.OnFinished != nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Println("[PANIC] Recovered in job.OnFinished:", r)
					}
				}()
				job.OnFinished(err)
			}()
		}
		if s.OnOneTimeJobFinished != nil {
			s.OnOneTimeJobFinished(job, err)
		}
	}()
}

func (s *Scheduler) runCronJob(job *CronJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := job.Task()
		if job.OnFinished != nil {
			job.OnFinished(err)
		}
		if s.OnCronJobFinished != nil {
			s.OnCronJobFinished(job, err)
		}
	}()
}

// AddOneTimeJob registers job under its ID. A pending job with the same
// ID is replaced, not queued alongside.
func (s *Scheduler) AddOneTimeJob(job *OneTimeJob) {
	s.mu.Lock()
	if s.oneTimeJobs == nil {
		s.oneTimeJobs = make(map[string]*OneTimeJob) // safety net
	}
	s.oneTimeJobs[job.ID] = job
	s.mu.Unlock()
	if s.OnOneTimeJobAdded != nil {
		s.OnOneTimeJobAdded(job)
	}
}

func (s *Scheduler) AddCronJob(job *CronJob) {
	s.mu.Lock()
	s.cronJobs = append(s.cronJobs, job)
	s.mu.Unlock()
	if job.OnAdded != nil { // Job-specific callback
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Println("[PANIC] Recovered in job.OnAdded:", r)
				}
			}()
			job.OnAdded()
		}()
	}
}

// DeleteOneTimeJob cancels a pending job. Reports whether anything was
// actually pending under that ID.
func (s *Scheduler) DeleteOneTimeJob(jobID string) bool {
	s.mu.Lock()
	job, ok := s.oneTimeJobs[jobID]
	if ok {
		delete(s.oneTimeJobs, jobID)
	}
	s.mu.Unlock()
	if ok && s.OnOneTimeJobDeleted != nil {
		s.OnOneTimeJobDeleted(job)
	}
	return ok
}

// GetOneTimeJobs returns a copy of all pending one-time jobs keyed by ID
func (s *Scheduler) GetOneTimeJobs() map[string]*OneTimeJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]*OneTimeJob, len(s.oneTimeJobs))
	for id, job := range s.oneTimeJobs {
		result[id] = job
	}
	return result
}

// GetCronJobs returns a copy of all registered cron jobs
func (s *Scheduler) GetCronJobs() []*CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*CronJob(nil), s.cronJobs...)
}
