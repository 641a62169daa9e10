package schedjobs

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunDueFiresOnlyElapsedJobs(t *testing.T) {
	s := NewScheduler(time.Minute)
	var fired atomic.Int32
	base := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	s.AddOneTimeJob(&OneTimeJob{
		ID:       "j1",
		ExecTime: base.Add(2 * time.Minute),
		Task:     func() error { fired.Add(1); return nil },
	})

	s.RunDue(base)
	s.Flush()
	if fired.Load() != 0 {
		t.Fatalf("job fired before its ExecTime")
	}
	s.RunDue(base.Add(time.Minute))
	s.Flush()
	if fired.Load() != 0 {
		t.Fatalf("job fired one minute early")
	}
	s.RunDue(base.Add(2 * time.Minute))
	s.Flush()
	if fired.Load() != 1 {
		t.Fatalf("expected exactly one firing, got %d", fired.Load())
	}
	// consumed: advancing further must not re-fire
	s.RunDue(base.Add(3 * time.Minute))
	s.Flush()
	if fired.Load() != 1 {
		t.Fatalf("job fired twice")
	}
}

func TestAddOneTimeJobReplacesPendingID(t *testing.T) {
	s := NewScheduler(time.Minute)
	var first, second atomic.Int32
	base := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	s.AddOneTimeJob(&OneTimeJob{
		ID:       "order-1",
		ExecTime: base.Add(time.Minute),
		Task:     func() error { first.Add(1); return nil },
	})
	s.AddOneTimeJob(&OneTimeJob{
		ID:       "order-1",
		ExecTime: base.Add(2 * time.Minute),
		Task:     func() error { second.Add(1); return nil },
	})
	if n := len(s.GetOneTimeJobs()); n != 1 {
		t.Fatalf("expected 1 pending job, got %d", n)
	}
	s.RunDue(base.Add(5 * time.Minute))
	s.Flush()
	if first.Load() != 0 || second.Load() != 1 {
		t.Fatalf("replacement must cancel the earlier job: first=%d second=%d", first.Load(), second.Load())
	}
}

func TestDeleteOneTimeJobCancels(t *testing.T) {
	s := NewScheduler(time.Minute)
	var fired atomic.Int32
	base := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
	s.AddOneTimeJob(&OneTimeJob{
		ID:       "order-2",
		ExecTime: base.Add(time.Minute),
		Task:     func() error { fired.Add(1); return nil },
	})
	if !s.DeleteOneTimeJob("order-2") {
		t.Fatalf("expected pending job to be deleted")
	}
	if s.DeleteOneTimeJob("order-2") {
		t.Fatalf("second delete must report nothing pending")
	}
	s.RunDue(base.Add(time.Hour))
	s.Flush()
	if fired.Load() != 0 {
		t.Fatalf("cancelled job fired")
	}
}

func TestCronJobMatchesTick(t *testing.T) {
	s := NewScheduler(time.Minute)
	var fired atomic.Int32
	job := NewEveryMinEmptyCronJob("sweep")
	job.Minutes = BitsFromMinutes([]int{30})
	job.Task = func() error { fired.Add(1); return nil }
	s.AddCronJob(job)

	s.RunDue(time.Date(2024, 5, 17, 3, 29, 0, 0, time.UTC))
	s.Flush()
	if fired.Load() != 0 {
		t.Fatalf("cron fired off-minute")
	}
	s.RunDue(time.Date(2024, 5, 17, 3, 30, 0, 0, time.UTC))
	s.Flush()
	if fired.Load() != 1 {
		t.Fatalf("cron did not fire on its minute")
	}
}
