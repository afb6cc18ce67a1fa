package clock

import (
	"sync"
	"time"
)

// Fake is a virtual clock. Scheduled callbacks only run from Every (the
// immediate run) and from Advance, on the caller's goroutine.
type Fake struct {
	mu   sync.Mutex
	now  time.Time
	jobs []*fakeJob
}

type fakeJob struct {
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(interval time.Duration, fn func()) func() {
	f.mu.Lock()
	job := &fakeJob{
		interval: interval,
		next:     f.now.Add(interval),
		fn:       fn,
	}
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()

	fn()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		job.stopped = true
	}
}

// Advance moves the clock forward by d, running every callback that falls
// due in order of its due time.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var due *fakeJob
		for _, job := range f.jobs {
			if job.stopped || job.interval <= 0 || job.next.After(target) {
				continue
			}
			if due == nil || job.next.Before(due.next) {
				due = job
			}
		}
		if due == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		f.mu.Unlock()

		fn()
	}
}

// Active reports how many schedules have not been stopped.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, job := range f.jobs {
		if !job.stopped {
			count++
		}
	}
	return count
}
