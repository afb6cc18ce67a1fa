package clock

import (
	"sync"
	"time"
)

// Scheduler runs fn once right away and then every interval until the
// returned stop func is called. Runs of one schedule never overlap.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// Real schedules on wall-clock time.
type Real struct{}

func (Real) Every(interval time.Duration, fn func()) func() {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		fn()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			select {
			case <-done:
				return
			default:
			}
			fn()
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}
