package editor

import (
	"context"
	"sync"
)

// Runner executes transformation work on background goroutines while
// delivering every completion to a single foreground loop. Workers never
// touch shared state; they only push a closure onto the completions
// channel.
type Runner struct {
	completions chan func()
	wg          sync.WaitGroup
}

// NewRunner creates a task runner.
func NewRunner() *Runner {
	return &Runner{completions: make(chan func(), 64)}
}

// Submit runs work on its own goroutine and queues done with the result.
func (r *Runner) Submit(work func() (string, error), done func(result string, err error)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		result, err := work()
		r.completions <- func() { done(result, err) }
	}()
}

// RunForeground drains completions until ctx is cancelled. All completion
// callbacks run on the calling goroutine, which is what makes note and
// rule-store mutation race-free without further locking.
func (r *Runner) RunForeground(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.completions:
			fn()
		}
	}
}

// Wait processes completions on the calling goroutine until all submitted
// work has finished, then drains what is still queued. Shutdown and tests
// use it in place of a long-running RunForeground. Draining while waiting
// keeps workers from blocking on a full completions channel.
func (r *Runner) Wait() {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	for {
		select {
		case fn := <-r.completions:
			fn()
		case <-done:
			for {
				select {
				case fn := <-r.completions:
					fn()
				default:
					return
				}
			}
		}
	}
}
