// Package workerpool runs queued jobs on a fixed number of goroutines.
package workerpool

import (
	"sync"
)

// Job is a unit of work submitted to a Pool.
type Job func() error

// Pool executes jobs on a fixed number of worker goroutines. Jobs added after
// Stop are dropped; Wait blocks until all accepted jobs have finished.
type Pool struct {
	jobs chan Job

	wg      sync.WaitGroup
	stop    chan struct{}
	stopped sync.Once

	m    sync.Mutex
	errs []error
}

// New creates a Pool with the given number of workers.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan Job),
		stop: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.stop:
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := job(); err != nil {
				p.m.Lock()
				p.errs = append(p.errs, err)
				p.m.Unlock()
			}
			p.wg.Done()
		}
	}
}

// Add queues jobs for execution.
func (p *Pool) Add(jobs []Job) {
	for _, job := range jobs {
		p.wg.Add(1)
		go func(j Job) {
			select {
			case p.jobs <- j:
			case <-p.stop:
				p.wg.Done()
			}
		}(job)
	}
}

// Wait blocks until all accepted jobs have completed.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Stop prevents queued jobs from starting. Jobs already running finish normally.
func (p *Pool) Stop() {
	p.stopped.Do(func() {
		close(p.stop)
	})
}

// Errs returns the errors returned by completed jobs.
func (p *Pool) Errs() []error {
	p.m.Lock()
	defer p.m.Unlock()
	errs := make([]error, len(p.errs))
	copy(errs, p.errs)
	return errs
}
