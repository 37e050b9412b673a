package concurrent

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrScheduleTimeout = errors.New("schedule error: timed out")
	ErrPoolClosed      = errors.New("schedule error: pool closed")
)

// Pool runs tasks on a bounded set of goroutines. Workers are spawned lazily up to size and exit
// once the pool is closed.
type Pool struct {
	sem  chan struct{}
	work chan func()
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewPool. spawn workers are started immediately.
func NewPool(size, queue, spawn int) *Pool {
	if size < 1 {
		size = 1
	}
	if spawn > size {
		spawn = size
	}
	p := &Pool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
		quit: make(chan struct{}),
	}
	for i := 0; i < spawn; i++ {
		p.sem <- struct{}{}
		p.wg.Add(1)
		go p.worker(func() {})
	}
	return p
}

// Schedule blocks until task is queued or picked up by a worker.
func (p *Pool) Schedule(task func()) error {
	return p.schedule(task, nil)
}

// ScheduleTimeout is Schedule that gives up after timeout.
func (p *Pool) ScheduleTimeout(timeout time.Duration, task func()) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	return p.schedule(task, t.C)
}

func (p *Pool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.quit:
		return ErrPoolClosed
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		p.wg.Add(1)
		go p.worker(task)
		return nil
	}
}

func (p *Pool) worker(task func()) {
	defer func() {
		<-p.sem
		p.wg.Done()
	}()

	task()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.work:
			task()
		}
	}
}

// Close stops the workers after their current task and waits for them.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
