// Package workerpool runs small CPU-bound jobs, such as computing the
// carrying capacity of a cover text across every codec, on a shared set
// of workers. Jobs are grouped into rooms so one batch can be collected
// without seeing another batch's results.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
)

type Pool struct {
	config    Config
	taskQueue chan task
	closeOnce sync.Once
}

type Config struct {
	WorkerCount  int
	GlobalBuffer int
}

type task struct {
	run  func() interface{}
	room *Room
}

// Room collects the results of one batch of jobs.
type Room struct {
	resultChan chan interface{}
	wg         sync.WaitGroup
	pool       *Pool
}

// New starts the workers. A zero Config picks sensible defaults.
func New(config Config) *Pool {
	if config.WorkerCount < 1 {
		config.WorkerCount = runtime.NumCPU()
	}
	if config.GlobalBuffer < 1 {
		config.GlobalBuffer = 1024
	}

	p := &Pool{
		config:    config,
		taskQueue: make(chan task, config.GlobalBuffer),
	}
	for i := 0; i < config.WorkerCount; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for t := range p.taskQueue {
		t.room.resultChan <- t.run()
		t.room.wg.Done()
	}
}

// Close stops the workers once all queued tasks drain. Submitting after
// Close panics, as with any closed channel.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.taskQueue) })
}

// NewRoom opens a batch able to buffer up to size results.
func (p *Pool) NewRoom(size int) *Room {
	return &Room{
		resultChan: make(chan interface{}, size),
		pool:       p,
	}
}

// Submit queues one job, blocking if the global queue is full.
func (r *Room) Submit(job func() interface{}) {
	r.wg.Add(1)
	r.pool.taskQueue <- task{run: job, room: r}
}

// TrySubmit queues one job without blocking.
func (r *Room) TrySubmit(job func() interface{}) error {
	if len(r.pool.taskQueue) == cap(r.pool.taskQueue) {
		return fmt.Errorf("workerpool: global queue full (%d)", cap(r.pool.taskQueue))
	}
	if len(r.resultChan) == cap(r.resultChan) {
		return fmt.Errorf("workerpool: room buffer full (%d)", cap(r.resultChan))
	}
	r.Submit(job)
	return nil
}

// Collect waits for every submitted job and returns all results. The
// room is spent afterwards.
func (r *Room) Collect() []interface{} {
	go func() {
		r.wg.Wait()
		close(r.resultChan)
	}()

	results := make([]interface{}, 0, cap(r.resultChan))
	for result := range r.resultChan {
		results = append(results, result)
	}
	return results
}
