// Package jobs runs long renders off the request path. A bounded queue
// feeds a single worker goroutine; callers poll job status by ID.
package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/san-kum/mirage/internal/lensing"
	"github.com/san-kum/mirage/internal/store"
)

var ErrQueueFull = errors.New("jobs: queue full")

type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateDone       State = "done"
	StateError      State = "error"
)

// Request describes one animated-GIF render job.
type Request struct {
	SourcePath string
	Opts       lensing.Options
	Width      int
	Frames     int
	Delay      int
}

// Status is the externally visible job record. Progress is monotonic in
// 0..100; Output names the export once the job is done.
type Status struct {
	ID       string `json:"job_id"`
	State    State  `json:"status"`
	Progress int    `json:"progress"`
	Output   string `json:"output,omitempty"`
	Err      string `json:"error,omitempty"`
}

type task struct {
	id  string
	req Request
}

// Queue owns the job registry and the worker. Enqueue never blocks: a
// saturated queue rejects with ErrQueueFull.
type Queue struct {
	exports *store.Store
	tasks   chan task

	mu   sync.RWMutex
	jobs map[string]Status

	wg sync.WaitGroup
}

func NewQueue(exports *store.Store, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 16
	}
	return &Queue{
		exports: exports,
		tasks:   make(chan task, capacity),
		jobs:    make(map[string]Status),
	}
}

// Start launches the worker goroutine. The context stops the worker between
// jobs and interrupts the frame loop of a running one.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.run(ctx)
}

// Stop closes the queue and waits for the worker to drain what was already
// accepted. Enqueue must not be called after Stop.
func (q *Queue) Stop() {
	close(q.tasks)
	q.wg.Wait()
}

// Enqueue registers a job and hands it to the worker. The returned ID is
// valid for Get immediately, even before the worker picks the job up.
func (q *Queue) Enqueue(req Request) (string, error) {
	id := uuid.NewString()

	q.mu.Lock()
	q.jobs[id] = Status{ID: id, State: StateQueued}
	q.mu.Unlock()

	select {
	case q.tasks <- task{id: id, req: req}:
		return id, nil
	default:
		q.mu.Lock()
		delete(q.jobs, id)
		q.mu.Unlock()
		return "", ErrQueueFull
	}
}

func (q *Queue) Get(id string) (Status, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	st, ok := q.jobs[id]
	return st, ok
}

func (q *Queue) set(id string, mutate func(*Status)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.jobs[id]
	if !ok {
		return
	}
	mutate(&st)
	q.jobs[id] = st
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case tk, ok := <-q.tasks:
			if !ok {
				return
			}
			q.process(ctx, tk)
		}
	}
}

// process runs one job to completion. Failures land in the job status;
// the worker itself never dies.
func (q *Queue) process(ctx context.Context, tk task) {
	q.set(tk.id, func(s *Status) {
		s.State = StateProcessing
	})

	name, err := q.renderGIF(ctx, tk)
	if err != nil {
		q.set(tk.id, func(s *Status) {
			s.State = StateError
			s.Err = err.Error()
		})
		return
	}

	q.set(tk.id, func(s *Status) {
		s.State = StateDone
		s.Progress = 100
		s.Output = name
	})
}
