package jobs

import (
	"sync"
	"time"
)

// Queue holds batch jobs in arrival order. Workers claim pending jobs
// one at a time; claiming and status transitions are atomic under the
// queue lock.
type Queue struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string // Job IDs in order of creation
}

// NewQueue creates an empty job queue.
func NewQueue() *Queue {
	return &Queue{
		jobs:  make(map[string]*Job),
		order: make([]string, 0),
	}
}

// Add enqueues a new pending job for the given input file.
func (q *Queue) Add(inputPath string, inputSize int64) *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := &Job{
		ID:        generateID(),
		InputPath: inputPath,
		InputSize: inputSize,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	return job
}

// Get returns a copy of the job with the given ID.
func (q *Queue) Get(id string) (*Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, jobNotFoundError(id)
	}
	cp := *job
	return &cp, nil
}

// All returns copies of every job in creation order.
func (q *Queue) All() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*Job, 0, len(q.order))
	for _, id := range q.order {
		cp := *q.jobs[id]
		out = append(out, &cp)
	}
	return out
}

// ClaimNext marks the first pending job as running and returns a copy.
// Returns nil when no pending job remains.
func (q *Queue) ClaimNext() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range q.order {
		job := q.jobs[id]
		if job.Status != StatusPending {
			continue
		}
		job.Status = StatusRunning
		job.StartedAt = time.Now()
		cp := *job
		return &cp
	}
	return nil
}

// Complete records a successful job with its output artifact.
func (q *Queue) Complete(id, outputPath string, outputSize int64, strategy string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return jobNotFoundError(id)
	}
	job.Status = StatusComplete
	job.OutputPath = outputPath
	job.OutputSize = outputSize
	job.SpaceSaved = job.InputSize - outputSize
	job.Strategy = strategy
	job.CompletedAt = time.Now()
	return nil
}

// Fail records a failed job with its error message.
func (q *Queue) Fail(id, msg string) error {
	return q.finish(id, StatusFailed, msg)
}

// Cancel marks a non-terminal job as cancelled.
func (q *Queue) Cancel(id string) error {
	return q.finish(id, StatusCancelled, "")
}

func (q *Queue) finish(id string, status Status, msg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return jobNotFoundError(id)
	}
	if job.IsTerminal() {
		return nil
	}
	job.Status = status
	job.Error = msg
	job.CompletedAt = time.Now()
	return nil
}

// Stats summarizes the queue by status.
type Stats struct {
	Pending    int
	Running    int
	Complete   int
	Failed     int
	Cancelled  int
	Total      int
	SpaceSaved int64
}

// Stats returns current queue statistics.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var s Stats
	for _, job := range q.jobs {
		s.Total++
		switch job.Status {
		case StatusPending:
			s.Pending++
		case StatusRunning:
			s.Running++
		case StatusComplete:
			s.Complete++
			s.SpaceSaved += job.SpaceSaved
		case StatusFailed:
			s.Failed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}
