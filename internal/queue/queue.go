package queue

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Job struct {
	Fn   func() error
	Errc chan error
}

type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

func NewRequestQueueManager(queueSize int, maxWorkers int) *RequestQueueManager {
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			log.Debug().Str("module", "queue").Int("worker", workerID).Msg("worker started")
			for job := range rqm.JobQueue {
				err := job.Fn()
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			log.Debug().Str("module", "queue").Int("worker", workerID).Msg("worker stopped")
		}(i)
	}
}

// EnqueueJob blocks until a worker slot frees up. It reports false once the
// manager has been shut down.
func (rqm *RequestQueueManager) EnqueueJob(job Job) bool {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return false
	}
	rqm.JobQueue <- job
	return true
}

// TryEnqueueJob never blocks: a full queue or a stopped manager rejects the job.
func (rqm *RequestQueueManager) TryEnqueueJob(job Job) bool {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return false
	}
	select {
	case rqm.JobQueue <- job:
		return true
	default:
		return false
	}
}

func (rqm *RequestQueueManager) Depth() int {
	return len(rqm.JobQueue)
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (rqm *RequestQueueManager) Shutdown() {
	rqm.mu.Lock()
	if rqm.closed {
		rqm.mu.Unlock()
		return
	}
	rqm.closed = true
	close(rqm.JobQueue)
	rqm.mu.Unlock()
	rqm.wg.Wait()
}
