package main

import (
	"testing"
	"time"

	"github.com/colathro/multiplayer-web/internal/env"
	"github.com/colathro/multiplayer-web/internal/queue"
)

func TestSaturatedPresenceQueueDoesNotBlockHTTP(t *testing.T) {
	cfg := env.DefaultConfig()
	cfg.QueueSize = 1
	cfg.QueueWorkers = 1
	httpQueue, presenceQueue := newQueues(cfg)
	defer httpQueue.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})
	presenceQueue.EnqueueJob(queue.Job{Fn: func() error {
		close(started)
		<-release
		return nil
	}})
	<-started
	presenceQueue.TryEnqueueJob(queue.Job{Fn: func() error { return nil }})
	if presenceQueue.TryEnqueueJob(queue.Job{Fn: func() error { return nil }}) {
		t.Fatal("presence queue should be saturated")
	}

	errc := make(chan error, 1)
	if !httpQueue.EnqueueJob(queue.Job{Fn: func() error { return nil }, Errc: errc}) {
		t.Fatal("http queue rejected a job")
	}
	select {
	case <-errc:
	case <-time.After(3 * time.Second):
		t.Fatal("http job stalled behind presence work")
	}

	close(release)
	presenceQueue.Shutdown()
}
