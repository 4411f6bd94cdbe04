// Package presence fans join/leave notifications out to optional external
// sinks (a Redis channel, a DynamoDB ledger). Sinks run on the worker queue
// so a slow backend never stalls a websocket session.
package presence

import (
	"context"
	"time"

	"github.com/colathro/multiplayer-web/internal/model"
	"github.com/colathro/multiplayer-web/internal/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventJoin  EventType = model.PresenceEventTypeJoin
	EventLeave EventType = model.PresenceEventTypeLeave
)

type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Room         string    `json:"room"`
	ClientID     uint64    `json:"clientId"`
	ConnectionID string    `json:"connectionId"`
	At           time.Time `json:"at"`
}

type Sink interface {
	Name() string
	Record(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	queue   *queue.RequestQueueManager
	sinks   []Sink
	timeout time.Duration
	now     func() time.Time
}

// NewDispatcher returns a dispatcher that records every event on each sink.
// With no sinks Publish is a no-op.
func NewDispatcher(q *queue.RequestQueueManager, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		queue:   q,
		sinks:   sinks,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

func (d *Dispatcher) Publish(ev Event) {
	if d == nil || len(d.sinks) == 0 {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = d.now().UTC()
	}

	for _, sink := range d.sinks {
		sink := sink
		job := queue.Job{Fn: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := sink.Record(ctx, ev); err != nil {
				log.Warn().Err(err).Str("module", "presence").Str("sink", sink.Name()).
					Str("room", ev.Room).Str("type", string(ev.Type)).Msg("presence sink failed")
				return err
			}
			return nil
		}}
		if !d.queue.TryEnqueueJob(job) {
			log.Warn().Str("module", "presence").Str("sink", sink.Name()).
				Str("room", ev.Room).Msg("presence queue full, event dropped")
		}
	}
}
