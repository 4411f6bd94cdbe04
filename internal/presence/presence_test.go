package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/colathro/multiplayer-web/internal/database"
	"github.com/colathro/multiplayer-web/internal/model"
	"github.com/colathro/multiplayer-web/internal/queue"
	"github.com/go-redis/redis/v8"
)

var fixedTime = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	got    chan Event
	err    error
}

func newMemorySink() *memorySink {
	return &memorySink{got: make(chan Event, 16)}
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Record(ctx context.Context, ev Event) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	m.got <- ev
	return m.err
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for presence event")
		return Event{}
	}
}

func TestDispatcherFillsDefaultsAndFansOut(t *testing.T) {
	q := queue.NewRequestQueueManager(8, 2)
	t.Cleanup(q.Shutdown)

	a, b := newMemorySink(), newMemorySink()
	b.err = errors.New("sink down")
	d := NewDispatcher(q, a, b)
	d.now = func() time.Time { return fixedTime }

	d.Publish(Event{Type: EventJoin, Room: "a", ClientID: 1, ConnectionID: "c1"})

	got := waitEvent(t, a.got)
	if got.ID == "" {
		t.Fatal("expected generated event id")
	}
	if !got.At.Equal(fixedTime) {
		t.Fatalf("at = %s, want %s", got.At, fixedTime)
	}
	if other := waitEvent(t, b.got); other.ID != got.ID {
		t.Fatalf("sinks saw different ids: %q vs %q", got.ID, other.ID)
	}
}

func TestDispatcherWithoutSinksIsNoop(t *testing.T) {
	var d *Dispatcher
	d.Publish(Event{Type: EventLeave})

	NewDispatcher(nil).Publish(Event{Type: EventLeave})
}

func TestDispatcherDropsWhenQueueStopped(t *testing.T) {
	q := queue.NewRequestQueueManager(1, 1)
	q.Shutdown()

	sink := newMemorySink()
	NewDispatcher(q, sink).Publish(Event{Type: EventJoin, Room: "a"})

	select {
	case ev := <-sink.got:
		t.Fatalf("unexpected event recorded after shutdown: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

type fakePublisher struct {
	channel string
	message interface{}
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	return redis.NewIntResult(1, f.err)
}

func TestRedisSinkPublishesJSONOnRoomChannel(t *testing.T) {
	pub := &fakePublisher{}
	sink := &RedisSink{client: pub}

	ev := Event{ID: "e1", Type: EventJoin, Room: "example.com", ClientID: 9, ConnectionID: "c9", At: fixedTime}
	if err := sink.Record(context.Background(), ev); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if pub.channel != "presence:example.com" {
		t.Fatalf("channel = %q", pub.channel)
	}

	var decoded Event
	if err := json.Unmarshal([]byte(pub.message.(string)), &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.ClientID != 9 || decoded.Type != EventJoin || !decoded.At.Equal(fixedTime) {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestRedisSinkWrapsPublishError(t *testing.T) {
	cause := errors.New("connection refused")
	sink := &RedisSink{client: &fakePublisher{err: cause}}

	err := sink.Record(context.Background(), Event{Room: "a"})
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped %v", err, cause)
	}
}

type fakePutter struct {
	table   string
	item    interface{}
	sortKey string
	err     error
}

func (f *fakePutter) AppendItem(ctx context.Context, tableName string, item interface{}, sortKeyAttr string) error {
	f.table = tableName
	f.item = item
	f.sortKey = sortKeyAttr
	return f.err
}

func TestLedgerSinkWritesPresenceItem(t *testing.T) {
	db := &fakePutter{}
	sink := NewLedgerSink(db, "Presence")

	ev := Event{ID: "e2", Type: EventLeave, Room: "example.com", ClientID: 3, ConnectionID: "c3", At: fixedTime}
	if err := sink.Record(context.Background(), ev); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if db.table != "Presence" || db.sortKey != model.PresenceEventSortKey {
		t.Fatalf("table = %q, sort key = %q", db.table, db.sortKey)
	}

	item, ok := db.item.(model.PresenceEventItem)
	if !ok {
		t.Fatalf("item type = %T", db.item)
	}
	if item.SK != "2024-05-06T07:08:09Z#e2" || item.Type != model.PresenceEventTypeLeave || item.ClientID != 3 {
		t.Fatalf("item = %+v", item)
	}
}

func TestLedgerSinkWrapsError(t *testing.T) {
	cause := errors.New("throttled")
	sink := NewLedgerSink(&fakePutter{err: cause}, "Presence")

	if err := sink.Record(context.Background(), Event{At: fixedTime}); !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped %v", err, cause)
	}
}

func TestLedgerSinkTreatsDuplicateAsRecorded(t *testing.T) {
	sink := NewLedgerSink(&fakePutter{err: database.ErrItemExists}, "Presence")

	if err := sink.Record(context.Background(), Event{ID: "e1", At: fixedTime}); err != nil {
		t.Fatalf("duplicate append returned %v, want nil", err)
	}
}
