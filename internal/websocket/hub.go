package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/colathro/multiplayer-web/internal/presence"
	"github.com/rs/zerolog/log"
)

type Options struct {
	FlushInterval     time.Duration
	KeepAliveInterval time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	OutboxLimit       int
	AllowedOrigins    []string
}

func DefaultOptions() Options {
	return Options{
		FlushInterval:     10 * time.Millisecond,
		KeepAliveInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxMessageSize:    4096,
		OutboxLimit:       4096,
		AllowedOrigins:    []string{"*"},
	}
}

func (o Options) sanitize() Options {
	def := DefaultOptions()
	if o.FlushInterval <= 0 {
		o.FlushInterval = def.FlushInterval
	}
	if o.KeepAliveInterval <= 0 {
		o.KeepAliveInterval = def.KeepAliveInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = def.WriteTimeout
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = def.MaxMessageSize
	}
	return o
}

type PresencePublisher interface {
	Publish(ev presence.Event)
}

// Hub is the room registry: room key -> Room -> client id -> Outbox.
// Lock order is Hub.mu before Room.mu. Neither lock is held during socket I/O.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	opts     Options
	presence PresencePublisher

	sessionsMu sync.Mutex
	sessions   map[*Session]struct{}
	wg         sync.WaitGroup
}

func NewHub(opts Options, notifier PresencePublisher) *Hub {
	return &Hub{
		rooms:    make(map[string]*Room),
		opts:     opts.sanitize(),
		presence: notifier,
		sessions: make(map[*Session]struct{}),
	}
}

func (h *Hub) Options() Options {
	return h.opts
}

func (h *Hub) lookupRoom(key string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[key]
}

func (h *Hub) getOrCreateRoom(key string) *Room {
	if room := h.lookupRoom(key); room != nil {
		return room
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[key]; ok {
		return room
	}
	room := newRoom(key)
	h.rooms[key] = room
	setRooms(len(h.rooms))
	log.Debug().Str("module", "hub").Str("room", key).Msg("room created")
	return room
}

// Join adds id to the room for key, creating the room on first use, and runs
// the join protocol: existing members are told about id and id is told about
// every existing member. The returned outbox belongs to the caller.
func (h *Hub) Join(key string, id uint64) *Outbox {
	room := h.getOrCreateRoom(key)
	ob := newOutbox(h.opts.OutboxLimit)

	peers, rejected, replaced := room.join(id, ob)
	if replaced {
		log.Warn().Str("module", "hub").Str("room", key).Uint64("client_id", id).
			Msg("client id already present in room, previous entry replaced")
	} else {
		incMembers()
	}
	addQueued("spawn", 2*peers-rejected)
	addRejected(rejected)
	return ob
}

// Leave removes id from the room for key. It is a no-op when the room or the
// member is gone. A non-nil ob restricts removal to that exact outbox: unlike
// removal by id alone, a connection whose id was taken over by a newer one
// leaves nothing behind and its caller sends no despawn.
func (h *Hub) Leave(key string, id uint64, ob *Outbox) bool {
	room := h.lookupRoom(key)
	if room == nil {
		log.Debug().Str("module", "hub").Str("room", key).Msg("leave on unknown room")
		return false
	}
	if !room.leave(id, ob) {
		return false
	}
	decMembers()
	return true
}

// Broadcast queues ev for every member of the room, the originator included.
func (h *Hub) Broadcast(key string, ev Event) int {
	return h.broadcast(key, ev, 0, false)
}

// BroadcastExcept queues ev for every member except id.
func (h *Hub) BroadcastExcept(key string, ev Event, id uint64) int {
	return h.broadcast(key, ev, id, true)
}

func (h *Hub) broadcast(key string, ev Event, exclude uint64, hasExclude bool) int {
	room := h.lookupRoom(key)
	if room == nil {
		log.Debug().Str("module", "hub").Str("room", key).Msg("broadcast to unknown room")
		return 0
	}

	delivered, rejected := 0, 0
	for _, m := range room.snapshot() {
		if hasExclude && m.id == exclude {
			continue
		}
		if m.outbox.Push(ev) {
			delivered++
		} else {
			rejected++
		}
	}
	addQueued(eventKind(ev), delivered)
	addRejected(rejected)
	return delivered
}

// Rooms lists every room, empty ones included, sorted by key.
func (h *Hub) Rooms() []RoomRes {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	out := make([]RoomRes, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomRes{Key: room.Key(), Members: room.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (h *Hub) publishPresence(ev presence.Event) {
	if h.presence != nil {
		h.presence.Publish(ev)
	}
}

func (h *Hub) track(s *Session) {
	h.sessionsMu.Lock()
	h.sessions[s] = struct{}{}
	h.sessionsMu.Unlock()
	incConnections()
}

func (h *Hub) untrack(s *Session) {
	h.sessionsMu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	h.sessionsMu.Unlock()
	if ok {
		decConnections()
	}
}

// Shutdown closes every open connection and waits for their goroutines to
// finish cleanup, or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.sessionsMu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessionsMu.Unlock()

	log.Info().Str("module", "hub").Int("sessions", len(sessions)).Msg("closing websocket sessions")
	for _, s := range sessions {
		s.closeConn()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
