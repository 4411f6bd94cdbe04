package websocket

import "sync"

// Room is the set of authenticated connections that reported the same page
// URL. It maps each client id to that client's outbox.
type Room struct {
	key     string
	mu      sync.RWMutex
	members map[uint64]*Outbox
}

type member struct {
	id     uint64
	outbox *Outbox
}

func newRoom(key string) *Room {
	return &Room{
		key:     key,
		members: make(map[uint64]*Outbox),
	}
}

func (r *Room) Key() string {
	return r.key
}

// join installs ob for id and exchanges spawn notices with every other
// member. Insert and notices happen in one critical section so a concurrent
// leave cannot slip a despawn in front of the matching spawn.
func (r *Room) join(id uint64, ob *Outbox) (peers int, rejected int, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for peerID, peer := range r.members {
		if peerID == id {
			replaced = true
			continue
		}
		peers++
		if !peer.Push(NewSpawnEntity(id, r.key)) {
			rejected++
		}
		if !ob.Push(NewSpawnEntity(peerID, PlaceholderIcon)) {
			rejected++
		}
	}
	r.members[id] = ob
	return peers, rejected, replaced
}

// leave removes id. When ob is non-nil the entry is only removed if it still
// belongs to that outbox, so a late leave cannot evict a newer connection
// that reused the id.
func (r *Room) leave(id uint64, ob *Outbox) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.members[id]
	if !ok || (ob != nil && cur != ob) {
		return false
	}
	delete(r.members, id)
	return true
}

func (r *Room) snapshot() []member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]member, 0, len(r.members))
	for id, ob := range r.members {
		out = append(out, member{id: id, outbox: ob})
	}
	return out
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
