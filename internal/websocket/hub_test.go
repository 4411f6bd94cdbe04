package websocket

import (
	"context"
	"reflect"
	"sync"
	"testing"
)

func TestJoinExchangesSpawns(t *testing.T) {
	hub := NewHub(DefaultOptions(), nil)

	ob1 := hub.Join("https://a/", 1)
	if got := ob1.Drain(); len(got) != 0 {
		t.Fatalf("first member got %v, want nothing", got)
	}

	ob2 := hub.Join("https://a/", 2)
	if got, want := ob1.Drain(), []Event{NewSpawnEntity(2, "https://a/")}; !reflect.DeepEqual(got, want) {
		t.Fatalf("existing member got %v, want %v", got, want)
	}
	if got, want := ob2.Drain(), []Event{NewSpawnEntity(1, PlaceholderIcon)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("newcomer got %v, want %v", got, want)
	}
}

func TestJoinFanOutCounts(t *testing.T) {
	hub := NewHub(DefaultOptions(), nil)
	const n = 5

	outboxes := make([]*Outbox, 0, n)
	received := make([]int, n)
	for k := 0; k < n; k++ {
		for i, ob := range outboxes {
			received[i] += len(ob.Drain())
		}
		ob := hub.Join("room", uint64(k+1))
		if got := len(ob.Drain()); got != k {
			t.Fatalf("member %d got %d spawns on join, want %d", k+1, got, k)
		}
		outboxes = append(outboxes, ob)
	}
	for i, ob := range outboxes {
		received[i] += len(ob.Drain())
		if want := n - 1 - i; received[i] != want {
			t.Fatalf("member %d got %d later spawns, want %d", i+1, received[i], want)
		}
	}
}

func TestLeaveRequiresOwningOutbox(t *testing.T) {
	hub := NewHub(DefaultOptions(), nil)
	old := hub.Join("room", 7)
	newer := hub.Join("room", 7)

	if hub.Leave("room", 7, old) {
		t.Fatal("stale outbox removed the newer connection")
	}
	if got := hub.Rooms(); got[0].Members != 1 {
		t.Fatalf("members = %d, want 1", got[0].Members)
	}
	if !hub.Leave("room", 7, newer) {
		t.Fatal("owning outbox could not leave")
	}
	if hub.Leave("room", 7, newer) {
		t.Fatal("second leave reported a removal")
	}
	if hub.Leave("missing", 7, nil) {
		t.Fatal("leave on unknown room reported a removal")
	}
}

func TestBroadcastEchoesAndIsolatesRooms(t *testing.T) {
	hub := NewHub(DefaultOptions(), nil)
	a1 := hub.Join("a", 1)
	a2 := hub.Join("a", 2)
	b1 := hub.Join("b", 1)
	a1.Drain()
	a2.Drain()

	ev := NewLocationUpdate(1, 3, 4)
	if n := hub.Broadcast("a", ev); n != 2 {
		t.Fatalf("delivered = %d, want 2", n)
	}
	for name, ob := range map[string]*Outbox{"a1": a1, "a2": a2} {
		if got := ob.Drain(); !reflect.DeepEqual(got, []Event{ev}) {
			t.Fatalf("%s got %v", name, got)
		}
	}
	if got := b1.Drain(); len(got) != 0 {
		t.Fatalf("other room received %v", got)
	}

	if n := hub.BroadcastExcept("a", NewDespawnEntity(9), 1); n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}
	if a1.Len() != 0 || a2.Len() != 1 {
		t.Fatalf("except broadcast reached excluded member: a1=%d a2=%d", a1.Len(), a2.Len())
	}
	if n := hub.Broadcast("missing", ev); n != 0 {
		t.Fatalf("broadcast to unknown room delivered %d", n)
	}
}

func TestRoomsListsEmptyRoomsSorted(t *testing.T) {
	hub := NewHub(DefaultOptions(), nil)
	obB := hub.Join("b", 1)
	hub.Join("a", 1)
	hub.Join("a", 2)
	hub.Leave("b", 1, obB)

	want := []RoomRes{{Key: "a", Members: 2}, {Key: "b", Members: 0}}
	if got := hub.Rooms(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Rooms() = %+v, want %+v", got, want)
	}
}

func TestShutdownWithoutSessions(t *testing.T) {
	hub := NewHub(DefaultOptions(), nil)
	if err := hub.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestOptionsSanitize(t *testing.T) {
	hub := NewHub(Options{OutboxLimit: 0}, nil)
	opts := hub.Options()
	def := DefaultOptions()
	if opts.FlushInterval != def.FlushInterval || opts.MaxMessageSize != def.MaxMessageSize {
		t.Fatalf("zero options not defaulted: %+v", opts)
	}
	if opts.OutboxLimit != 0 {
		t.Fatalf("outbox limit = %d, want 0 (unbounded)", opts.OutboxLimit)
	}
}

func TestConcurrentJoinSharesOneRoom(t *testing.T) {
	const n = 32

	for round := 0; round < 20; round++ {
		hub := NewHub(Options{OutboxLimit: 0}, nil)
		outboxes := make([]*Outbox, n)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				outboxes[i] = hub.Join("k", uint64(i+1))
			}(i)
		}
		close(start)
		wg.Wait()

		rooms := hub.Rooms()
		if len(rooms) != 1 || rooms[0].Members != n {
			t.Fatalf("round %d: rooms = %+v, want one room with %d members", round, rooms, n)
		}

		for i, ob := range outboxes {
			self := uint64(i + 1)
			seen := make(map[uint64]int)
			for _, ev := range ob.Drain() {
				spawn, ok := ev.(SpawnEntity)
				if !ok {
					t.Fatalf("round %d: member %d got %T, want SpawnEntity", round, self, ev)
				}
				seen[spawn.ID]++
			}
			if len(seen) != n-1 {
				t.Fatalf("round %d: member %d saw %d peers, want %d", round, self, len(seen), n-1)
			}
			for id, count := range seen {
				if id == self || count != 1 {
					t.Fatalf("round %d: member %d saw id %d %d times", round, self, id, count)
				}
			}
		}
	}
}

func TestConcurrentBroadcastAndLeave(t *testing.T) {
	const (
		members      = 16
		broadcasters = 4
		perSender    = 50
	)
	hub := NewHub(Options{OutboxLimit: 0}, nil)
	outboxes := make([]*Outbox, members)
	for i := range outboxes {
		outboxes[i] = hub.Join("k", uint64(i+1))
	}
	for _, ob := range outboxes {
		ob.Drain()
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for b := 0; b < broadcasters; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			<-start
			for i := 0; i < perSender; i++ {
				hub.Broadcast("k", NewLocationUpdate(uint64(b+1), float32(i), 0))
			}
		}(b)
	}
	// Odd ids leave while the broadcasts are in flight.
	for i := 0; i < members; i += 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if !hub.Leave("k", uint64(i+1), outboxes[i]) {
				t.Errorf("leave of member %d failed", i+1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if got := hub.Rooms(); len(got) != 1 || got[0].Members != members/2 {
		t.Fatalf("rooms = %+v, want %d members left", got, members/2)
	}
	for i, ob := range outboxes {
		got := len(ob.Drain())
		if i%2 == 1 && got != broadcasters*perSender {
			t.Fatalf("staying member %d got %d events, want %d", i+1, got, broadcasters*perSender)
		}
		if i%2 == 0 && got > broadcasters*perSender {
			t.Fatalf("leaving member %d got %d events", i+1, got)
		}
	}
}
