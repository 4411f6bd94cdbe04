package websocket

import (
	"fmt"

	"github.com/colathro/multiplayer-web/internal/protocol"
)

// PlaceholderIcon is the icon a newly joined client receives for peers that
// were already in the room. The registry does not keep per-member icons.
const PlaceholderIcon = "test"

// Event is an outbound notification queued for one connection. The set of
// implementations is closed; encodeEvent is the only place that switches on it.
type Event interface {
	isEvent()
}

type LocationUpdate struct {
	protocol.Location
}

type SpawnEntity struct {
	protocol.SpawnRecord
}

type DespawnEntity struct {
	protocol.DespawnRecord
}

func (LocationUpdate) isEvent() {}
func (SpawnEntity) isEvent()    {}
func (DespawnEntity) isEvent()  {}

func NewLocationUpdate(id uint64, x, y float32) LocationUpdate {
	return LocationUpdate{protocol.Location{ID: id, X: x, Y: y}}
}

func NewSpawnEntity(id uint64, icon string) SpawnEntity {
	return SpawnEntity{protocol.SpawnRecord{ID: id, Icon: icon}}
}

func NewDespawnEntity(id uint64) DespawnEntity {
	return DespawnEntity{protocol.DespawnRecord{ID: id}}
}

func encodeEvent(ev Event) ([]byte, error) {
	var msg protocol.Message
	switch e := ev.(type) {
	case LocationUpdate:
		msg = protocol.NewMessage(protocol.UserLocation, e.Location)
	case SpawnEntity:
		msg = protocol.NewMessage(protocol.Spawn, e.SpawnRecord)
	case DespawnEntity:
		msg = protocol.NewMessage(protocol.Despawn, e.DespawnRecord)
	default:
		return nil, fmt.Errorf("websocket: unknown event %T", ev)
	}
	return msg.Encode(), nil
}

func eventKind(ev Event) string {
	switch ev.(type) {
	case LocationUpdate:
		return "location"
	case SpawnEntity:
		return "spawn"
	case DespawnEntity:
		return "despawn"
	default:
		return "unknown"
	}
}

type RoomRes struct {
	Key     string `json:"key"`
	Members int    `json:"members"`
}
