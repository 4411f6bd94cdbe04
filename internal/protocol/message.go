// Package protocol implements the binary frame format shared by the cursor
// server and its browser clients.
//
// A frame is the message type as a u32 followed by the payload as a u64
// length-prefixed byte string. Payload records concatenate their fields in
// declaration order, little-endian, with strings prefixed by a u64 length.
package protocol

import "strconv"

// MessageType is the ordinal of a frame kind. The order is part of the wire
// format and must not change.
type MessageType uint32

const (
	Auth MessageType = iota
	UserLocation
	MyLocation
	Spawn
	Despawn
)

func (t MessageType) String() string {
	switch t {
	case Auth:
		return "Auth"
	case UserLocation:
		return "UserLocation"
	case MyLocation:
		return "MyLocation"
	case Spawn:
		return "Spawn"
	case Despawn:
		return "Despawn"
	default:
		return "MessageType(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}

func (t MessageType) IsValid() bool {
	return t <= Despawn
}

// Payload is implemented by every record that can travel inside a Message.
type Payload interface {
	Encode() []byte
}

// Message is one frame: its kind plus the independently encoded record.
type Message struct {
	Type MessageType
	Data []byte
}

func NewMessage(t MessageType, p Payload) Message {
	return Message{Type: t, Data: p.Encode()}
}

func (m Message) Encode() []byte {
	e := encoder{buf: make([]byte, 0, 12+len(m.Data))}
	e.uint32(uint32(m.Type))
	e.bytes(m.Data)
	return e.buf
}

func DecodeMessage(b []byte) (Message, error) {
	d := decoder{buf: b}
	kind, err := d.uint32()
	if err != nil {
		return Message{}, decodeError("message", err)
	}
	t := MessageType(kind)
	if !t.IsValid() {
		return Message{}, decodeError("message", ErrUnknownMessageType)
	}
	data, err := d.bytes()
	if err != nil {
		return Message{}, decodeError("message", err)
	}
	return Message{Type: t, Data: data}, nil
}

// AuthRequest is the first frame a client sends: its self-chosen id and the
// page it is looking at.
type AuthRequest struct {
	ID  uint64
	URL string
}

func (a AuthRequest) Encode() []byte {
	e := encoder{buf: make([]byte, 0, 16+len(a.URL))}
	e.uint64(a.ID)
	e.string(a.URL)
	return e.buf
}

func DecodeAuth(b []byte) (AuthRequest, error) {
	d := decoder{buf: b}
	id, err := d.uint64()
	if err != nil {
		return AuthRequest{}, decodeError("auth", err)
	}
	url, err := d.string()
	if err != nil {
		return AuthRequest{}, decodeError("auth", err)
	}
	return AuthRequest{ID: id, URL: url}, nil
}

// Location is a cursor position. Coordinates are fractions of the viewport.
type Location struct {
	ID uint64
	X  float32
	Y  float32
}

func (l Location) Encode() []byte {
	e := encoder{buf: make([]byte, 0, 16)}
	e.uint64(l.ID)
	e.float32(l.X)
	e.float32(l.Y)
	return e.buf
}

func DecodeLocation(b []byte) (Location, error) {
	d := decoder{buf: b}
	id, err := d.uint64()
	if err != nil {
		return Location{}, decodeError("location", err)
	}
	x, err := d.float32()
	if err != nil {
		return Location{}, decodeError("location", err)
	}
	y, err := d.float32()
	if err != nil {
		return Location{}, decodeError("location", err)
	}
	return Location{ID: id, X: x, Y: y}, nil
}

type SpawnRecord struct {
	ID   uint64
	Icon string
}

func (s SpawnRecord) Encode() []byte {
	e := encoder{buf: make([]byte, 0, 16+len(s.Icon))}
	e.uint64(s.ID)
	e.string(s.Icon)
	return e.buf
}

func DecodeSpawn(b []byte) (SpawnRecord, error) {
	d := decoder{buf: b}
	id, err := d.uint64()
	if err != nil {
		return SpawnRecord{}, decodeError("spawn", err)
	}
	icon, err := d.string()
	if err != nil {
		return SpawnRecord{}, decodeError("spawn", err)
	}
	return SpawnRecord{ID: id, Icon: icon}, nil
}

type DespawnRecord struct {
	ID uint64
}

func (r DespawnRecord) Encode() []byte {
	e := encoder{buf: make([]byte, 0, 8)}
	e.uint64(r.ID)
	return e.buf
}

func DecodeDespawn(b []byte) (DespawnRecord, error) {
	d := decoder{buf: b}
	id, err := d.uint64()
	if err != nil {
		return DespawnRecord{}, decodeError("despawn", err)
	}
	return DespawnRecord{ID: id}, nil
}
