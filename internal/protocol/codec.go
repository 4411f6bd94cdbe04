package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	ErrTruncated          = errors.New("protocol: truncated input")
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	ErrInvalidUTF8        = errors.New("protocol: string is not valid utf-8")
)

// DecodeError reports which record failed to decode. Callers drop the frame.
type DecodeError struct {
	Record string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s: %v", e.Record, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(record string, err error) error {
	return &DecodeError{Record: record, Err: err}
}

// encoder appends fixed-width little-endian fields. Variable length fields
// carry a u64 length prefix.
type encoder struct {
	buf []byte
}

func (e *encoder) uint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) uint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) float32(v float32) {
	e.uint32(math.Float32bits(v))
}

func (e *encoder) bytes(b []byte) {
	e.uint64(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) string(s string) {
	e.uint64(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// decoder walks a buffer; every read checks the remaining length first so
// hostile input can only ever produce ErrTruncated.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *decoder) uint32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) uint64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) float32() (float32, error) {
	bits, err := d.uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uint64()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.remaining()) {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out, nil
}

func (d *decoder) string() (string, error) {
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
