package websocket

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

var errOutboxOverflow = errors.New("websocket: outbox overflowed")

// flushLoop drains ob every flush interval and writes each event as its own
// binary frame. It is the only writer of data frames on the connection.
func (s *Session) flushLoop(ob *Outbox) {
	ticker := time.NewTicker(s.hub.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.flush(ob); err != nil {
				if errors.Is(err, errOutboxOverflow) {
					incOverflowDisconnects()
					s.mlog.Warn().Int("limit", s.hub.opts.OutboxLimit).Msg("outbox overflowed, disconnecting slow client")
				} else {
					s.mlog.Info().Err(err).Msg("flush failed, closing connection")
				}
				s.closeConn()
				return
			}
		}
	}
}

func (s *Session) flush(ob *Outbox) error {
	if ob.Overflowed() {
		return errOutboxOverflow
	}

	events := ob.Drain()
	written := 0
	defer func() { addWritten(written) }()

	for _, ev := range events {
		frame, err := encodeEvent(ev)
		if err != nil {
			s.mlog.Error().Err(err).Msg("skipping unencodable event")
			continue
		}
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.opts.WriteTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
		if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return fmt.Errorf("write %s frame: %w", eventKind(ev), err)
		}
		written++
	}
	return nil
}
