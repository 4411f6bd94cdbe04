package websocket

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/colathro/multiplayer-web/internal/presence"
	"github.com/colathro/multiplayer-web/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// wsConn is the subset of *websocket.Conn a session uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

// Session is the server side of one websocket. It starts unauthenticated,
// becomes authenticated on the first valid Auth frame and is closed when the
// socket goes away. All fields below done are owned by the read goroutine.
type Session struct {
	conn   wsConn
	hub    *Hub
	connID string
	addr   string
	log    zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
	connOnce  sync.Once

	authenticated bool
	clientID      uint64
	roomKey       string
	outbox        *Outbox
	// mlog adds room fields to log; set once before the flush loop starts.
	mlog zerolog.Logger
}

func newSession(conn wsConn, hub *Hub, addr string) *Session {
	connID := uuid.NewString()
	logger := log.With().Str("module", "session").Str("conn", connID).Str("addr", addr).Logger()
	return &Session{
		conn:   conn,
		hub:    hub,
		connID: connID,
		addr:   addr,
		log:    logger,
		mlog:   logger,
		done:   make(chan struct{}),
	}
}

// start registers the session with the hub and launches its read and
// keepalive goroutines. The flush goroutine starts on authentication.
func (s *Session) start() {
	s.hub.track(s)
	s.hub.wg.Add(2)
	go func() {
		defer s.hub.wg.Done()
		s.keepAlive()
	}()
	go func() {
		defer s.hub.wg.Done()
		s.readLoop()
	}()
}

func (s *Session) readLoop() {
	defer s.cleanup()

	s.conn.SetReadLimit(s.hub.opts.MaxMessageSize)
	s.log.Debug().Msg("connection opened")

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}
		if messageType != websocket.BinaryMessage {
			incIgnored("text")
			s.log.Info().Int("bytes", len(data)).Msg("non-binary frame ignored")
			continue
		}
		s.handleFrame(data)
	}
}

func (s *Session) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		s.log.Warn().Int64("limit", s.hub.opts.MaxMessageSize).Msg("frame exceeded read limit")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		s.log.Debug().Err(err).Msg("client closed connection")
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.log.Debug().Err(err).Msg("connection closed")
	default:
		s.log.Info().Err(err).Msg("read failed, closing connection")
	}
}

func (s *Session) handleFrame(data []byte) {
	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		incIgnored("decode")
		s.log.Debug().Err(err).Msg("dropping undecodable frame")
		return
	}

	switch msg.Type {
	case protocol.Auth:
		s.handleAuth(msg.Data)
	case protocol.MyLocation:
		s.handleMyLocation(msg.Data)
	default:
		incIgnored("server_only")
		s.log.Debug().Stringer("type", msg.Type).Msg("ignoring server-only frame")
	}
}

func (s *Session) handleAuth(data []byte) {
	if s.authenticated {
		incIgnored("reauth")
		return
	}

	auth, err := protocol.DecodeAuth(data)
	if err != nil {
		incIgnored("decode")
		s.log.Debug().Err(err).Msg("dropping undecodable auth")
		return
	}

	s.authenticated = true
	s.clientID = auth.ID
	s.roomKey = auth.URL
	s.mlog = s.log.With().Str("room", auth.URL).Uint64("client_id", auth.ID).Logger()

	s.outbox = s.hub.Join(auth.URL, auth.ID)
	s.hub.wg.Add(1)
	go func(ob *Outbox) {
		defer s.hub.wg.Done()
		s.flushLoop(ob)
	}(s.outbox)

	s.hub.publishPresence(presence.Event{
		Type:         presence.EventJoin,
		Room:         auth.URL,
		ClientID:     auth.ID,
		ConnectionID: s.connID,
	})
	s.mlog.Info().Msg("client joined room")
}

func (s *Session) handleMyLocation(data []byte) {
	if !s.authenticated {
		incIgnored("unauthenticated")
		return
	}

	loc, err := protocol.DecodeLocation(data)
	if err != nil {
		incIgnored("decode")
		s.log.Debug().Err(err).Msg("dropping undecodable location")
		return
	}

	s.hub.Broadcast(s.roomKey, NewLocationUpdate(s.clientID, loc.X, loc.Y))
}

// cleanup runs once when the read loop exits, whatever the reason.
func (s *Session) cleanup() {
	s.closeOnce.Do(func() { close(s.done) })

	if s.authenticated {
		if s.hub.Leave(s.roomKey, s.clientID, s.outbox) {
			s.hub.Broadcast(s.roomKey, NewDespawnEntity(s.clientID))
		}
		s.outbox.Close()
		s.hub.publishPresence(presence.Event{
			Type:         presence.EventLeave,
			Room:         s.roomKey,
			ClientID:     s.clientID,
			ConnectionID: s.connID,
		})
		s.mlog.Info().Msg("client left room")
	}

	s.closeConn()
	s.hub.untrack(s)
}

func (s *Session) closeConn() {
	s.connOnce.Do(func() {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Debug().Err(err).Msg("error closing connection")
		}
	})
}

func (s *Session) keepAlive() {
	ticker := time.NewTicker(s.hub.opts.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.hub.opts.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.log.Info().Err(err).Msg("ping failed, closing connection")
				s.closeConn()
				return
			}
		}
	}
}
