// Package client is a Go implementation of the cursor-sharing client: it
// dials the server, authenticates into a room and reports peers' events
// through callbacks.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/colathro/multiplayer-web/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 5 * time.Second

// Callbacks are invoked from the client's read goroutine, in the order the
// server sent the events. Nil callbacks are skipped.
type Callbacks struct {
	OnLocation func(id uint64, x, y float32)
	OnSpawn    func(id uint64, icon string)
	OnDespawn  func(id uint64)
}

type Client struct {
	id   uint64
	room string
	conn *websocket.Conn
	cb   Callbacks

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to serverURL and joins room under a random client id.
func Dial(ctx context.Context, serverURL, room string, cb Callbacks) (*Client, error) {
	return DialWithID(ctx, serverURL, room, rand.Uint64(), cb)
}

func DialWithID(ctx context.Context, serverURL, room string, id uint64, cb Callbacks) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", serverURL, err)
	}

	c := &Client{
		id:   id,
		room: room,
		conn: conn,
		cb:   cb,
		done: make(chan struct{}),
	}
	if err := c.Send(protocol.NewMessage(protocol.Auth, protocol.AuthRequest{ID: id, URL: room})); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send auth: %w", err)
	}

	go c.readLoop()
	return c, nil
}

func (c *Client) ID() uint64 {
	return c.id
}

func (c *Client) Room() string {
	return c.room
}

// SendLocation reports this client's cursor position.
func (c *Client) SendLocation(x, y float32) error {
	return c.Send(protocol.NewMessage(protocol.MyLocation, protocol.Location{ID: c.id, X: x, Y: y}))
}

// Send writes one framed message as a binary websocket frame.
func (c *Client) Send(msg protocol.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, msg.Encode())
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err reports why the read loop stopped. It is only meaningful after Done.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Close sends a close frame, drops the connection and waits for the read
// loop to exit.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		c.conn.Close()
	})
	<-c.done
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !isClosed(err) {
				c.err = err
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		c.dispatch(data)
	}
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func (c *Client) dispatch(data []byte) {
	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		log.Debug().Str("module", "client").Err(err).Msg("dropping undecodable frame")
		return
	}

	switch msg.Type {
	case protocol.UserLocation:
		loc, err := protocol.DecodeLocation(msg.Data)
		if err != nil {
			log.Debug().Str("module", "client").Err(err).Msg("dropping undecodable location")
			return
		}
		if c.cb.OnLocation != nil {
			c.cb.OnLocation(loc.ID, loc.X, loc.Y)
		}
	case protocol.Spawn:
		sp, err := protocol.DecodeSpawn(msg.Data)
		if err != nil {
			log.Debug().Str("module", "client").Err(err).Msg("dropping undecodable spawn")
			return
		}
		if c.cb.OnSpawn != nil {
			c.cb.OnSpawn(sp.ID, sp.Icon)
		}
	case protocol.Despawn:
		dp, err := protocol.DecodeDespawn(msg.Data)
		if err != nil {
			log.Debug().Str("module", "client").Err(err).Msg("dropping undecodable despawn")
			return
		}
		if c.cb.OnDespawn != nil {
			c.cb.OnDespawn(dp.ID)
		}
	}
}
