package websocket

import (
	"net/http"

	"github.com/colathro/multiplayer-web/utils"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(h *Hub) *Handler {
	origins := newOriginPolicy(h.opts.AllowedOrigins)
	return &Handler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

func (h *Handler) Hub() *Hub {
	return h.hub
}

// ServeWS upgrades the request and hands the socket to a new session. The
// session stays unauthenticated until its first Auth frame.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) error {
	addr := utils.RealClientIP(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		log.Info().Str("module", "websocket").Str("addr", addr).Err(err).Msg("websocket upgrade failed")
		return nil
	}

	newSession(conn, h.hub, addr).start()
	return nil
}
