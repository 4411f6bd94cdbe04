package endpoints

import (
	"net/http"

	"github.com/colathro/multiplayer-web/internal/websocket"
)

// PresenceEndpoints serves the websocket upgrade and the room listing.
type PresenceEndpoints interface {
	Connect(http.ResponseWriter, *http.Request) error
	Rooms(http.ResponseWriter, *http.Request) error
}

type presenceEndpoints struct {
	handler *websocket.Handler
}

func NewPresenceEndpoints(handler *websocket.Handler) PresenceEndpoints {
	return &presenceEndpoints{handler: handler}
}

func (h *presenceEndpoints) Connect(w http.ResponseWriter, r *http.Request) error {
	return h.handler.ServeWS(w, r)
}

func (h *presenceEndpoints) Rooms(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) error {
			return WriteJSON(w, http.StatusOK, h.handler.Hub().Rooms())
		},
	})
}
