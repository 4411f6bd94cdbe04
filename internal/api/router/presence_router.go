package router

import (
	"net/http"

	"github.com/colathro/multiplayer-web/internal/api"
	"github.com/colathro/multiplayer-web/internal/api/endpoints"
)

func PresenceRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		presenceEndpoints := endpoints.NewPresenceEndpoints(s.Handler())

		mux.HandleFunc(prefix+"/ws/", s.MakeUpgradeHandleFunc(presenceEndpoints.Connect))
		mux.HandleFunc(prefix+"/rooms", s.MakeHTTPHandleFunc(presenceEndpoints.Rooms))
	}
}
