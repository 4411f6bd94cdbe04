package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/colathro/multiplayer-web/internal/api/middleware"
	"github.com/colathro/multiplayer-web/internal/queue"
	"github.com/colathro/multiplayer-web/internal/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type ServerConfig struct {
	ListenAddr     string
	AllowedOrigins []string
}

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	routeRegistrars     []RouteRegistrar
	handler             *websocket.Handler
	metrics             *metrics
	cors                middleware.CORSConfig
}

func NewAPIServer(cfg ServerConfig, rqm *queue.RequestQueueManager, handler *websocket.Handler, registrars ...RouteRegistrar) *APIServer {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &APIServer{
		listenAddr:          cfg.ListenAddr,
		requestQueueManager: rqm,
		handler:             handler,
		routeRegistrars:     registrars,
		metrics:             newMetrics(prometheus.DefaultRegisterer, cfg.ListenAddr, rqm),
		cors: middleware.CORSConfig{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Requested-With", "X-Request-ID"},
		},
	}
}

// Router builds the instrumented mux with every registered route plus /metrics.
func (s *APIServer) Router() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	return s.metrics.instrument(mux)
}

// Run serves until ctx is cancelled, then shuts the HTTP server down
// gracefully. Hijacked websocket connections are not tracked by the server
// and must be closed by the hub.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("module", "api").Str("addr", s.listenAddr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Str("module", "api").Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *APIServer) Handler() *websocket.Handler {
	return s.handler
}
