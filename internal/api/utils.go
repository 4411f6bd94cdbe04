package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/colathro/multiplayer-web/internal/api/middleware"
	"github.com/colathro/multiplayer-web/internal/queue"
	"github.com/rs/zerolog/log"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.ErrorLog != nil {
			log.Info().Str("module", "api").Str("path", r.URL.Path).Err(httpErr.ErrorLog).Int("status", httpErr.StatusCode).Msg("request failed")
		}
		WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
		return
	}
	log.Error().Str("module", "api").Str("path", r.URL.Path).Err(err).Msg("unhandled request error")
	WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
}

// MakeHTTPHandleFunc runs f on the request queue behind CORS and access
// logging. Extra middlewares wrap f itself, innermost last.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, extra ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		job := queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		}

		if !s.requestQueueManager.EnqueueJob(job) {
			WriteJSON(w, http.StatusServiceUnavailable, ApiError{Error: "Server is shutting down"})
			return
		}

		if err := <-errc; err != nil {
			writeError(w, r, err)
		}
	}

	handler := middleware.Chain(baseHandler, extra...)
	return middleware.Chain(handler, middleware.Logging(), middleware.CORS(s.cors))
}

// MakeUpgradeHandleFunc serves long-lived connection upgrades directly on
// the server goroutine so they never wait behind queued jobs.
func (s *APIServer) MakeUpgradeHandleFunc(f apiFunc) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(w, r, err)
		}
	}
	return middleware.Chain(baseHandler, middleware.Logging())
}
