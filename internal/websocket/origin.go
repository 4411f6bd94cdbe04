package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// originPolicy decides which browser origins may open a socket. Requests
// without an Origin header come from non-browser clients and are allowed.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("module", "websocket").Str("origin", origin).Msg("ignoring invalid allowed origin")
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	if len(origins) == 0 {
		p.allowAll = true
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (p originPolicy) check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allowAll {
		return true
	}

	normalized, ok := normalizeOrigin(header)
	if !ok {
		return false
	}
	if _, exists := p.allowed[normalized]; exists {
		return true
	}
	log.Info().Str("module", "websocket").Str("origin", header).Msg("rejected websocket origin")
	return false
}
