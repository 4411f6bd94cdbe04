package utils

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP prefers the first hop of X-Forwarded-For, then X-Real-IP,
// then the host part of RemoteAddr.
func RealClientIP(r *http.Request) string {
	if xfwd := r.Header.Get("X-Forwarded-For"); xfwd != "" {
		first, _, _ := strings.Cut(xfwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
