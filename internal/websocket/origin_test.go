package websocket

import (
	"net/http/httptest"
	"testing"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anything.example", want: true},
		{name: "empty list allows all", allowed: nil, origin: "https://anything.example", want: true},
		{name: "no origin header", allowed: []string{"https://a.example"}, origin: "", want: true},
		{name: "listed origin", allowed: []string{"https://A.example/"}, origin: "https://a.example", want: true},
		{name: "unlisted origin", allowed: []string{"https://a.example"}, origin: "https://b.example", want: false},
		{name: "scheme mismatch", allowed: []string{"https://a.example"}, origin: "http://a.example", want: false},
		{name: "malformed origin", allowed: []string{"https://a.example"}, origin: "not a url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOriginPolicy(tt.allowed)
			r := httptest.NewRequest("GET", "/ws/", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := p.check(r); got != tt.want {
				t.Fatalf("check(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
