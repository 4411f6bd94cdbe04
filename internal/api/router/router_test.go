package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/colathro/multiplayer-web/internal/api"
	"github.com/colathro/multiplayer-web/internal/client"
	"github.com/colathro/multiplayer-web/internal/queue"
	"github.com/colathro/multiplayer-web/internal/websocket"
)

func newTestServer(t *testing.T) (*websocket.Hub, *httptest.Server) {
	t.Helper()
	q := queue.NewRequestQueueManager(16, 2)
	hub := websocket.NewHub(websocket.DefaultOptions(), nil)
	server := api.NewAPIServer(api.ServerConfig{ListenAddr: ":0"}, q, websocket.NewHandler(hub),
		UtilsRoutes(""),
		PresenceRoutes(""),
	)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.Shutdown(ctx)
		srv.Close()
		q.Shutdown()
	})
	return hub, srv
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)

	var body map[string]any
	resp := getJSON(t, srv.URL+"/health", &body)
	if resp.StatusCode != http.StatusOK || len(body) != 0 {
		t.Fatalf("health = %d %v, want 200 {}", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestHealthRejectsPost(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/health", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var body api.ApiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed || body.Error != "Method not allowed." {
		t.Fatalf("got %d %+v", resp.StatusCode, body)
	}
}

func TestWebsocketThroughRouterAndRooms(t *testing.T) {
	hub, srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/"

	spawned := make(chan uint64, 4)
	c1, err := client.DialWithID(context.Background(), wsURL, "https://a/", 1, client.Callbacks{})
	if err != nil {
		t.Fatalf("dial c1: %v", err)
	}
	defer c1.Close()

	waitMembers(t, hub, "https://a/", 1)

	c2, err := client.DialWithID(context.Background(), wsURL, "https://a/", 2, client.Callbacks{
		OnSpawn: func(id uint64, icon string) { spawned <- id },
	})
	if err != nil {
		t.Fatalf("dial c2: %v", err)
	}
	defer c2.Close()

	select {
	case id := <-spawned:
		if id != 1 {
			t.Fatalf("spawned %d, want 1", id)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no spawn through router")
	}

	var rooms []websocket.RoomRes
	getJSON(t, srv.URL+"/rooms", &rooms)
	if len(rooms) != 1 || rooms[0].Key != "https://a/" || rooms[0].Members != 2 {
		t.Fatalf("rooms = %+v", rooms)
	}
}

func TestMetricsExposed(t *testing.T) {
	_, srv := newTestServer(t)
	http.Get(srv.URL + "/health")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{
		"multiplayer_http_requests_total",
		"multiplayer_ws_connections",
		"multiplayer_request_queue_depth",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func waitMembers(t *testing.T, hub *websocket.Hub, key string, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, room := range hub.Rooms() {
			if room.Key == key && room.Members == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d members", key, want)
}
