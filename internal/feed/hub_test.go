package feed

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fare-aggregator/internal/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		got := len(hub.conns)
		hub.mu.RUnlock()
		if got == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d subscribers", n)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	waitForSubscribers(t, hub, 2)

	sent := events.SearchCompletedEvent{
		FromAddress:  "Koramangala, Bangalore",
		ToAddress:    "MG Road, Bangalore",
		VehicleClass: "car",
	}
	hub.Broadcast(sent)

	for _, ws := range []*websocket.Conn{first, second} {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got events.SearchCompletedEvent
		if err := ws.ReadJSON(&got); err != nil {
			t.Fatalf("read broadcast: %v", err)
		}
		if got.FromAddress != sent.FromAddress || got.VehicleClass != sent.VehicleClass {
			t.Errorf("got %+v, want %+v", got, sent)
		}
	}
}

func TestBroadcastDropsClosedConnections(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Routes())
	defer srv.Close()

	ws := dial(t, srv)
	waitForSubscribers(t, hub, 1)

	ws.Close()
	waitForSubscribers(t, hub, 0)

	// Broadcasting with nobody listening must not panic or block.
	hub.Broadcast(events.SearchCompletedEvent{FromAddress: "x", ToAddress: "y"})
}
