package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/ws"
)

func TestLocationStream_PushesNewSamples(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/crew/location-stream/c1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Registration happens after the handshake completes server-side.
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.Subscribers("c1") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(srv.URL+"/api/crew/location", "application/json",
		bytes.NewReader([]byte(`{"crew_member_id":"c1","latitude":10.5,"longitude":20.25}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev ws.LocationEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", msg, err)
	}
	if ev.CrewMemberID != "c1" || ev.Latitude != 10.5 || ev.Longitude != 20.25 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
