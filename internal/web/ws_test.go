package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beamline-io/dataweb/internal/store"
)

func TestWebsocketPushesSnapshot(t *testing.T) {
	st := store.New([]string{"DEMO"})
	st.SetSnapshot("DEMO", "ndxdemo:60000", demoSnapshot())
	srv := newTestServer(st)
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/instrument/DEMO"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var update wsUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		t.Fatalf("invalid update JSON: %v", err)
	}
	if !update.OK || update.Snapshot == nil {
		t.Fatalf("update = %+v, want snapshot", update)
	}
	if update.Snapshot.ConfigName != "demo_base" {
		t.Errorf("config name = %q", update.Snapshot.ConfigName)
	}
}

func TestWebsocketUnknownInstrument(t *testing.T) {
	st := store.New([]string{"DEMO"})
	srv := newTestServer(st)
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/instrument/NOPE"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("dial to unknown instrument succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}
