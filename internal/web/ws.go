package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/beamline-io/dataweb/internal/lib/logger/sl"
	"github.com/beamline-io/dataweb/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is an open display; the status data carries no
		// credentials.
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPollPeriod = time.Second
)

// wsUpdate is one pushed status message. Either Snapshot or Error is
// set, mirroring what the instrument page would show.
type wsUpdate struct {
	Instrument string          `json:"instrument"`
	CycleID    string          `json:"cycle_id"`
	FetchedAt  time.Time       `json:"fetched_at"`
	OK         bool            `json:"ok"`
	Error      string          `json:"error,omitempty"`
	Snapshot   *model.Snapshot `json:"snapshot,omitempty"`
}

// handleInstrumentWS upgrades the connection and pushes the
// instrument's entry whenever a new poll cycle lands.
func (s *Server) handleInstrumentWS(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, known := s.store.Get(name); !known {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	s.log.Debug("websocket client connected",
		slog.String("instrument", name),
		slog.String("remote", r.RemoteAddr),
	)

	go s.wsWriteLoop(conn, name)
	go wsReadLoop(conn)
}

func (s *Server) wsWriteLoop(conn *websocket.Conn, name string) {
	poll := time.NewTicker(wsPollPeriod)
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		poll.Stop()
		ping.Stop()
		conn.Close()
	}()

	lastCycle := ""

	for {
		select {
		case <-poll.C:
			entry, known := s.store.Get(name)
			if !known || entry.CycleID == "" || entry.CycleID == lastCycle {
				continue
			}
			lastCycle = entry.CycleID

			update := wsUpdate{
				Instrument: name,
				CycleID:    entry.CycleID,
				FetchedAt:  entry.FetchedAt,
				OK:         entry.Ok(),
				Snapshot:   entry.Snapshot,
			}
			if entry.Err != nil {
				update.Error = entry.Err.Error()
			}

			payload, err := json.Marshal(update)
			if err != nil {
				s.log.Error("failed to marshal ws update", sl.Err(err))
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsReadLoop discards client messages and closes the connection on
// error, which in turn stops the write loop.
func wsReadLoop(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
