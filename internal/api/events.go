package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/heimdex/heimdex-editor/internal/editor"
	"github.com/heimdex/heimdex-editor/internal/logging"
)

const (
	eventsWriteWait  = 10 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = eventsPongWait * 9 / 10
	eventsBuffer     = 8
)

// SessionEvent is pushed to /events subscribers after every session change.
type SessionEvent struct {
	Type  string          `json:"type"`
	State SessionResponse `json:"state"`
}

// EventHub fans session state out to websocket subscribers. Only the latest
// state matters, so a slow subscriber loses intermediate states rather than
// holding up the session. States older than one already published are
// dropped; change hooks can arrive out of order.
type EventHub struct {
	mu      sync.Mutex
	clients map[chan SessionResponse]struct{}
	latest  uint64
	logger  *slog.Logger
}

func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &EventHub{
		clients: make(map[chan SessionResponse]struct{}),
		logger:  logger,
	}
}

// Publish has the signature of editor.ChangeHook.
func (h *EventHub) Publish(st editor.State) {
	resp := SessionToResponse(st)

	h.mu.Lock()
	defer h.mu.Unlock()
	if resp.Version < h.latest {
		h.logger.Debug("stale session state dropped", "version", resp.Version, "latest", h.latest)
		return
	}
	h.latest = resp.Version
	for ch := range h.clients {
		select {
		case ch <- resp:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- resp:
		default:
		}
	}
}

// Subscribers reports how many connections are listening.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

func (h *EventHub) subscribe() (<-chan SessionResponse, func()) {
	ch := make(chan SessionResponse, eventsBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			close(ch)
			delete(h.clients, ch)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isAllowedOrigin(origin)
	},
}

func sessionEventsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Events == nil {
			WriteError(w, http.StatusNotFound, "events not enabled", "NOT_FOUND")
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the request.
			cfg.Logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		cfg.Events.serve(conn, func() SessionResponse {
			return SessionToResponse(cfg.Session.State())
		})
	}
}

// serve writes the current state, then every newer published state, until
// the peer goes away or the hub is closed. It subscribes before reading the
// current state so no change in between is missed.
func (h *EventHub) serve(conn *websocket.Conn, current func() SessionResponse) {
	updates, unsubscribe := h.subscribe()
	defer unsubscribe()
	defer conn.Close()
	initial := current()
	sent := initial.Version

	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()

	if err := writeEvent(conn, initial); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case resp, ok := <-updates:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if resp.Version <= sent {
				continue
			}
			sent = resp.Version
			if err := writeEvent(conn, resp); err != nil {
				h.logger.Debug("event subscriber dropped", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, resp SessionResponse) error {
	conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
	return conn.WriteJSON(SessionEvent{Type: "session", State: resp})
}
