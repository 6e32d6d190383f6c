package httpserver

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mnohosten/lsmkv/pkg/lsm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// eventHub fans out coordinator lifecycle events (flush, compact) to every
// connected websocket client, trimmed from a per-collection change
// stream to a single read-only lifecycle feed.
type eventHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan lsm.Event
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*websocket.Conn]chan lsm.Event)}
}

// broadcast fans e out to every currently-connected client.
func (h *eventHub) broadcast(e lsm.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *eventHub) add(conn *websocket.Conn) chan lsm.Event {
	ch := make(chan lsm.Event, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
}

// handleEvents serves GET /events: a read-only websocket feed of flush and
// compaction notifications.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("httpserver: events upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := s.eventHub.add(conn)
	defer s.eventHub.remove(conn)

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	// A read goroutine exists solely to notice client-initiated close;
	// this feed never accepts input.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-heartbeat.C:
			if err := conn.WriteJSON(map[string]string{"event": "heartbeat"}); err != nil {
				return
			}
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(map[string]string{"event": string(e.Kind), "sstable": e.Path}); err != nil {
				return
			}
		}
	}
}
