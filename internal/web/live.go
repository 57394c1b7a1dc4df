package web

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/record"
)

// Hub fans completed transactions out to connected websocket viewers.
// It implements capture.Listener; register it on the engine with
// capture.WithListener.
type Hub struct {
	log      logger.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]*sync.Mutex // one writer per conn
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// Local debugging tool; cross-origin viewers are fine.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// OnTransaction broadcasts the record to every connected viewer.
// Slow or dead connections are dropped rather than blocking the rest.
func (h *Hub) OnTransaction(rec *record.Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		h.log.Warn("failed to encode live transaction: %v", err)
		return
	}

	h.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for conn, wmu := range h.conns {
		targets[conn] = wmu
	}
	h.mu.Unlock()

	for conn, wmu := range targets {
		wmu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		wmu.Unlock()
		if err != nil {
			h.drop(conn)
		}
	}
}

// Serve upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = &sync.Mutex{}
	h.mu.Unlock()

	// Read loop only to observe the close; inbound messages are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Len returns the number of connected viewers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}
