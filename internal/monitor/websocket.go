// SPDX-License-Identifier: MIT

// Package monitor exposes link activity over a WebSocket endpoint so a
// browser can watch commands move across the acoustic channel.
package monitor

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "airgap/internal/log"
)

// Broadcaster fans out link events to every connected WebSocket client.
// Send never blocks the sender: when the broadcast queue is full the
// event is dropped, so a stalled browser cannot back-pressure the modem.
type Broadcaster struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan interface{}
	server    *http.Server
}

// NewBroadcaster creates a Broadcaster and starts serving on addr.
func NewBroadcaster(addr string) *Broadcaster {
	b := &Broadcaster{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan interface{}, 256),
	}
	b.start()
	return b
}

func (b *Broadcaster) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", b.handleWebSocket)

	b.server = &http.Server{
		Addr:    b.addr,
		Handler: mux,
	}

	go func() {
		applog.Infof("Monitor: serving events on ws://%s/events", b.addr)
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("Monitor: server error: %v", err)
		}
	}()

	go b.handleBroadcasts()
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("Monitor: upgrade error: %v", err)
		return
	}

	b.clientsMu.Lock()
	b.clients[conn] = true
	total := len(b.clients)
	b.clientsMu.Unlock()
	applog.Infof("Monitor: client connected, total: %d", total)

	go func() {
		// Block until the client goes away.
		_, _, err := conn.ReadMessage()
		if err != nil {
			b.clientsMu.Lock()
			delete(b.clients, conn)
			total := len(b.clients)
			b.clientsMu.Unlock()
			conn.Close()
			applog.Infof("Monitor: client disconnected, total: %d", total)
		}
	}()
}

func (b *Broadcaster) handleBroadcasts() {
	for data := range b.broadcast {
		b.clientsMu.Lock()
		for client := range b.clients {
			if err := client.WriteJSON(data); err != nil {
				applog.Warnf("Monitor: write error, dropping client: %v", err)
				client.Close()
				delete(b.clients, client)
			}
		}
		b.clientsMu.Unlock()
	}
}

// Send queues an event for broadcast to all connected clients.
func (b *Broadcaster) Send(data interface{}) error {
	select {
	case b.broadcast <- data:
	default:
		// Queue full, drop.
	}
	return nil
}

// Close disconnects all clients and shuts down the server.
func (b *Broadcaster) Close() error {
	b.clientsMu.Lock()
	for client := range b.clients {
		client.Close()
	}
	b.clients = make(map[*websocket.Conn]bool)
	b.clientsMu.Unlock()

	if b.server != nil {
		return b.server.Close()
	}
	return nil
}
