package notification

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client is one WebSocket subscription. A user may hold several concurrent
// connections; each gets every notification addressed to that user.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
}

// Push is a notification on its way to subscribers. An empty UserID
// addresses every connected client.
type Push struct {
	UserID  string
	Payload any
}

// Hub fans notifications out to WebSocket subscribers. Delivery is best
// effort; a slow or dead connection never blocks the lifecycle engine.
type Hub struct {
	clients    map[string]*Client
	users      map[string]map[string]bool
	register   chan *Client
	unregister chan *Client
	push       chan *Push
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		users:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan *Push, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[notification] Hub shutting down")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.push:
			h.handlePush(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Notify queues a notification for a user's connections. An empty userID
// broadcasts to everyone; a full queue drops the push rather than block.
func (h *Hub) Notify(userID string, payload any) {
	select {
	case h.push <- &Push{UserID: userID, Payload: payload}:
	default:
		log.Printf("[notification] Hub queue full, dropping push for user %s", userID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[string]bool)
	}
	h.users[client.UserID][client.ID] = true
	log.Printf("[notification] Client %s (user %s) subscribed", client.ID, client.UserID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	if h.users[client.UserID] != nil {
		delete(h.users[client.UserID], client.ID)
		if len(h.users[client.UserID]) == 0 {
			delete(h.users, client.UserID)
		}
	}
	log.Printf("[notification] Client %s (user %s) unsubscribed", client.ID, client.UserID)
}

func (h *Hub) handlePush(msg *Push) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("[notification] Failed to marshal push: %v", err)
		return
	}

	if msg.UserID == "" {
		for _, client := range h.clients {
			h.sendToClient(client, data)
		}
		return
	}
	for clientID := range h.users[msg.UserID] {
		if client, ok := h.clients[clientID]; ok {
			h.sendToClient(client, data)
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[notification] Failed to send to client %s: %v", client.ID, err)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.users = make(map[string]map[string]bool)
}
