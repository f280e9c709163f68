// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Topics a paper client can subscribe to
const (
	TopicLines  = "lines"
	TopicEvents = "events"
)

// Client represents a WebSocket client
type Client struct {
	ID            string          `json:"id"`
	Connection    *websocket.Conn `json:"-"`
	Send          chan []byte     `json:"-"`
	UserAgent     string          `json:"user_agent"`
	RemoteAddr    string          `json:"remote_addr"`
	ConnectedAt   time.Time       `json:"connected_at"`
	Subscriptions map[string]bool `json:"subscriptions,omitempty"`

	subscriber string
	mutex      sync.RWMutex
}

// newClient creates a client subscribed to every topic
func newClient(id string, conn *websocket.Conn, userAgent, remoteAddr string) *Client {
	return &Client{
		ID:          id,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   userAgent,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		Subscriptions: map[string]bool{
			TopicLines:  true,
			TopicEvents: true,
		},
	}
}

// Subscribe adds a topic
func (c *Client) Subscribe(topic string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.Subscriptions[topic] = true
}

// Unsubscribe removes a topic
func (c *Client) Unsubscribe(topic string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.Subscriptions, topic)
}

// Subscribed reports whether the client wants topic
func (c *Client) Subscribed(topic string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.Subscriptions[topic]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager tracks the connected paper clients
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister removes a client and reports whether it was registered
func (cm *ConnectionManager) Unregister(client *Client) bool {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if _, ok := cm.clients[client.ID]; !ok {
		return false
	}
	delete(cm.clients, client.ID)
	return true
}

// Count returns the number of connected clients
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}
	for _, client := range cm.clients {
		stats.Clients = append(stats.Clients, client)
	}
	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int       `json:"total_connections"`
	Clients          []*Client `json:"clients"`
}
