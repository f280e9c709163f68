// internal/handler/websocket_handler.go
package handler

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hp82240-service/internal/model"
	"hp82240-service/internal/service"
	"hp82240-service/internal/utils"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler streams the paper to browsers as it is printed
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	printer     *service.PrinterService
	eventBus    *service.EventBus
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler. allowed lists the
// accepted origins; an empty list or "*" accepts any.
func NewWebSocketHandler(
	printer *service.PrinterService,
	eventBus *service.EventBus,
	allowed []string,
	logger *zap.Logger,
) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowed),
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		printer:     printer,
		eventBus:    eventBus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/paper", h.HandlePaperConnection)
}

// HandlePaperConnection upgrades the request and streams the paper. The
// first message holds the printer status and the lines already on the roll.
func (h *WebSocketHandler) HandlePaperConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := newClient(uuid.New().String(), conn, c.Request.UserAgent(), c.Request.RemoteAddr)
	subscriber, events := h.eventBus.Subscribe()
	client.subscriber = subscriber

	h.connections.Register(client)
	h.logger.Info("Paper WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type: "initial_status",
		Data: map[string]interface{}{
			"printer": h.printer.Status(),
			"lines":   h.printer.Paper(),
		},
		Timestamp: time.Now(),
	})

	go h.forwardEvents(client, events)
	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// forwardEvents relays bus events until the subscription is closed. It is
// the only goroutine that closes client.Send.
func (h *WebSocketHandler) forwardEvents(client *Client, events <-chan model.PrinterEvent) {
	defer close(client.Send)

	for event := range events {
		if event.Type == model.EventLinePrinted {
			if client.Subscribed(TopicLines) {
				h.sendMessage(client, &WebSocketMessage{
					Type:      "line",
					Data:      event.Data,
					Timestamp: event.Timestamp,
				})
			}
			continue
		}
		if client.Subscribed(TopicEvents) {
			h.sendMessage(client, &WebSocketMessage{
				Type:      "printer_event",
				Data:      event,
				Timestamp: event.Timestamp,
			})
		}
	}
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		if h.connections.Unregister(client) {
			h.eventBus.Unsubscribe(client.subscriber)
		}
		client.Connection.Close()
		h.logger.Info("Paper WebSocket client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Warn("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			h.sendError(client, &message, "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Debug("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		h.handleSubscription(client, message)
	case "print":
		h.handlePrint(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
		h.sendError(client, message, "unknown message type: "+message.Type)
	}
}

// handleSubscription toggles the lines or events topic
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	data, _ := message.Data.(map[string]interface{})
	topic, _ := data["topic"].(string)
	if topic != TopicLines && topic != TopicEvents {
		h.sendError(client, message, "topic must be lines or events")
		return
	}

	if message.Type == "subscribe" {
		client.Subscribe(topic)
	} else {
		client.Unsubscribe(topic)
	}
	h.logger.Debug("Client subscription changed",
		zap.String("client_id", client.ID),
		zap.String("action", message.Type),
		zap.String("topic", topic),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type:      message.Type + "d",
		Data:      map[string]interface{}{"topic": topic},
		Timestamp: time.Now(),
		RequestID: message.RequestID,
	})
}

// handlePrint feeds hex encoded printer bytes
func (h *WebSocketHandler) handlePrint(client *Client, message *WebSocketMessage) {
	data, _ := message.Data.(map[string]interface{})
	encoded, _ := data["hex"].(string)
	raw, err := hex.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		h.sendError(client, message, "print requires non-empty hex data")
		return
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      "print_result",
		Data:      h.printer.Print(raw),
		Timestamp: time.Now(),
		RequestID: message.RequestID,
	})
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, request *WebSocketMessage, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
		RequestID: request.RequestID,
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
