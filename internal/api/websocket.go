package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/journal-ai/uploader/internal/widget"
	"github.com/labstack/echo/v4"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

const (
	clientBuffer = 64
	writeTimeout = 10 * time.Second
)

// WSMessage is one frame of the event stream. Widget events use the event
// type as Type and the event itself as Payload.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is sent for malformed client messages
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// Hub fans widget events out to every connected websocket client.
// A client that cannot keep up is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Publish broadcasts ev. It never blocks, so it is safe as a widget OnEvent hook.
func (h *Hub) Publish(ev widget.Event) {
	msg := WSMessage{Type: string(ev.Type), Payload: mustJSON(ev), Timestamp: time.Now().UnixMilli()}

	h.mu.RLock()
	var slow []*wsClient
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		slog.Warn("dropping slow websocket client", "remote", cl.conn.RemoteAddr().String())
		h.remove(cl)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl] = struct{}{}
}

func (h *Hub) remove(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

// WebSocketHandler implements the EventsHandler interface
type WebSocketHandler struct {
	hub      *Hub
	uploader Uploader
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new event stream handler
func NewWebSocketHandler(hub *Hub, uploader Uploader) EventsHandler {
	return &WebSocketHandler{
		hub:      hub,
		uploader: uploader,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// HandleEvents upgrades the connection and streams widget events until the
// client disconnects. The first frame carries the current queue.
func (wsh *WebSocketHandler) HandleEvents(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	cl := &wsClient{conn: ws, send: make(chan WSMessage, clientBuffer)}
	cl.send <- WSMessage{
		Type:      MsgTypeConnected,
		Payload:   mustJSON(widget.Event{Type: widget.EventQueue, Queue: wsh.uploader.Queue(), State: wsh.uploader.State()}),
		Timestamp: time.Now().UnixMilli(),
	}
	wsh.hub.add(cl)
	defer wsh.hub.remove(cl)

	slog.Debug("websocket client connected", "remote", ws.RemoteAddr().String(), "clients", wsh.hub.ClientCount())

	done := make(chan struct{})
	go func() {
		defer close(done)
		// a failed or dropped writer ends the read loop below
		defer ws.Close()
		for msg := range cl.send {
			_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteJSON(msg); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}()

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket connection error", "error", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			wsh.enqueue(cl, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		default:
			wsh.enqueue(cl, WSMessage{
				Type:      MsgTypeError,
				Payload:   mustJSON(WSErrorResponse{Type: MsgTypeError, Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"}),
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}

	wsh.hub.remove(cl)
	<-done
	slog.Debug("websocket client disconnected")
	return nil
}

func (wsh *WebSocketHandler) enqueue(cl *wsClient, msg WSMessage) {
	wsh.hub.mu.RLock()
	defer wsh.hub.mu.RUnlock()
	if _, ok := wsh.hub.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
