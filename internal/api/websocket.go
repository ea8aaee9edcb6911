package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the intake event stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeSnapshot  = "snapshot"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const wsWriteWait = 10 * time.Second

// WebSocketHandler pushes intake snapshots to the browser
type WebSocketHandler struct {
	upgrader     websocket.Upgrader
	maxReadBytes int64
	sessions     SessionManager
}

// NewWebSocketHandler creates a new intake event handler. maxMessageKB
// bounds client messages; client pings keep the session alive.
func NewWebSocketHandler(maxMessageKB int, sessions SessionManager) EventsHandler {
	if maxMessageKB <= 0 {
		maxMessageKB = 64
	}
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		maxReadBytes: int64(maxMessageKB) * 1024,
		sessions:     sessions,
	}
}

// HandleEvents upgrades to a WebSocket and streams a snapshot after every
// change of the caller's intake controller.
func (wsh *WebSocketHandler) HandleEvents(c echo.Context) error {
	sessionID, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsh.maxReadBytes)

	fmt.Printf("[WebSocket] Client connected for session %s\n", shortID(sessionID))

	snapshots, cancel := ctrl.Subscribe()
	defer cancel()

	// Reads happen on their own goroutine; all writes stay on this one
	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go wsh.readLoop(ws, sessionID, pings, closed)

	if err := wsh.sendMessage(ws, WSMessage{Type: MsgTypeConnected, ID: sessionID, Timestamp: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				wsh.sendError(ws, "session closed", "SESSION_CLOSED")
				return nil
			}
			if err := wsh.sendMessage(ws, WSMessage{
				Type:      MsgTypeSnapshot,
				ID:        sessionID,
				Payload:   mustJSON(snap),
				Timestamp: time.Now().UnixMilli(),
			}); err != nil {
				return nil
			}
		case <-pings:
			if err := wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}); err != nil {
				return nil
			}
		case <-closed:
			fmt.Printf("[WebSocket] Client disconnected from session %s\n", shortID(sessionID))
			return nil
		}
	}
}

func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, sessionID string, pings chan<- struct{}, closed chan<- struct{}) {
	defer close(closed)
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("[WebSocket] Connection error: %v\n", err)
			}
			return
		}
		if msg.Type == MsgTypePing {
			wsh.sessions.TouchSession(sessionID)
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) error {
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Write failed: %v\n", err)
		return err
	}
	return nil
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, message, code string) {
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
