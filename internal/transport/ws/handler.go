package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"practicecoach/internal/model"
	"practicecoach/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// TokenValidator verifies bearer tokens. *service.AuthService satisfies it.
type TokenValidator interface {
	ValidateToken(token string) (*model.UserClaims, error)
}

// SessionReader checks that a caller may watch a session.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string, caller model.Identity) (*model.Session, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	auth     TokenValidator
	sessions SessionReader
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler. allowOrigin decides which
// browser origins may connect.
func NewHandler(hub *Hub, auth TokenValidator, sessions SessionReader, allowOrigin func(origin string) bool, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		auth:     auth,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
		},
		logger: logger.With(zap.String("component", "ws")),
	}
}

// SessionWS handles GET /v1/ws/sessions/{sessionId}
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	caller := model.Guest()
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		caller = claims.Identity()
	}

	if _, err := h.sessions.GetSession(r.Context(), sessionID, caller); err != nil {
		switch service.KindOf(err) {
		case service.KindNotFound:
			http.Error(w, "session not found", http.StatusNotFound)
		case service.KindUnauthorized:
			http.Error(w, "session belongs to another user", http.StatusForbidden)
		default:
			h.logger.Error("failed to load session", zap.String("session_id", sessionID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		UserID:    caller.UserID,
		Send:      make(chan []byte, 256),
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed", zap.String("session_id", conn.SessionID), zap.Error(err))
			}
			return
		}
		// Clients only listen; incoming frames are ignored.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
