package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"order_chat/internal/config"
	"order_chat/internal/domain"
	"order_chat/internal/hub"
	"order_chat/internal/metrics"
	"order_chat/internal/service"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/logger"
)

// Client frame types.
const (
	FrameSendMessage    = "sendMessage"
	FrameJoinOrderChat  = "joinOrderChat"
	FrameLeaveOrderChat = "leaveOrderChat"
	FrameMarkAsRead     = "markAsRead"
)

const frameTimeout = 10 * time.Second

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// ClientFrame is a request sent by a client over the socket.
type ClientFrame struct {
	Type       string `json:"type"`
	RequestID  string `json:"request_id,omitempty"`
	OrderID    int64  `json:"order_id,omitempty"`
	Content    string `json:"content,omitempty"`
	ReceiverID *int64 `json:"receiver_id,omitempty"`
	MessageID  int64  `json:"message_id,omitempty"`
}

// Identifier resolves the caller of a request.
type Identifier interface {
	Identify(c *gin.Context) (domain.Identity, error)
}

// ConnectionReplier sends an event to a single connection.
type ConnectionReplier interface {
	RouteToConnection(connID string, event string, payload interface{}) error
}

type WebSocketHandler struct {
	auth      Identifier
	presence  service.PresenceService
	chat      service.ChatService
	rateLimit service.RateLimitService
	replier   ConnectionReplier
	upgrader  websocket.Upgrader
	cfg       config.HubConfig
	log       logger.Logger
}

func NewWebSocketHandler(
	auth Identifier,
	presence service.PresenceService,
	chat service.ChatService,
	rateLimit service.RateLimitService,
	replier ConnectionReplier,
	allowedOrigins []string,
	cfg config.HubConfig,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		auth:      auth,
		presence:  presence,
		chat:      chat,
		rateLimit: rateLimit,
		replier:   replier,
		upgrader:  newUpgrader(allowedOrigins),
		cfg:       cfg,
		log:       log,
	}
}

func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	identity, err := h.auth.Identify(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	ctx := c.Request.Context()
	conn := h.presence.OnConnect(ctx, identity)
	metrics.ActiveConnections.Inc()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(ws, conn)
	}()

	h.readPump(ctx, ws, conn)

	h.presence.OnDisconnect(conn)
	metrics.ActiveConnections.Dec()
	<-done
}

// readPump handles client frames one at a time until the socket fails.
func (h *WebSocketHandler) readPump(ctx context.Context, ws *websocket.Conn, conn *hub.Connection) {
	ws.SetReadLimit(h.cfg.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("WebSocket read failed", "error", err, "conn_id", conn.ID)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		h.handleFrame(ctx, conn, raw)
	}
}

// writePump drains the connection's queue and keeps the socket alive. It
// returns once the registry closes the queue or a write fails.
func (h *WebSocketHandler) writePump(ws *websocket.Conn, conn *hub.Connection) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case frame, ok := <-conn.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.log.Debug("WebSocket write failed", "error", err, "conn_id", conn.ID)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleFrame(ctx context.Context, conn *hub.Connection, raw []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		metrics.ClientFrames.WithLabelValues("invalid", "error").Inc()
		h.replyError(conn, "", fmt.Errorf("%w: malformed frame", apperrors.ErrBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	var err error
	switch frame.Type {
	case FrameSendMessage:
		err = h.sendMessage(ctx, conn, frame)
	case FrameJoinOrderChat:
		err = h.presence.JoinOrderChat(ctx, conn, frame.OrderID)
	case FrameLeaveOrderChat:
		err = h.presence.LeaveOrderChat(ctx, conn, frame.OrderID)
	case FrameMarkAsRead:
		err = h.chat.MarkAsRead(ctx, conn.Identity, frame.MessageID)
	default:
		metrics.ClientFrames.WithLabelValues("unknown", "error").Inc()
		h.replyError(conn, frame.RequestID, fmt.Errorf("%w: unknown frame type %q", apperrors.ErrBadRequest, frame.Type))
		return
	}

	if err != nil {
		metrics.ClientFrames.WithLabelValues(frame.Type, "error").Inc()
		h.log.Debug("Client frame failed", "error", err, "type", frame.Type, "conn_id", conn.ID, "user_id", conn.Identity.UserID)
		h.replyError(conn, frame.RequestID, err)
		return
	}
	metrics.ClientFrames.WithLabelValues(frame.Type, "ok").Inc()
}

func (h *WebSocketHandler) sendMessage(ctx context.Context, conn *hub.Connection, frame ClientFrame) error {
	if h.rateLimit != nil && conn.Identity.Authenticated() {
		if allowed, _ := h.rateLimit.Allow(ctx, fmt.Sprintf("send:user:%d", conn.Identity.UserID)); !allowed {
			metrics.RateLimitExceeded.Inc()
			return apperrors.ErrRateLimited
		}
	}

	_, err := h.chat.SendMessage(ctx, conn.Identity, frame.OrderID, frame.Content, frame.ReceiverID)
	return err
}

func (h *WebSocketHandler) replyError(conn *hub.Connection, requestID string, err error) {
	event := domain.ErrorEvent{
		RequestID: requestID,
		Error:     apperrors.PublicMessage(err),
		Code:      apperrors.HTTPStatusFromError(err),
	}
	if rerr := h.replier.RouteToConnection(conn.ID, domain.EventError, event); rerr != nil {
		h.log.Warn("Failed to send error event", "error", rerr, "conn_id", conn.ID)
	}
}
