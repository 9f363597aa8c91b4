package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/oura-staking/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotFunc returns the messages a freshly connected user should receive first.
type SnapshotFunc func(ctx context.Context, userID string) []interface{}

type WebSocketHandler struct {
	hub      *Hub
	snapshot SnapshotFunc
	logger   *zap.Logger
}

// ClientCount reports the number of open connections.
func (h *WebSocketHandler) ClientCount() int {
	return h.hub.GetClientCount()
}

func NewWebSocketHandler(hub *Hub, snapshot SnapshotFunc, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{hub: hub, snapshot: snapshot, logger: logger}
}

// HandleConnection godoc
// @Summary Subscribe to live updates
// @Description Upgrades to a WebSocket that pushes ledger updates for the caller and token price changes
// @Tags WebSocket
// @Param token query string true "JWT token"
// @Success 101
// @Failure 401 {object} map[string]string
// @Router /ws [get]
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userID := c.GetString("user_id")

	var initial []interface{}
	if h.snapshot != nil {
		initial = h.snapshot(c.Request.Context(), userID)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.RegisterClient(userID, conn, initial...)

	go h.readPump(client)
	go h.writePump(client)
}

// readPump only keeps the connection alive; the socket is push-only.
func (h *WebSocketHandler) readPump(client *models.Client) {
	defer func() {
		h.hub.UnregisterClient(client)
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed", zap.String("client_id", client.ID), zap.Error(err))
			}
			break
		}
	}
}

func (h *WebSocketHandler) writePump(client *models.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
