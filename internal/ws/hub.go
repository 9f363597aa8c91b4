package ws

import (
	"context"
	"sync"
	"time"

	"github.com/oura-staking/backend/internal/metrics"
	"github.com/oura-staking/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	TypeLedgerUpdate = "ledger_update"
	TypePriceUpdate  = "price_update"
)

// envelope is a message addressed to one user, or to everyone when userID is empty.
type envelope struct {
	userID  string
	payload interface{}
}

type Hub struct {
	clients map[string]*models.Client

	register chan *models.Client

	unregister chan *models.Client

	broadcast chan envelope

	// done is closed when Run returns.
	done chan struct{}

	logger *zap.Logger

	mu sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*models.Client),
		register:   make(chan *models.Client),
		unregister: make(chan *models.Client),
		broadcast:  make(chan envelope, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run dispatches messages until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.Close()
			}
			h.mu.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(n))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				if msg.userID != "" && client.UserID != msg.userID {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					h.logger.Warn("client buffer full, skipping message", zap.String("client_id", client.ID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// RegisterClient adds a connection with initial queued ahead of any update.
// After shutdown the client comes back already closed.
func (h *Hub) RegisterClient(userID string, conn *websocket.Conn, initial ...interface{}) *models.Client {
	client := models.NewClient(uuid.New().String(), userID, conn)
	for _, msg := range initial {
		select {
		case client.Send <- msg:
		default:
		}
	}
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
	return client
}

func (h *Hub) UnregisterClient(client *models.Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// PublishLedger pushes a ledger snapshot to every connection of userID.
func (h *Hub) PublishLedger(userID string, ledger models.Ledger) {
	h.enqueue(envelope{userID: userID, payload: models.LedgerUpdate{
		Type:      TypeLedgerUpdate,
		UserID:    userID,
		Ledger:    ledger,
		Timestamp: time.Now().UnixMilli(),
	}})
}

// BroadcastPrice pushes the token price to every connection.
func (h *Hub) BroadcastPrice(price models.TokenPrice) {
	h.enqueue(envelope{payload: models.PriceUpdate{Type: TypePriceUpdate, TokenPrice: price}})
}

// enqueue never blocks the caller; updates are dropped when the hub is saturated.
func (h *Hub) enqueue(msg envelope) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("hub queue full, dropping update", zap.String("user_id", msg.userID))
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
