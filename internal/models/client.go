package models

import (
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	ID        string
	UserID    string
	Conn      *websocket.Conn
	Send      chan interface{}
	closeOnce sync.Once
}

func NewClient(id, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan interface{}, 256),
	}
}

// Close releases the connection; it is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}
