package models

// LedgerUpdate is pushed to a user's WebSocket subscribers after a ledger mutation.
type LedgerUpdate struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	Ledger    Ledger `json:"ledger"`
	Timestamp int64  `json:"timestamp"`
}

// PriceUpdate is broadcast to every WebSocket client when the token price changes.
type PriceUpdate struct {
	Type       string     `json:"type"`
	TokenPrice TokenPrice `json:"tokenPrice"`
}
