package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	AuditSteamLinked = "steam_linked"
	AuditTradeURLSet = "trade_url_set"
)

type AuditLog struct {
	ID            uuid.UUID `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Action        string    `json:"action"`
	Meta          any       `json:"meta,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
