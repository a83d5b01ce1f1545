package events

import "context"

// Event types
const (
	EventSteamLinked = "steam_linked"
	EventTradeURLSet = "trade_url_set"
)

// StreamLinks — канал, в который публикуются события привязки.
const StreamLinks = "links"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}
