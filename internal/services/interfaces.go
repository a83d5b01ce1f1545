package services

import (
	"context"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skinbridge/backend/internal/models"
	"github.com/skinbridge/backend/internal/steam"
)

// Интерфейсы хранилищ объявлены на стороне сервиса: в тестах вместо
// pgx-репозиториев подставляются in-memory фейки.

type linkStore interface {
	GetByWallet(ctx context.Context, wallet string) (*models.UserLink, error)
	UpsertLink(ctx context.Context, wallet, steamID string, username, avatar, profileURL *string) (*models.UserLink, error)
	UpsertTradeURL(ctx context.Context, wallet, tradeURL string) (*models.UserLink, error)
	GetTradeURL(ctx context.Context, wallet string) (*string, error)
}

type auditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByWallet(ctx context.Context, wallet string, limit, offset int) ([]models.AuditLog, error)
}

type identityVerifier interface {
	AuthURL(walletAddress string) (string, error)
	Verify(ctx context.Context, params url.Values) (string, error)
}

type profileFetcher interface {
	PlayerSummary(ctx context.Context, steamID string) (*steam.PlayerSummary, error)
}

type inventoryFetcher interface {
	FetchPage(ctx context.Context, steamID, appID, contextID string, count int, startAssetID string) (*steam.InventoryPage, error)
}

// inventoryCache — подмножество *redis.Client, достаточное для кеша
// страниц инвентаря.
type inventoryCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}
