package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skinbridge/backend/internal/models"
	"github.com/skinbridge/backend/internal/steam"
	"go.uber.org/zap"
)

const maxInventoryCount = 2000

// InventoryQuery — параметры запроса страницы инвентаря.
type InventoryQuery struct {
	SteamID      string
	AppID        string
	ContextID    string
	Count        int
	StartAssetID string
}

// InventoryService грузит страницы инвентаря с коротким redis-кешем:
// community endpoint жёстко режет частые запросы, кеш сглаживает
// повторные загрузки одной и той же страницы.
type InventoryService struct {
	fetcher  inventoryFetcher
	cache    inventoryCache
	cacheTTL time.Duration

	defaultAppID     string
	defaultContextID string
	defaultCount     int

	log *zap.Logger
}

func NewInventoryService(
	fetcher inventoryFetcher,
	cache inventoryCache,
	cacheTTL time.Duration,
	defaultAppID, defaultContextID string,
	defaultCount int,
	log *zap.Logger,
) *InventoryService {
	return &InventoryService{
		fetcher:          fetcher,
		cache:            cache,
		cacheTTL:         cacheTTL,
		defaultAppID:     defaultAppID,
		defaultContextID: defaultContextID,
		defaultCount:     defaultCount,
		log:              log,
	}
}

// FetchPage валидирует запрос, подставляет дефолты и возвращает страницу
// инвентаря. Ошибки кеша не фатальны — проваливаемся на upstream.
func (s *InventoryService) FetchPage(ctx context.Context, q InventoryQuery) (*steam.InventoryPage, error) {
	if q.SteamID == "" {
		return nil, ErrMissingSteamIDParam
	}
	if !models.IsValidSteamID(q.SteamID) {
		return nil, ErrInvalidSteamID
	}

	if q.AppID == "" {
		q.AppID = s.defaultAppID
	}
	if q.ContextID == "" {
		q.ContextID = s.defaultContextID
	}
	if q.Count <= 0 {
		q.Count = s.defaultCount
	}
	if q.Count > maxInventoryCount {
		q.Count = maxInventoryCount
	}

	key := fmt.Sprintf("inv:%s:%s:%s:%d:%s", q.SteamID, q.AppID, q.ContextID, q.Count, q.StartAssetID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var page steam.InventoryPage
			if err := json.Unmarshal(cached, &page); err == nil {
				s.log.Debug("inventory cache hit", zap.String("key", key))
				return &page, nil
			}
		}
	}

	page, err := s.fetcher.FetchPage(ctx, q.SteamID, q.AppID, q.ContextID, q.Count, q.StartAssetID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && page.Success == 1 {
		if data, err := json.Marshal(page); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				s.log.Debug("inventory cache write failed", zap.Error(err))
			}
		}
	}

	return page, nil
}

// Normalize склеивает assets и descriptions страницы в плоские предметы.
func (s *InventoryService) Normalize(page *steam.InventoryPage) []steam.Item {
	return steam.MergeDescriptions(page.Assets, page.Descriptions)
}
