package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrPrivateInventory — инвентарь закрыт настройками приватности (403).
	ErrPrivateInventory = errors.New("steam inventory is private")
	// ErrInventoryUnavailable — инвентарный endpoint отвечает 5xx.
	ErrInventoryUnavailable = errors.New("steam inventory temporarily unavailable")
)

// Asset — запись владения: какая копия предмета лежит у пользователя.
type Asset struct {
	AppID      int    `json:"appid"`
	ContextID  string `json:"contextid"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
	Pos        int    `json:"pos,omitempty"`
}

type DescriptionLine struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

type Action struct {
	Link string `json:"link"`
	Name string `json:"name"`
}

type Tag struct {
	Category              string `json:"category"`
	InternalName          string `json:"internal_name"`
	LocalizedCategoryName string `json:"localized_category_name"`
	LocalizedTagName      string `json:"localized_tag_name"`
	Color                 string `json:"color,omitempty"`
}

// Description — общее определение предмета (имя, редкость, tradability),
// разделяемое всеми копиями одного (classid, instanceid).
type Description struct {
	AppID                       int               `json:"appid"`
	ClassID                     string            `json:"classid"`
	InstanceID                  string            `json:"instanceid"`
	Currency                    int               `json:"currency,omitempty"`
	BackgroundColor             string            `json:"background_color,omitempty"`
	IconURL                     string            `json:"icon_url"`
	IconURLLarge                string            `json:"icon_url_large,omitempty"`
	Descriptions                []DescriptionLine `json:"descriptions,omitempty"`
	Tradable                    int               `json:"tradable"`
	Actions                     []Action          `json:"actions,omitempty"`
	Name                        string            `json:"name"`
	NameColor                   string            `json:"name_color,omitempty"`
	Type                        string            `json:"type"`
	MarketName                  string            `json:"market_name"`
	MarketHashName              string            `json:"market_hash_name"`
	MarketActions               []Action          `json:"market_actions,omitempty"`
	Commodity                   int               `json:"commodity"`
	MarketTradableRestriction   int               `json:"market_tradable_restriction,omitempty"`
	MarketMarketableRestriction int               `json:"market_marketable_restriction,omitempty"`
	Marketable                  int               `json:"marketable"`
	Tags                        []Tag             `json:"tags,omitempty"`
}

// InventoryPage — одна страница инвентаря как её отдаёт Steam.
type InventoryPage struct {
	Success             int           `json:"success"`
	TotalInventoryCount int           `json:"total_inventory_count,omitempty"`
	Assets              []Asset       `json:"assets,omitempty"`
	Descriptions        []Description `json:"descriptions,omitempty"`
	MoreItems           int           `json:"more_items,omitempty"`
	LastAssetID         string        `json:"last_assetid,omitempty"`
	MoreStart           int           `json:"more_start,omitempty"`
	Error               string        `json:"error,omitempty"`
}

// InventoryClient читает публичный инвентарь через community endpoint
// (без API key, зато с агрессивным rate limiting на стороне Steam).
type InventoryClient struct {
	baseURL string
	client  *resty.Client
	log     *zap.Logger
}

func NewInventoryClient(baseURL string, timeout time.Duration, log *zap.Logger) *InventoryClient {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json, text/plain, */*")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &InventoryClient{
		baseURL: baseURL,
		client:  client,
		log:     log,
	}
}

// FetchPage загружает страницу инвентаря. startAssetID — курсор пагинации.
func (c *InventoryClient) FetchPage(ctx context.Context, steamID, appID, contextID string, count int, startAssetID string) (*InventoryPage, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("l", "english").
		SetQueryParam("count", fmt.Sprintf("%d", count))
	if startAssetID != "" {
		req.SetQueryParam("start_assetid", startAssetID)
	}

	url := fmt.Sprintf("%s/inventory/%s/%s/%s", c.baseURL, steamID, appID, contextID)
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("steam inventory unavailable: %w", err)
	}

	switch {
	case resp.StatusCode() == 403:
		return nil, ErrPrivateInventory
	case resp.StatusCode() >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrInventoryUnavailable, resp.StatusCode())
	case resp.StatusCode() != 200:
		return nil, fmt.Errorf("steam inventory returned %d", resp.StatusCode())
	}

	var page InventoryPage
	if err := json.Unmarshal(resp.Body(), &page); err != nil {
		return nil, fmt.Errorf("unparseable inventory response: %w", err)
	}

	return &page, nil
}
