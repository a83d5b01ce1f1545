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

// ErrProfileNotFound — провайдер вернул пустой список игроков.
var ErrProfileNotFound = errors.New("steam profile not found")

type PlayerSummary struct {
	SteamID      string `json:"steamid"`
	PersonaName  string `json:"personaname"`
	ProfileURL   string `json:"profileurl"`
	Avatar       string `json:"avatar"`
	AvatarMedium string `json:"avatarmedium"`
	AvatarFull   string `json:"avatarfull"`
	CountryCode  string `json:"loccountrycode,omitempty"`
}

// BestAvatar возвращает самый крупный из доступных аватаров.
func (p *PlayerSummary) BestAvatar() string {
	if p.AvatarFull != "" {
		return p.AvatarFull
	}
	if p.AvatarMedium != "" {
		return p.AvatarMedium
	}
	return p.Avatar
}

type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

// ProfileClient читает публичные профили через Steam Web API (нужен API key).
type ProfileClient struct {
	apiKey  string
	baseURL string
	client  *resty.Client
	log     *zap.Logger
}

func NewProfileClient(apiKey, baseURL string, timeout time.Duration, log *zap.Logger) *ProfileClient {
	client := resty.New()
	client.SetTimeout(timeout)

	return &ProfileClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		log:     log,
	}
}

func (c *ProfileClient) PlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":      c.apiKey,
			"steamids": steamID,
		}).
		Get(c.baseURL + "/ISteamUser/GetPlayerSummaries/v0002/")
	if err != nil {
		return nil, fmt.Errorf("steam web api unavailable: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("steam web api returned %d", resp.StatusCode())
	}

	var parsed playerSummariesResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable player summaries response: %w", err)
	}

	if len(parsed.Response.Players) == 0 {
		return nil, ErrProfileNotFound
	}

	return &parsed.Response.Players[0], nil
}
