package steam

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	openIDNamespace        = "http://specs.openid.net/auth/2.0"
	openIDIdentifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"
)

var (
	// ErrInvalidNamespace — ответ провайдера с неожиданным openid.ns.
	ErrInvalidNamespace = errors.New("invalid openid namespace in response")
	// ErrInvalidMode — openid.mode не id_res.
	ErrInvalidMode = errors.New("invalid openid mode in response")
	// ErrVerificationFailed — запрос check_authentication к провайдеру не прошёл.
	ErrVerificationFailed = errors.New("openid verification request failed")
	// ErrAuthenticationFailed — провайдер не подтвердил подпись (нет is_valid:true).
	ErrAuthenticationFailed = errors.New("openid assertion not confirmed by provider")
	// ErrMissingSteamID — claimed_id не содержит идентификатор.
	ErrMissingSteamID = errors.New("claimed_id carries no steam id")
)

// OpenIDClient выполняет OpenID 2.0 handshake со Steam:
// checkid_setup → id_res → check_authentication.
//
// Параметры ответа id_res подделываемы на стороне клиента, поэтому до
// какого-либо доверия к claimed_id обязателен server-to-server запрос
// check_authentication — только провайдер может подтвердить подпись.
type OpenIDClient struct {
	loginURL  string
	returnURL string
	client    *resty.Client
	log       *zap.Logger
}

// NewOpenIDClient создаёт клиент. loginURL — endpoint провайдера,
// callbackURL — полный URL нашего callback-обработчика (return_to).
func NewOpenIDClient(loginURL, callbackURL string, timeout time.Duration, log *zap.Logger) *OpenIDClient {
	client := resty.New()
	client.SetTimeout(timeout)

	return &OpenIDClient{
		loginURL:  loginURL,
		returnURL: callbackURL,
		client:    client,
		log:       log,
	}
}

// AuthURL строит redirect на провайдера. Wallet кладём в return_to query:
// серверной сессии нет, адрес должен пережить весь round-trip.
func (c *OpenIDClient) AuthURL(walletAddress string) (string, error) {
	returnTo := fmt.Sprintf("%s?wallet=%s", c.returnURL, url.QueryEscape(walletAddress))

	parsed, err := url.Parse(returnTo)
	if err != nil {
		return "", fmt.Errorf("invalid return url: %w", err)
	}
	realm := parsed.Scheme + "://" + parsed.Host

	params := url.Values{
		"openid.ns":         {openIDNamespace},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {returnTo},
		"openid.realm":      {realm},
		"openid.identity":   {openIDIdentifierSelect},
		"openid.claimed_id": {openIDIdentifierSelect},
	}

	return c.loginURL + "?" + params.Encode(), nil
}

// Verify проверяет callback-параметры и подтверждает assertion у провайдера.
// Возвращает steam id — последний сегмент пути claimed_id.
func (c *OpenIDClient) Verify(ctx context.Context, params url.Values) (string, error) {
	if params.Get("openid.ns") != openIDNamespace {
		return "", ErrInvalidNamespace
	}
	if params.Get("openid.mode") != "id_res" {
		return "", ErrInvalidMode
	}

	// Переотправляем провайдеру все исходные параметры кроме mode,
	// с mode=check_authentication.
	verify := url.Values{}
	for key, vals := range params {
		if key == "openid.mode" || key == "wallet" {
			continue
		}
		for _, v := range vals {
			verify.Add(key, v)
		}
	}
	verify.Set("openid.mode", "check_authentication")

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(verify.Encode()).
		Post(c.loginURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: provider returned %d", ErrVerificationFailed, resp.StatusCode())
	}

	if !strings.Contains(string(resp.Body()), "is_valid:true") {
		return "", ErrAuthenticationFailed
	}

	steamID := extractSteamID(params.Get("openid.claimed_id"))
	if steamID == "" {
		return "", ErrMissingSteamID
	}

	return steamID, nil
}

// extractSteamID берёт последний сегмент пути claimed identifier,
// например https://steamcommunity.com/openid/id/7656119... → 7656119...
func extractSteamID(claimedID string) string {
	if claimedID == "" {
		return ""
	}
	trimmed := strings.TrimRight(claimedID, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[idx+1:]
}
