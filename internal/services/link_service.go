package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/skinbridge/backend/internal/events"
	"github.com/skinbridge/backend/internal/models"
	"github.com/skinbridge/backend/internal/repositories"
	"github.com/skinbridge/backend/internal/steam"
	"go.uber.org/zap"
)

// Ошибки валидации входа — отбрасываются до какого-либо I/O.
var (
	ErrMissingWallet   = errors.New("wallet address is required")
	ErrInvalidWallet   = errors.New("invalid wallet address format")
	ErrMissingFields   = errors.New("wallet_address, steam_id and steam_username are required")
	ErrInvalidSteamID  = errors.New("invalid steam id format (must be 17 digits)")
	ErrMissingTradeURL = errors.New("wallet_address and trade_url are required")
	ErrInvalidTradeURL = errors.New("invalid steam trade url format")

	ErrMissingSteamIDParam = errors.New("steam id is required")
)

// CallbackError — код и сообщение для redirect'а на фронтенд.
// Callback сам ничего не рендерит, все ошибки уезжают в query params.
type CallbackError struct {
	Code    string
	Message string
}

func (e *CallbackError) Error() string {
	return e.Code + ": " + e.Message
}

// LinkSuccess — payload успешного callback'а, уезжает на фронтенд
// в query param data.
type LinkSuccess struct {
	Success       bool   `json:"success"`
	WalletAddress string `json:"wallet_address"`
	SteamID       string `json:"steam_id"`
	SteamUsername string `json:"steam_username"`
	SteamAvatar   string `json:"steam_avatar"`
}

// LinkRequest — ручная привязка через POST /identity/link.
type LinkRequest struct {
	WalletAddress   string
	SteamID         string
	SteamUsername   string
	SteamAvatar     *string
	SteamProfileURL *string
}

// LinkService оркестрирует привязку: OpenID handshake, профиль,
// персистенция, trade URL и вычисление шага онбординга.
type LinkService struct {
	store     linkStore
	audit     auditStore
	verifier  identityVerifier
	profiles  profileFetcher
	publisher events.Publisher
	log       *zap.Logger
}

func NewLinkService(
	store linkStore,
	audit auditStore,
	verifier identityVerifier,
	profiles profileFetcher,
	publisher events.Publisher,
	log *zap.Logger,
) *LinkService {
	return &LinkService{
		store:     store,
		audit:     audit,
		verifier:  verifier,
		profiles:  profiles,
		publisher: publisher,
		log:       log,
	}
}

// BeginAuth валидирует кошелёк и строит redirect на провайдера.
func (s *LinkService) BeginAuth(walletAddress string) (string, error) {
	if walletAddress == "" {
		return "", ErrMissingWallet
	}
	if !models.IsValidWalletAddress(walletAddress) {
		return "", ErrInvalidWallet
	}
	return s.verifier.AuthURL(walletAddress)
}

// HandleCallback проводит полный цикл: подтверждение assertion у
// провайдера, чтение профиля, атомарный upsert привязки. Любая ошибка
// превращается в CallbackError с кодом для фронтенда.
func (s *LinkService) HandleCallback(ctx context.Context, params url.Values) (*LinkSuccess, *CallbackError) {
	walletAddress := params.Get("wallet")
	if walletAddress == "" {
		return nil, &CallbackError{Code: "missing_wallet", Message: "No wallet address provided"}
	}

	steamID, err := s.verifier.Verify(ctx, params)
	if err != nil {
		s.log.Warn("openid verification failed", zap.String("wallet", walletAddress), zap.Error(err))
		return nil, callbackErrorFromVerify(err)
	}

	profile, err := s.profiles.PlayerSummary(ctx, steamID)
	if err != nil {
		s.log.Error("profile fetch failed", zap.String("steam_id", steamID), zap.Error(err))
		if errors.Is(err, steam.ErrProfileNotFound) {
			return nil, &CallbackError{Code: "steam_data_error", Message: "Steam profile data is empty or incomplete"}
		}
		return nil, &CallbackError{Code: "steam_api_error", Message: "Failed to fetch Steam profile data"}
	}

	avatar := profile.BestAvatar()
	record, err := s.store.UpsertLink(ctx, walletAddress, steamID,
		strPtr(profile.PersonaName), strPtr(avatar), strPtr(profile.ProfileURL))
	if err != nil {
		s.log.Error("link upsert failed", zap.String("wallet", walletAddress), zap.Error(err))
		switch {
		case errors.Is(err, repositories.ErrSteamIDLinked):
			return nil, &CallbackError{Code: "steam_linked", Message: "This Steam account is already linked to another wallet"}
		case errors.Is(err, repositories.ErrWalletLinked):
			return nil, &CallbackError{Code: "wallet_linked", Message: "This wallet already has a different Steam account linked"}
		default:
			return nil, &CallbackError{Code: "db_save_error", Message: "Failed to save the link"}
		}
	}

	s.afterLink(ctx, record)

	s.log.Info("steam account linked",
		zap.String("wallet", walletAddress),
		zap.String("steam_id", steamID),
	)

	return &LinkSuccess{
		Success:       true,
		WalletAddress: walletAddress,
		SteamID:       steamID,
		SteamUsername: profile.PersonaName,
		SteamAvatar:   avatar,
	}, nil
}

// Link — ручная привязка (без OpenID round-trip): данные приходят телом
// запроса и валидируются здесь.
func (s *LinkService) Link(ctx context.Context, req LinkRequest) (*models.UserLink, error) {
	if req.WalletAddress == "" || req.SteamID == "" || req.SteamUsername == "" {
		return nil, ErrMissingFields
	}
	if !models.IsValidWalletAddress(req.WalletAddress) {
		return nil, ErrInvalidWallet
	}
	if !models.IsValidSteamID(req.SteamID) {
		return nil, ErrInvalidSteamID
	}

	record, err := s.store.UpsertLink(ctx, req.WalletAddress, req.SteamID,
		strPtr(req.SteamUsername), req.SteamAvatar, req.SteamProfileURL)
	if err != nil {
		return nil, err
	}

	s.afterLink(ctx, record)

	return record, nil
}

// Status возвращает запись привязки кошелька.
func (s *LinkService) Status(ctx context.Context, walletAddress string) (*models.UserLink, error) {
	if walletAddress == "" {
		return nil, ErrMissingWallet
	}
	return s.store.GetByWallet(ctx, walletAddress)
}

// SetTradeURL валидирует и сохраняет trade URL. Identity-поля записи
// не трогаются; если записи нет, создаётся голая (wallet + trade_url).
func (s *LinkService) SetTradeURL(ctx context.Context, walletAddress, tradeURL string) (*models.UserLink, error) {
	if walletAddress == "" || tradeURL == "" {
		return nil, ErrMissingTradeURL
	}
	if !models.IsValidWalletAddress(walletAddress) {
		return nil, ErrInvalidWallet
	}
	if !models.IsValidTradeURL(tradeURL) {
		return nil, ErrInvalidTradeURL
	}

	record, err := s.store.UpsertTradeURL(ctx, walletAddress, tradeURL)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		WalletAddress: walletAddress,
		Action:        models.AuditTradeURLSet,
	})
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.StreamLinks, events.Event{
			Type:    events.EventTradeURLSet,
			Payload: map[string]any{"wallet_address": walletAddress},
		})
	}

	return record, nil
}

// GetTradeURL возвращает сохранённый trade URL (nil, если записи ещё
// нет URL — это не то же самое, что отсутствие записи).
func (s *LinkService) GetTradeURL(ctx context.Context, walletAddress string) (*string, error) {
	if walletAddress == "" {
		return nil, ErrMissingWallet
	}
	return s.store.GetTradeURL(ctx, walletAddress)
}

// History возвращает журнал действий привязки по кошельку.
func (s *LinkService) History(ctx context.Context, walletAddress string, limit, offset int) ([]models.AuditLog, error) {
	if walletAddress == "" {
		return nil, ErrMissingWallet
	}
	return s.audit.GetByWallet(ctx, walletAddress, limit, offset)
}

// OnboardingStep вычисляет текущий шаг онбординга для кошелька.
func (s *LinkService) OnboardingStep(ctx context.Context, walletAddress string, walletConnected bool) (string, *models.UserLink, error) {
	if !walletConnected || walletAddress == "" {
		return models.DeriveStep(false, models.LinkState{}), nil, nil
	}

	record, err := s.store.GetByWallet(ctx, walletAddress)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", nil, err
	}

	state := models.LinkState{Known: true, Record: record}
	return models.DeriveStep(true, state), record, nil
}

func (s *LinkService) afterLink(ctx context.Context, record *models.UserLink) {
	_ = s.audit.Log(ctx, models.AuditLog{
		WalletAddress: record.WalletAddress,
		Action:        models.AuditSteamLinked,
		Meta:          map[string]any{"steam_id": derefStr(record.SteamID)},
	})
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, events.StreamLinks, events.Event{
			Type: events.EventSteamLinked,
			Payload: map[string]any{
				"wallet_address": record.WalletAddress,
				"steam_id":       derefStr(record.SteamID),
			},
		})
	}
}

func callbackErrorFromVerify(err error) *CallbackError {
	switch {
	case errors.Is(err, steam.ErrInvalidNamespace):
		return &CallbackError{Code: "invalid_response", Message: "Invalid response from Steam"}
	case errors.Is(err, steam.ErrInvalidMode):
		return &CallbackError{Code: "invalid_mode", Message: "Invalid Steam response mode"}
	case errors.Is(err, steam.ErrAuthenticationFailed):
		return &CallbackError{Code: "authentication_failed", Message: "Steam authentication failed"}
	case errors.Is(err, steam.ErrMissingSteamID):
		return &CallbackError{Code: "missing_steam_id", Message: "Could not extract Steam ID"}
	default:
		return &CallbackError{Code: "verification_failed", Message: "Failed to verify with Steam"}
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
