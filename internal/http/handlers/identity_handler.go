package handlers

import (
	"encoding/json"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/skinbridge/backend/internal/http/dto"
	"github.com/skinbridge/backend/internal/models"
	"github.com/skinbridge/backend/internal/repositories"
	"github.com/skinbridge/backend/internal/services"
	"go.uber.org/zap"
)

type IdentityHandler struct {
	linkService *services.LinkService
	frontendURL string
	log         *zap.Logger
}

func NewIdentityHandler(linkService *services.LinkService, frontendURL string, log *zap.Logger) *IdentityHandler {
	return &IdentityHandler{linkService: linkService, frontendURL: frontendURL, log: log}
}

// Auth начинает OpenID handshake: 302 на провайдера.
// GET /identity/auth?wallet=0x…
func (h *IdentityHandler) Auth(c *fiber.Ctx) error {
	authURL, err := h.linkService.BeginAuth(c.Query("wallet"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Redirect(authURL, fiber.StatusFound)
}

// Callback принимает возврат от провайдера. Рендерить тут нечего,
// поэтому любой исход — редирект на фронтенд с параметрами в query.
// GET /identity/callback
func (h *IdentityHandler) Callback(c *fiber.Ctx) error {
	params := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		params.Add(string(key), string(value))
	})

	result, cbErr := h.linkService.HandleCallback(c.Context(), params)
	if cbErr != nil {
		return c.Redirect(h.redirectError(cbErr.Code, cbErr.Message), fiber.StatusFound)
	}

	data, err := json.Marshal(result)
	if err != nil {
		h.log.Error("callback payload marshal failed", zap.Error(err))
		return c.Redirect(h.redirectError("steam_data_error", "Failed to encode link data"), fiber.StatusFound)
	}

	q := url.Values{}
	q.Set("steam_link_success", "true")
	q.Set("data", string(data))
	return c.Redirect(h.frontendURL+"/?"+q.Encode(), fiber.StatusFound)
}

// Link — ручная привязка без OpenID round-trip.
// POST /identity/link
func (h *IdentityHandler) Link(c *fiber.Ctx) error {
	var req dto.LinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	record, err := h.linkService.Link(c.Context(), services.LinkRequest{
		WalletAddress:   req.WalletAddress,
		SteamID:         req.SteamID,
		SteamUsername:   req.SteamUsername,
		SteamAvatar:     req.SteamAvatar,
		SteamProfileURL: req.SteamProfileURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSteamIDLinked),
			errors.Is(err, repositories.ErrWalletLinked):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, services.ErrMissingFields),
			errors.Is(err, services.ErrInvalidWallet),
			errors.Is(err, services.ErrInvalidSteamID):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			h.log.Error("manual link failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to save the link"})
		}
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: record})
}

// Status возвращает состояние привязки кошелька.
// GET /identity/link/status?wallet=0x…
func (h *IdentityHandler) Status(c *fiber.Ctx) error {
	record, err := h.linkService.Status(c.Context(), c.Query("wallet"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingWallet):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, repositories.ErrNotFound):
			return c.JSON(dto.StatusResponse{Success: false, Message: "No Steam account linked to this wallet"})
		default:
			h.log.Error("link status failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}

	// Запись есть, но steam ещё не привязан (создана через trade URL)
	if !record.SteamLinked() {
		return c.JSON(dto.StatusResponse{Success: false, Message: "No Steam account linked to this wallet"})
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: record})
}

// History отдаёт журнал действий привязки кошелька.
// GET /identity/link/history?wallet=0x…&limit=&offset=
func (h *IdentityHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	logs, err := h.linkService.History(c.Context(), c.Query("wallet"), limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrMissingWallet) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("link history failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: logs})
}

// Onboarding вычисляет текущий шаг онбординга.
// GET /identity/onboarding?wallet=0x…&wallet_connected=true
func (h *IdentityHandler) Onboarding(c *fiber.Ctx) error {
	walletConnected := c.QueryBool("wallet_connected", false)

	step, record, err := h.linkService.OnboardingStep(c.Context(), c.Query("wallet"), walletConnected)
	if err != nil {
		h.log.Error("onboarding step failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	resp := dto.OnboardingResponse{Step: step}
	if record != nil {
		resp.Link = record
	}
	return c.JSON(dto.SuccessResponse{Success: true, Data: resp})
}

func (h *IdentityHandler) redirectError(code, message string) string {
	q := url.Values{}
	q.Set("error", code)
	q.Set("message", message)
	return h.frontendURL + "/?" + q.Encode()
}
