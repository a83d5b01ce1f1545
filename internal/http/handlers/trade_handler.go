package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/skinbridge/backend/internal/http/dto"
	"github.com/skinbridge/backend/internal/repositories"
	"github.com/skinbridge/backend/internal/services"
	"go.uber.org/zap"
)

type TradeHandler struct {
	linkService *services.LinkService
	log         *zap.Logger
}

func NewTradeHandler(linkService *services.LinkService, log *zap.Logger) *TradeHandler {
	return &TradeHandler{linkService: linkService, log: log}
}

// SetTradeURL сохраняет trade URL кошелька.
// POST /trade-endpoint
func (h *TradeHandler) SetTradeURL(c *fiber.Ctx) error {
	var req dto.TradeURLRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	record, err := h.linkService.SetTradeURL(c.Context(), req.WalletAddress, req.TradeURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingTradeURL),
			errors.Is(err, services.ErrInvalidWallet),
			errors.Is(err, services.ErrInvalidTradeURL):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			h.log.Error("trade url save failed", zap.String("wallet", req.WalletAddress), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to save trade url"})
		}
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: record})
}

// GetTradeURL возвращает сохранённый trade URL.
// GET /trade-endpoint?wallet_address=0x…
func (h *TradeHandler) GetTradeURL(c *fiber.Ctx) error {
	wallet := c.Query("wallet_address")

	tradeURL, err := h.linkService.GetTradeURL(c.Context(), wallet)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingWallet):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, repositories.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "wallet not found"})
		default:
			h.log.Error("trade url lookup failed", zap.String("wallet", wallet), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(dto.SuccessResponse{Success: true, Data: fiber.Map{
		"wallet_address": wallet,
		"trade_url":      tradeURL,
	}})
}
