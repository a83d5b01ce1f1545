package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/skinbridge/backend/internal/http/dto"
	"github.com/skinbridge/backend/internal/services"
	"github.com/skinbridge/backend/internal/steam"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventoryService *services.InventoryService
	log              *zap.Logger
}

func NewInventoryHandler(inventoryService *services.InventoryService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, log: log}
}

// GetInventory отдаёт страницу публичного инвентаря Steam.
// GET /inventory?steamId=…&appId=…&contextId=…&count=…&start_assetid=…
func (h *InventoryHandler) GetInventory(c *fiber.Ctx) error {
	q := services.InventoryQuery{
		SteamID:      c.Query("steamId"),
		AppID:        c.Query("appId"),
		ContextID:    c.Query("contextId"),
		StartAssetID: c.Query("start_assetid"),
	}
	if v := c.Query("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Count = n
		}
	}

	page, err := h.inventoryService.FetchPage(c.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingSteamIDParam),
			errors.Is(err, services.ErrInvalidSteamID):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, steam.ErrPrivateInventory):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "inventory is private"})
		case errors.Is(err, steam.ErrInventoryUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "steam inventory is temporarily unavailable"})
		default:
			h.log.Error("inventory fetch failed", zap.String("steam_id", q.SteamID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to fetch inventory"})
		}
	}

	// Пустая/закрытая страница приходит без assets и descriptions;
	// наружу всегда уходят массивы, не null.
	assets := page.Assets
	if assets == nil {
		assets = []steam.Asset{}
	}
	descriptions := page.Descriptions
	if descriptions == nil {
		descriptions = []steam.Description{}
	}

	return c.JSON(dto.InventoryResponse{
		Success:             page.Success == 1,
		Assets:              assets,
		Descriptions:        descriptions,
		TotalInventoryCount: page.TotalInventoryCount,
		MoreItems:           page.MoreItems,
		LastAssetID:         page.LastAssetID,
		MoreStart:           page.MoreStart,
	})
}
