package dto

import "github.com/skinbridge/backend/internal/steam"

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// StatusResponse отдаётся, когда запись есть, но steam ещё не привязан.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// InventoryResponse повторяет форму страницы инвентаря Steam,
// разворачивая её в корень ответа.
type InventoryResponse struct {
	Success             bool                `json:"success"`
	Assets              []steam.Asset       `json:"assets"`
	Descriptions        []steam.Description `json:"descriptions"`
	TotalInventoryCount int                 `json:"total_inventory_count"`
	MoreItems           int                 `json:"more_items,omitempty"`
	LastAssetID         string              `json:"last_assetid,omitempty"`
	MoreStart           int                 `json:"more_start,omitempty"`
}

type OnboardingResponse struct {
	Step string `json:"step"`
	Link any    `json:"link,omitempty"`
}
