package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateContainerRequest struct {
	Name           string          `json:"name"            validate:"required,min=1,max=120"`
	Type           string          `json:"type"            validate:"required,oneof=tank barrel"`
	CapacityLiters decimal.Decimal `json:"capacity_liters" validate:"required"`
	Material       *string         `json:"material"        validate:"omitempty,max=60"`
	Location       *string         `json:"location"        validate:"omitempty,max=120"`
}

// UpdateContainerRequest carries registry attributes only; volume, status and
// lot are owned by the movement ledger and cannot be sent here.
type UpdateContainerRequest struct {
	Name           *string          `json:"name"            validate:"omitempty,min=1,max=120"`
	Type           *string          `json:"type"            validate:"omitempty,oneof=tank barrel"`
	CapacityLiters *decimal.Decimal `json:"capacity_liters"`
	Material       *string          `json:"material"        validate:"omitempty,max=60"`
	Location       *string          `json:"location"        validate:"omitempty,max=120"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ContainerFilter struct {
	Type   string `form:"type"   validate:"omitempty,oneof=tank barrel"`
	Status string `form:"status" validate:"omitempty,oneof=empty occupied cleaning"`
	LotID  string `form:"lot_id" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ContainerResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	CapacityLiters decimal.Decimal `json:"capacity_liters"`
	Material       *string         `json:"material"`
	Location       *string         `json:"location"`
	Status         string          `json:"status"`
	CurrentVolume  decimal.Decimal `json:"current_volume"`
	CurrentLotID   *string         `json:"current_lot_id"`
	UpdatedAt      string          `json:"updated_at"`
}
