package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RecordMovementRequest is the generic ledger entry. Volume may be omitted
// only for bottling, which always drains the whole source.
type RecordMovementRequest struct {
	LotID                  string           `json:"lot_id"                   validate:"required,uuid"`
	Type                   string           `json:"type"                     validate:"required,oneof=initial_fill transfer bottling top_up"`
	SourceContainerID      *string          `json:"source_container_id"      validate:"omitempty,uuid"`
	DestinationContainerID *string          `json:"destination_container_id" validate:"omitempty,uuid"`
	Volume                 *decimal.Decimal `json:"volume"`
}

type TransferLeg struct {
	ContainerID string          `json:"container_id" validate:"required,uuid"`
	Volume      decimal.Decimal `json:"volume"       validate:"required"`
}

type BulkTransferRequest struct {
	LotID             string        `json:"lot_id"              validate:"required,uuid"`
	SourceContainerID string        `json:"source_container_id" validate:"required,uuid"`
	Destinations      []TransferLeg `json:"destinations"        validate:"required,min=1,max=100,dive"`
}

type TopUpRequest struct {
	LotID       string          `json:"lot_id"       validate:"required,uuid"`
	ContainerID string          `json:"container_id" validate:"required,uuid"`
	Volume      decimal.Decimal `json:"volume"       validate:"required"`
}

type BottlingRequest struct {
	LotID             string           `json:"lot_id"              validate:"required,uuid"`
	SourceContainerID string           `json:"source_container_id" validate:"required,uuid"`
	Volume            *decimal.Decimal `json:"volume"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type MovementFilter struct {
	LotID       string `form:"lot_id"       validate:"omitempty,uuid"`
	ContainerID string `form:"container_id" validate:"omitempty,uuid"`
	Type        string `form:"type"         validate:"omitempty,oneof=initial_fill transfer bottling top_up"`
	Page        int    `form:"page,default=1"    validate:"min=1"`
	Limit       int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID                     string          `json:"id"`
	LotID                  string          `json:"lot_id"`
	Type                   string          `json:"type"`
	SourceContainerID      *string         `json:"source_container_id"`
	DestinationContainerID *string         `json:"destination_container_id"`
	Volume                 decimal.Decimal `json:"volume"`
	CreatedAt              string          `json:"created_at"`
}

// MovementResult is returned by every ledger write: the recorded movements
// and the state they left behind.
type MovementResult struct {
	Movements  []MovementResponse  `json:"movements"`
	Lot        WineLotResponse     `json:"lot"`
	Containers []ContainerResponse `json:"containers"`
}

type MovementListResponse struct {
	Data       []MovementResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
