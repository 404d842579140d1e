package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateWineLotRequest struct {
	Name           *string         `json:"name"             validate:"omitempty,min=1,max=120"`
	GrapeVariety   string          `json:"grape_variety"    validate:"required,min=1,max=80"`
	VintageYear    *int            `json:"vintage_year"`
	InitialGrapeKg decimal.Decimal `json:"initial_grape_kg" validate:"required"`
	OriginParcelID *string         `json:"origin_parcel_id" validate:"omitempty,uuid"`
}

type SetLotStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=harvested fermenting aging ready_to_bottle bottled"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type WineLotFilter struct {
	Status  string `form:"status"  validate:"omitempty,oneof=harvested fermenting aging ready_to_bottle bottled"`
	Vintage *int   `form:"vintage"`
	Variety string `form:"variety"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type WineLotResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	GrapeVariety     string          `json:"grape_variety"`
	VintageYear      *int            `json:"vintage_year"`
	Status           string          `json:"status"`
	InitialGrapeKg   decimal.Decimal `json:"initial_grape_kg"`
	TotalLiters      decimal.Decimal `json:"total_liters"`
	LitersUnassigned decimal.Decimal `json:"liters_unassigned"`
	OriginParcelID   *string         `json:"origin_parcel_id"`
	SplitFromLotID   *string         `json:"split_from_lot_id"`
	CreatedAt        string          `json:"created_at"`
}

type LabAnalysisResponse struct {
	ID              string           `json:"id"`
	ContainerID     *string          `json:"container_id"`
	AnalysisDate    string           `json:"analysis_date"`
	AlcoholicDegree *decimal.Decimal `json:"alcoholic_degree"`
	PH              *decimal.Decimal `json:"ph"`
	Notes           string           `json:"notes"`
}

// LotTraceabilityResponse is the full record of one lot: where it sits now,
// how it got there, what the lab measured and what was bottled from it.
type LotTraceabilityResponse struct {
	Lot         WineLotResponse       `json:"lot"`
	Containers  []ContainerResponse   `json:"containers"`
	Movements   []MovementResponse    `json:"movements"`
	LabAnalyses []LabAnalysisResponse `json:"lab_analyses"`
	Products    []ProductResponse     `json:"products"`
}

// PrepareBottlingResponse reports the outcome of preparing a lot for bottling.
// When Split is false ReadyLot and OriginalLot are the same lot.
type PrepareBottlingResponse struct {
	Split       bool            `json:"split"`
	ReadyLot    WineLotResponse `json:"ready_lot"`
	OriginalLot WineLotResponse `json:"original_lot"`
}

type LotPlacement struct {
	Lot        WineLotResponse     `json:"lot"`
	Containers []ContainerResponse `json:"containers"`
}

type StatusGroup struct {
	Status string         `json:"status"`
	Lots   []LotPlacement `json:"lots"`
}

type CellarOverviewResponse struct {
	Groups []StatusGroup `json:"groups"`
}
