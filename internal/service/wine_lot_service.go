package service

import (
	"context"
	"fmt"
	"strings"

	"winecellar/internal/apierror"
	"winecellar/internal/dto"
	"winecellar/internal/model"
	"winecellar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	minVintage = 1900
	maxVintage = 2100
)

// WineLotRepos groups the stores the lot registry reads and, on delete,
// cleans up.
type WineLotRepos struct {
	Lots       repository.WineLotRepository
	Containers repository.ContainerRepository
	Movements  repository.MovementRepository
	Products   repository.ProductRepository
	Costs      repository.CostLedger
	Labs       repository.LabAnalysisRepository
	Parcels    repository.ParcelRepository
}

type WineLotService interface {
	Create(ctx context.Context, req dto.CreateWineLotRequest) (*dto.WineLotResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.WineLotResponse, error)
	List(ctx context.Context, filter dto.WineLotFilter) ([]dto.WineLotResponse, error)
	SetStatus(ctx context.Context, id uuid.UUID, req dto.SetLotStatusRequest) (*dto.WineLotResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListMovements(ctx context.Context, id uuid.UUID) ([]dto.MovementResponse, error)
	Traceability(ctx context.Context, id uuid.UUID) (*dto.LotTraceabilityResponse, error)
	PrepareForBottling(ctx context.Context, id uuid.UUID, opKey string) (*dto.PrepareBottlingResponse, error)
	CellarOverview(ctx context.Context) (*dto.CellarOverviewResponse, error)
}

type wineLotService struct {
	repos      WineLotRepos
	guard      *IdempotencyGuard
	yieldRatio decimal.Decimal
}

// NewWineLotService builds the lot registry. yieldRatio is kilograms of grapes
// per liter of wine.
func NewWineLotService(repos WineLotRepos, guard *IdempotencyGuard, yieldRatio float64) WineLotService {
	return &wineLotService{repos: repos, guard: guard, yieldRatio: decimal.NewFromFloat(yieldRatio)}
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *wineLotService) Create(ctx context.Context, req dto.CreateWineLotRequest) (*dto.WineLotResponse, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	variety := strings.TrimSpace(req.GrapeVariety)
	if variety == "" {
		return nil, apierror.Validation("grape_variety is required")
	}
	kg := req.InitialGrapeKg.Round(2)
	if !kg.IsPositive() {
		return nil, apierror.Validation("initial_grape_kg must be greater than zero")
	}
	if req.VintageYear != nil && (*req.VintageYear < minVintage || *req.VintageYear > maxVintage) {
		return nil, apierror.Validation("vintage_year must be between %d and %d", minVintage, maxVintage)
	}
	parcelID, err := parseOptionalID("origin_parcel_id", req.OriginParcelID)
	if err != nil {
		return nil, err
	}
	if parcelID != nil {
		if _, err := s.repos.Parcels.FindByID(ctx, *parcelID); err != nil {
			return nil, failed("create_lot", lookupErr(err, "parcel", *parcelID))
		}
	}

	name := ""
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if name == "" {
		name = variety
		if req.VintageYear != nil {
			name = fmt.Sprintf("%s %d", variety, *req.VintageYear)
		}
	}

	liters := model.RoundLiters(kg.Div(s.yieldRatio))
	lot := &model.WineLot{
		TenantID:         tenantID,
		Name:             name,
		GrapeVariety:     variety,
		VintageYear:      req.VintageYear,
		Status:           model.LotHarvested,
		InitialGrapeKg:   kg,
		TotalLiters:      liters,
		LitersUnassigned: liters,
		OriginParcelID:   parcelID,
	}
	if err := s.repos.Lots.Create(ctx, lot); err != nil {
		return nil, failed("create_lot", err)
	}
	log.Info().
		Str("lot_id", lot.ID.String()).
		Str("total_liters", lot.TotalLiters.String()).
		Msg("wine lot created")
	resp := mapLot(*lot)
	return &resp, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *wineLotService) Get(ctx context.Context, id uuid.UUID) (*dto.WineLotResponse, error) {
	lot, err := s.find(ctx, id, "get_lot")
	if err != nil {
		return nil, err
	}
	resp := mapLot(*lot)
	return &resp, nil
}

func (s *wineLotService) find(ctx context.Context, id uuid.UUID, operation string) (*model.WineLot, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	lot, err := s.repos.Lots.FindByID(ctx, id)
	if err != nil {
		return nil, failed(operation, lookupErr(err, "lot", id))
	}
	return lot, nil
}

func (s *wineLotService) List(ctx context.Context, filter dto.WineLotFilter) ([]dto.WineLotResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	status := model.LotStatus(filter.Status)
	if status != "" && !status.Valid() {
		return nil, apierror.Validation("unknown status %q", filter.Status)
	}
	lots, err := s.repos.Lots.List(ctx, repository.WineLotFilter{
		Status:  status,
		Vintage: filter.Vintage,
		Variety: strings.TrimSpace(filter.Variety),
	})
	if err != nil {
		return nil, failed("list_lots", err)
	}
	out := make([]dto.WineLotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, mapLot(l))
	}
	return out, nil
}

func (s *wineLotService) ListMovements(ctx context.Context, id uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := s.find(ctx, id, "list_lot_movements"); err != nil {
		return nil, err
	}
	movements, err := s.repos.Movements.ListByLot(ctx, id)
	if err != nil {
		return nil, failed("list_lot_movements", err)
	}
	return mapMovements(movements), nil
}

// Traceability assembles the placement, movement history, lab record and
// bottled products of one lot.
func (s *wineLotService) Traceability(ctx context.Context, id uuid.UUID) (*dto.LotTraceabilityResponse, error) {
	lot, err := s.find(ctx, id, "lot_traceability")
	if err != nil {
		return nil, err
	}
	containers, err := s.repos.Containers.ListByLots(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, failed("lot_traceability", err)
	}
	movements, err := s.repos.Movements.ListByLot(ctx, id)
	if err != nil {
		return nil, failed("lot_traceability", err)
	}
	analyses, err := s.repos.Labs.ListByLot(ctx, id)
	if err != nil {
		return nil, failed("lot_traceability", err)
	}
	products, err := s.repos.Products.ListByLot(ctx, id)
	if err != nil {
		return nil, failed("lot_traceability", err)
	}

	resp := &dto.LotTraceabilityResponse{
		Lot:         mapLot(*lot),
		Containers:  mapContainers(containers),
		Movements:   mapMovements(movements),
		LabAnalyses: make([]dto.LabAnalysisResponse, 0, len(analyses)),
		Products:    make([]dto.ProductResponse, 0, len(products)),
	}
	for _, a := range analyses {
		resp.LabAnalyses = append(resp.LabAnalyses, mapLabAnalysis(a))
	}
	for _, p := range products {
		resp.Products = append(resp.Products, mapProduct(p))
	}
	return resp, nil
}

// CellarOverview groups every lot by lifecycle status together with the
// containers currently holding it.
func (s *wineLotService) CellarOverview(ctx context.Context) (*dto.CellarOverviewResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	lots, err := s.repos.Lots.List(ctx, repository.WineLotFilter{})
	if err != nil {
		return nil, failed("cellar_overview", err)
	}
	ids := make([]uuid.UUID, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.ID)
	}
	containers, err := s.repos.Containers.ListByLots(ctx, ids)
	if err != nil {
		return nil, failed("cellar_overview", err)
	}
	byLot := make(map[uuid.UUID][]model.Container)
	for _, c := range containers {
		if c.CurrentLotID != nil {
			byLot[*c.CurrentLotID] = append(byLot[*c.CurrentLotID], c)
		}
	}

	order := []model.LotStatus{
		model.LotHarvested, model.LotFermenting, model.LotAging, model.LotReadyToBottle, model.LotBottled,
	}
	groups := make(map[model.LotStatus][]dto.LotPlacement, len(order))
	for _, l := range lots {
		groups[l.Status] = append(groups[l.Status], dto.LotPlacement{
			Lot:        mapLot(l),
			Containers: mapContainers(byLot[l.ID]),
		})
	}
	resp := &dto.CellarOverviewResponse{Groups: make([]dto.StatusGroup, 0, len(order))}
	for _, st := range order {
		placements := groups[st]
		if placements == nil {
			placements = []dto.LotPlacement{}
		}
		resp.Groups = append(resp.Groups, dto.StatusGroup{Status: string(st), Lots: placements})
	}
	return resp, nil
}

// ── SetStatus ────────────────────────────────────────────────────────────────
// Administrative override, independent of the automatic transitions.

func (s *wineLotService) SetStatus(ctx context.Context, id uuid.UUID, req dto.SetLotStatusRequest) (*dto.WineLotResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	status := model.LotStatus(req.Status)
	if !status.Valid() {
		return nil, apierror.Validation("unknown status %q", req.Status)
	}

	var out model.WineLot
	err := runCellarTx(ctx, s.repos.Lots.DB(), "set_lot_status", func(tx *gorm.DB) error {
		lot, err := s.repos.Lots.LockTx(tx, id)
		if err != nil {
			return lookupErr(err, "lot", id)
		}
		if err := s.repos.Lots.UpdateStatusTx(tx, id, status); err != nil {
			return err
		}
		lot.Status = status
		out = *lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("lot_id", id.String()).Str("status", string(status)).Msg("lot status overridden")
	resp := mapLot(out)
	return &resp, nil
}

// ── Delete ───────────────────────────────────────────────────────────────────
// Frees every container holding the lot and removes its dependent rows before
// the lot itself, all in one transaction.

func (s *wineLotService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := tenantFrom(ctx); err != nil {
		return err
	}
	var freed int64
	err := runCellarTx(ctx, s.repos.Lots.DB(), "delete_lot", func(tx *gorm.DB) error {
		if _, err := s.repos.Lots.LockTx(tx, id); err != nil {
			return lookupErr(err, "lot", id)
		}
		if _, err := s.repos.Containers.LockForLotTx(tx, id, nil); err != nil {
			return err
		}
		n, err := s.repos.Containers.ReleaseByLotTx(tx, id)
		if err != nil {
			return err
		}
		freed = n
		if err := s.repos.Movements.DeleteByLotTx(tx, id); err != nil {
			return err
		}
		if err := s.repos.Labs.DeleteByLotTx(tx, id); err != nil {
			return err
		}
		if err := s.repos.Costs.DeleteByLotTx(tx, id); err != nil {
			return err
		}
		if err := s.repos.Products.DetachLotTx(tx, id); err != nil {
			return err
		}
		return s.repos.Lots.DeleteTx(tx, id)
	})
	if err != nil {
		return err
	}
	log.Info().Str("lot_id", id.String()).Int64("containers_freed", freed).Msg("wine lot deleted")
	return nil
}

// ── PrepareForBottling ───────────────────────────────────────────────────────
// A lot aging partly in barrels and partly in tanks is split: the barrel-held
// volume becomes a new ready_to_bottle lot, the tank-held remainder keeps
// aging under the original lot. Creating the new lot and re-pointing the
// barrels commit together.

func (s *wineLotService) PrepareForBottling(ctx context.Context, id uuid.UUID, opKey string) (*dto.PrepareBottlingResponse, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	request := struct {
		LotID string `json:"lot_id"`
	}{LotID: id.String()}

	res, _, err := idempotent(ctx, s.guard, s.repos.Lots.DB(), opKey, "prepare_bottling", request,
		func(tx *gorm.DB) (*dto.PrepareBottlingResponse, error) {
			return s.prepareTx(tx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("lot_id", id.String()).
		Bool("split", res.Split).
		Str("ready_lot_id", res.ReadyLot.ID).
		Msg("lot prepared for bottling")
	return res, nil
}

func (s *wineLotService) prepareTx(tx *gorm.DB, tenantID, id uuid.UUID) (*dto.PrepareBottlingResponse, error) {
	lot, err := s.repos.Lots.LockTx(tx, id)
	if err != nil {
		return nil, lookupErr(err, "lot", id)
	}
	if lot.Status == model.LotBottled {
		return nil, apierror.Conflict(apierror.CodeInvalidState, "lot %s is already bottled", id)
	}
	containers, err := s.repos.Containers.LockForLotTx(tx, id, nil)
	if err != nil {
		return nil, err
	}

	var barrelIDs []uuid.UUID
	barrelVolume := decimal.Zero
	tankVolume := decimal.Zero
	for _, c := range containers {
		if !c.Holds(id) {
			continue
		}
		switch c.Type {
		case model.ContainerBarrel:
			barrelIDs = append(barrelIDs, c.ID)
			barrelVolume = barrelVolume.Add(c.CurrentVolume)
		case model.ContainerTank:
			tankVolume = tankVolume.Add(c.CurrentVolume)
		}
	}

	if model.IsNegligible(barrelVolume) {
		return nil, apierror.Conflict(apierror.CodeNothingToPrepare, "lot %s has no volume in barrels", id)
	}
	if model.IsNegligible(tankVolume) {
		if err := s.repos.Lots.UpdateStatusTx(tx, id, model.LotReadyToBottle); err != nil {
			return nil, err
		}
		lot.Status = model.LotReadyToBottle
		resp := mapLot(*lot)
		return &dto.PrepareBottlingResponse{Split: false, ReadyLot: resp, OriginalLot: resp}, nil
	}

	if !lot.TotalLiters.IsPositive() {
		return nil, apierror.Conflict(apierror.CodeInvalidState, "lot %s has no recorded volume", id)
	}
	proportion := barrelVolume.Div(lot.TotalLiters)
	splitKg := lot.InitialGrapeKg.Mul(proportion).Round(2)
	originID := lot.ID
	split := &model.WineLot{
		TenantID:         tenantID,
		Name:             lot.Name + " (barrel split)",
		GrapeVariety:     lot.GrapeVariety,
		VintageYear:      lot.VintageYear,
		Status:           model.LotReadyToBottle,
		InitialGrapeKg:   splitKg,
		TotalLiters:      barrelVolume,
		LitersUnassigned: decimal.Zero,
		OriginParcelID:   lot.OriginParcelID,
		SplitFromLotID:   &originID,
	}
	if err := s.repos.Lots.CreateTx(tx, split); err != nil {
		return nil, err
	}
	if err := s.repos.Containers.RepointTx(tx, barrelIDs, split.ID); err != nil {
		return nil, err
	}
	lot.TotalLiters = lot.TotalLiters.Sub(barrelVolume)
	lot.InitialGrapeKg = lot.InitialGrapeKg.Sub(splitKg)
	if err := s.repos.Lots.SaveVolumesTx(tx, lot); err != nil {
		return nil, err
	}
	return &dto.PrepareBottlingResponse{Split: true, ReadyLot: mapLot(*split), OriginalLot: mapLot(*lot)}, nil
}
