package service

import (
	"context"
	"math"

	"winecellar/internal/apierror"
	"winecellar/internal/dto"
	"winecellar/internal/model"
	"winecellar/internal/observability"
	"winecellar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementService is the single transactional entry point that changes
// container volumes, lot volumes and lot status together.
type MovementService interface {
	RecordMovement(ctx context.Context, req dto.RecordMovementRequest, opKey string) (*dto.MovementResult, error)
	RecordBulkTransfer(ctx context.Context, req dto.BulkTransferRequest, opKey string) (*dto.MovementResult, error)
	RecordTopUp(ctx context.Context, req dto.TopUpRequest, opKey string) (*dto.MovementResult, error)
	RecordBottling(ctx context.Context, req dto.BottlingRequest, opKey string) (*dto.MovementResult, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)

	// Cleaning cycle of an empty container
	MarkCleaning(ctx context.Context, containerID uuid.UUID) (*dto.ContainerResponse, error)
	MarkClean(ctx context.Context, containerID uuid.UUID) (*dto.ContainerResponse, error)
}

type movementService struct {
	ledger *ledger
	guard  *IdempotencyGuard
}

func NewMovementService(
	lots repository.WineLotRepository,
	containers repository.ContainerRepository,
	movements repository.MovementRepository,
	guard *IdempotencyGuard,
) MovementService {
	return &movementService{
		ledger: &ledger{lots: lots, containers: containers, movements: movements},
		guard:  guard,
	}
}

// ── Validation (before any storage access) ───────────────────────────────────

// positiveVolume rounds v to centiliters and rejects anything not above zero.
func positiveVolume(field string, v decimal.Decimal) (decimal.Decimal, error) {
	v = model.RoundLiters(v)
	if !v.IsPositive() {
		return decimal.Zero, apierror.Validation("%s must be greater than zero", field)
	}
	return v, nil
}

// checkShape enforces which containers each movement type names.
func checkShape(t model.MovementType, src, dst *uuid.UUID) error {
	switch t {
	case model.MovementInitialFill, model.MovementTopUp:
		if dst == nil || src != nil {
			return apierror.Validation("%s requires a destination and no source", t)
		}
	case model.MovementTransfer:
		if src == nil || dst == nil {
			return apierror.Validation("transfer requires a source and a destination")
		}
		if *src == *dst {
			return apierror.Validation("source and destination must differ")
		}
	case model.MovementBottling:
		if src == nil || dst != nil {
			return apierror.Validation("bottling requires a source and no destination")
		}
	default:
		return apierror.Validation("unknown movement type %q", t)
	}
	return nil
}

func stepIDs(st step) []uuid.UUID {
	var ids []uuid.UUID
	if st.source != nil {
		ids = append(ids, *st.source)
	}
	if st.dest != nil {
		ids = append(ids, *st.dest)
	}
	return ids
}

// ── RecordMovement ───────────────────────────────────────────────────────────

func (s *movementService) RecordMovement(ctx context.Context, req dto.RecordMovementRequest, opKey string) (*dto.MovementResult, error) {
	lotID, err := parseID("lot_id", req.LotID)
	if err != nil {
		return nil, err
	}
	src, err := parseOptionalID("source_container_id", req.SourceContainerID)
	if err != nil {
		return nil, err
	}
	dst, err := parseOptionalID("destination_container_id", req.DestinationContainerID)
	if err != nil {
		return nil, err
	}
	st := step{kind: model.MovementType(req.Type), source: src, dest: dst}
	if err := checkShape(st.kind, src, dst); err != nil {
		return nil, err
	}

	switch {
	case req.Volume != nil:
		if st.volume, err = positiveVolume("volume", *req.Volume); err != nil {
			return nil, err
		}
	case st.kind == model.MovementBottling:
		st.drain = true
	default:
		return nil, apierror.Validation("volume is required")
	}

	return s.record(ctx, lotID, []step{st}, opKey, "record_movement", req)
}

// ── RecordBulkTransfer ───────────────────────────────────────────────────────
// One source, N destinations. The total is checked against the source before
// anything is applied; any failing leg aborts the whole batch.

func (s *movementService) RecordBulkTransfer(ctx context.Context, req dto.BulkTransferRequest, opKey string) (*dto.MovementResult, error) {
	lotID, err := parseID("lot_id", req.LotID)
	if err != nil {
		return nil, err
	}
	srcID, err := parseID("source_container_id", req.SourceContainerID)
	if err != nil {
		return nil, err
	}
	if len(req.Destinations) == 0 {
		return nil, apierror.Validation("at least one destination is required")
	}

	seen := map[uuid.UUID]bool{srcID: true}
	steps := make([]step, 0, len(req.Destinations))
	total := decimal.Zero
	for i, leg := range req.Destinations {
		dstID, err := parseID("destinations.container_id", leg.ContainerID)
		if err != nil {
			return nil, err
		}
		if seen[dstID] {
			return nil, apierror.Validation("destination %d repeats a container or the source", i)
		}
		seen[dstID] = true
		v, err := positiveVolume("destinations.volume", leg.Volume)
		if err != nil {
			return nil, err
		}
		total = total.Add(v)
		src, dst := srcID, dstID
		steps = append(steps, step{kind: model.MovementTransfer, source: &src, dest: &dst, volume: v})
	}

	return s.recordWith(ctx, lotID, steps, opKey, "bulk_transfer", req, func(lt *ledgerTx) error {
		source := lt.containers[srcID]
		if err := lt.checkSource(source); err != nil {
			return err
		}
		if total.GreaterThan(source.CurrentVolume) {
			return apierror.Conflict(apierror.CodeInsufficientVolume,
				"container %s holds %s L, cannot distribute %s L", srcID, source.CurrentVolume, total)
		}
		return nil
	})
}

// ── RecordTopUp ──────────────────────────────────────────────────────────────

func (s *movementService) RecordTopUp(ctx context.Context, req dto.TopUpRequest, opKey string) (*dto.MovementResult, error) {
	lotID, err := parseID("lot_id", req.LotID)
	if err != nil {
		return nil, err
	}
	dst, err := parseID("container_id", req.ContainerID)
	if err != nil {
		return nil, err
	}
	v, err := positiveVolume("volume", req.Volume)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, lotID, []step{{kind: model.MovementTopUp, dest: &dst, volume: v}}, opKey, "top_up", req)
}

// ── RecordBottling ───────────────────────────────────────────────────────────

func (s *movementService) RecordBottling(ctx context.Context, req dto.BottlingRequest, opKey string) (*dto.MovementResult, error) {
	lotID, err := parseID("lot_id", req.LotID)
	if err != nil {
		return nil, err
	}
	src, err := parseID("source_container_id", req.SourceContainerID)
	if err != nil {
		return nil, err
	}
	st := step{kind: model.MovementBottling, source: &src, drain: true}
	if req.Volume != nil {
		if st.volume, err = positiveVolume("volume", *req.Volume); err != nil {
			return nil, err
		}
		st.drain = false
	}
	return s.record(ctx, lotID, []step{st}, opKey, "bottling", req)
}

// ── Shared write path ────────────────────────────────────────────────────────

func (s *movementService) record(ctx context.Context, lotID uuid.UUID, steps []step, opKey, operation string, req any) (*dto.MovementResult, error) {
	return s.recordWith(ctx, lotID, steps, opKey, operation, req, nil)
}

// recordWith locks the rows the steps touch, runs precheck on the locked
// state, applies every step and commits. Steps are all-or-nothing.
func (s *movementService) recordWith(
	ctx context.Context,
	lotID uuid.UUID,
	steps []step,
	opKey, operation string,
	req any,
	precheck func(lt *ledgerTx) error,
) (*dto.MovementResult, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, st := range steps {
		ids = append(ids, stepIDs(st)...)
	}

	res, replayed, err := idempotent(ctx, s.guard, s.ledger.lots.DB(), opKey, operation, req,
		func(tx *gorm.DB) (*dto.MovementResult, error) {
			lt, err := s.ledger.open(tx, tenantID, lotID, ids, opKey)
			if err != nil {
				return nil, err
			}
			if precheck != nil {
				if err := precheck(lt); err != nil {
					return nil, err
				}
			}
			for _, st := range steps {
				if err := lt.apply(st); err != nil {
					return nil, err
				}
			}
			if err := lt.commit(); err != nil {
				return nil, err
			}
			return lt.result(), nil
		})
	if err != nil {
		return nil, err
	}
	if !replayed {
		logCommitted(tenantID, res)
	}
	return res, nil
}

func logCommitted(tenantID uuid.UUID, res *dto.MovementResult) {
	for _, m := range res.Movements {
		observability.RecordMovement(m.Type, m.Volume)
		ev := log.Info().
			Str("tenant_id", tenantID.String()).
			Str("lot_id", m.LotID).
			Str("type", m.Type).
			Str("volume", m.Volume.String())
		if m.SourceContainerID != nil {
			ev = ev.Str("source_container_id", *m.SourceContainerID)
		}
		if m.DestinationContainerID != nil {
			ev = ev.Str("destination_container_id", *m.DestinationContainerID)
		}
		ev.Msg("movement recorded")
	}
}

// ── ListMovements ────────────────────────────────────────────────────────────

func (s *movementService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	q := repository.MovementFilter{Type: model.MovementType(filter.Type), Page: filter.Page, Limit: filter.Limit}
	var err error
	if filter.LotID != "" {
		if q.LotID, err = parseOptionalID("lot_id", &filter.LotID); err != nil {
			return nil, err
		}
	}
	if filter.ContainerID != "" {
		if q.ContainerID, err = parseOptionalID("container_id", &filter.ContainerID); err != nil {
			return nil, err
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 500 {
		q.Limit = 100
	}

	movements, total, err := s.ledger.movements.List(ctx, q)
	if err != nil {
		return nil, failed("list_movements", err)
	}
	return &dto.MovementListResponse{
		Data:       mapMovements(movements),
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
	}, nil
}

// ── Cleaning ─────────────────────────────────────────────────────────────────

func (s *movementService) MarkCleaning(ctx context.Context, containerID uuid.UUID) (*dto.ContainerResponse, error) {
	return s.setCleaning(ctx, containerID, true)
}

func (s *movementService) MarkClean(ctx context.Context, containerID uuid.UUID) (*dto.ContainerResponse, error) {
	return s.setCleaning(ctx, containerID, false)
}

func (s *movementService) setCleaning(ctx context.Context, containerID uuid.UUID, start bool) (*dto.ContainerResponse, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	operation := "mark_clean"
	if start {
		operation = "mark_cleaning"
	}

	var out model.Container
	err := runCellarTx(ctx, s.ledger.containers.DB(), operation, func(tx *gorm.DB) error {
		c, err := s.ledger.containers.LockTx(tx, containerID)
		if err != nil {
			return lookupErr(err, "container", containerID)
		}
		switch {
		case start && c.Status == model.ContainerOccupied:
			return apierror.Conflict(apierror.CodeContainerOccupied, "container %s still holds wine", c.ID)
		case start && c.Status == model.ContainerCleaning:
			return apierror.Conflict(apierror.CodeInvalidState, "container %s is already being cleaned", c.ID)
		case !start && c.Status != model.ContainerCleaning:
			return apierror.Conflict(apierror.CodeInvalidState, "container %s is not being cleaned", c.ID)
		}
		if start {
			c.Status = model.ContainerCleaning
		} else {
			c.Status = model.ContainerEmpty
		}
		if err := s.ledger.containers.SaveStateTx(tx, c); err != nil {
			return err
		}
		out = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("container_id", containerID.String()).Str("status", string(out.Status)).Msg("container status changed")
	resp := mapContainer(out)
	return &resp, nil
}
