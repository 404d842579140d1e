package service

import (
	"time"

	"winecellar/internal/apierror"
	"winecellar/internal/dto"
	"winecellar/internal/model"
	"winecellar/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// step is one primitive ledger operation. For bottling with drain set, the
// volume is taken from the source instead of the request.
type step struct {
	kind   model.MovementType
	source *uuid.UUID
	dest   *uuid.UUID
	volume decimal.Decimal
	drain  bool
}

// ledger is the only writer of container volume, container status and
// current lot. Every write goes through open → apply… → commit inside one
// transaction.
type ledger struct {
	lots       repository.WineLotRepository
	containers repository.ContainerRepository
	movements  repository.MovementRepository
}

// ledgerTx holds the rows locked by one transaction. apply mutates them in
// memory only; nothing reaches the database before commit, so a failing step
// leaves no trace even before the rollback.
type ledgerTx struct {
	tx         *gorm.DB
	l          *ledger
	tenantID   uuid.UUID
	opKey      *string
	lot        *model.WineLot
	lotDirty   bool
	containers map[uuid.UUID]*model.Container
	lockOrder  []uuid.UUID
	touched    map[uuid.UUID]bool
	drawn      map[uuid.UUID]bool
	recorded   []model.Movement
	bottled    bool
}

// open locks the lot row, then every requested container plus every container
// already holding the lot, in id order. The fixed order (lot first, then
// containers by id) is shared by all cellar transactions.
func (l *ledger) open(tx *gorm.DB, tenantID, lotID uuid.UUID, containerIDs []uuid.UUID, opKey string) (*ledgerTx, error) {
	lot, err := l.lots.LockTx(tx, lotID)
	if err != nil {
		return nil, lookupErr(err, "lot", lotID)
	}
	locked, err := l.containers.LockForLotTx(tx, lotID, containerIDs)
	if err != nil {
		return nil, err
	}

	lt := &ledgerTx{
		tx:         tx,
		l:          l,
		tenantID:   tenantID,
		lot:        lot,
		containers: make(map[uuid.UUID]*model.Container, len(locked)),
		touched:    make(map[uuid.UUID]bool),
		drawn:      make(map[uuid.UUID]bool),
	}
	if opKey != "" {
		lt.opKey = &opKey
	}
	for i := range locked {
		c := &locked[i]
		lt.containers[c.ID] = c
		lt.lockOrder = append(lt.lockOrder, c.ID)
	}
	for _, id := range containerIDs {
		if _, ok := lt.containers[id]; !ok {
			return nil, apierror.NotFound("container %s not found", id)
		}
	}
	return lt, nil
}

func (lt *ledgerTx) container(id *uuid.UUID) *model.Container {
	if id == nil {
		return nil
	}
	return lt.containers[*id]
}

// apply validates st against the locked state and applies its effects in
// memory.
func (lt *ledgerTx) apply(st step) error {
	lot := lt.lot
	if lot.Status == model.LotBottled {
		return apierror.Conflict(apierror.CodeInvalidState, "lot %s is already bottled", lot.ID)
	}

	src := lt.container(st.source)
	dst := lt.container(st.dest)
	v := model.RoundLiters(st.volume)

	switch st.kind {
	case model.MovementInitialFill:
		if err := lt.checkDestination(dst, v, false); err != nil {
			return err
		}
		if err := lt.checkUnassigned(v); err != nil {
			return err
		}

	case model.MovementTopUp:
		if !dst.Holds(lot.ID) {
			return apierror.Conflict(apierror.CodeContainerLotMismatch,
				"container %s does not hold lot %s", dst.ID, lot.ID)
		}
		if err := checkFits(dst, v); err != nil {
			return err
		}
		if err := lt.checkUnassigned(v); err != nil {
			return err
		}

	case model.MovementTransfer:
		if err := lt.checkSource(src); err != nil {
			return err
		}
		if v.GreaterThan(src.CurrentVolume) {
			return apierror.Conflict(apierror.CodeInsufficientVolume,
				"container %s holds %s L, cannot transfer %s L", src.ID, src.CurrentVolume, v)
		}
		if err := lt.checkDestination(dst, v, true); err != nil {
			return err
		}

	case model.MovementBottling:
		if err := lt.checkSource(src); err != nil {
			return err
		}
		if !st.drain && !model.NearlyEqual(v, src.CurrentVolume) {
			return apierror.Conflict(apierror.CodeDrainMismatch,
				"bottling must drain container %s: it holds %s L, requested %s L", src.ID, src.CurrentVolume, v)
		}
		v = src.CurrentVolume
		lt.bottled = true

	default:
		return apierror.Validation("unknown movement type %q", st.kind)
	}

	// ── Effects ─────────────────────────────────────────────────────────────
	// A drawn source keeps the lot until commit, so later steps of the same
	// batch can still take its residue.
	if src != nil {
		src.CurrentVolume = model.RoundLiters(src.CurrentVolume.Sub(v))
		lt.touched[src.ID] = true
		lt.drawn[src.ID] = true
	}
	if dst != nil {
		lotID := lot.ID
		dst.CurrentVolume = dst.CurrentVolume.Add(v)
		dst.Status = model.ContainerOccupied
		dst.CurrentLotID = &lotID
		lt.touched[dst.ID] = true
	}
	if st.kind == model.MovementInitialFill || st.kind == model.MovementTopUp {
		lot.LitersUnassigned = lot.LitersUnassigned.Sub(v)
		lt.lotDirty = true
	}

	switch {
	case st.kind == model.MovementInitialFill && (dst.Type == model.ContainerTank || lot.Status == model.LotHarvested):
		lt.advance(model.LotFermenting)
	case st.kind == model.MovementTransfer && dst.Type == model.ContainerBarrel:
		lt.advance(model.LotAging)
	}

	lt.recorded = append(lt.recorded, model.Movement{
		TenantID:               lt.tenantID,
		LotID:                  lot.ID,
		SourceContainerID:      st.source,
		DestinationContainerID: st.dest,
		Volume:                 v,
		Type:                   st.kind,
		OperationKey:           lt.opKey,
	})
	return nil
}

func (lt *ledgerTx) checkSource(src *model.Container) error {
	if !src.Holds(lt.lot.ID) {
		return apierror.Conflict(apierror.CodeContainerLotMismatch,
			"container %s does not hold lot %s", src.ID, lt.lot.ID)
	}
	return nil
}

// checkDestination accepts an empty container, or when sameLot is set one
// already holding this lot.
func (lt *ledgerTx) checkDestination(dst *model.Container, v decimal.Decimal, sameLot bool) error {
	switch dst.Status {
	case model.ContainerCleaning:
		return apierror.Conflict(apierror.CodeContainerUnavailable, "container %s is being cleaned", dst.ID)
	case model.ContainerOccupied:
		if !sameLot {
			return apierror.Conflict(apierror.CodeContainerOccupied, "container %s is not empty", dst.ID)
		}
		if !dst.Holds(lt.lot.ID) {
			return apierror.Conflict(apierror.CodeContainerLotMismatch,
				"container %s holds a different lot", dst.ID)
		}
	}
	return checkFits(dst, v)
}

func checkFits(dst *model.Container, v decimal.Decimal) error {
	if v.GreaterThan(dst.FreeCapacity()) {
		return apierror.Conflict(apierror.CodeCapacityExceeded,
			"container %s has %s L free, cannot receive %s L", dst.ID, dst.FreeCapacity(), v)
	}
	return nil
}

func (lt *ledgerTx) checkUnassigned(v decimal.Decimal) error {
	if v.GreaterThan(lt.lot.LitersUnassigned) {
		return apierror.Conflict(apierror.CodeInsufficientVolume,
			"lot %s has %s L unassigned, cannot place %s L", lt.lot.ID, lt.lot.LitersUnassigned, v)
	}
	return nil
}

// advance moves the lot forward in its lifecycle. Automatic transitions never
// move a lot backwards.
func (lt *ledgerTx) advance(status model.LotStatus) {
	if lt.lot.Status.Before(status) {
		lt.lot.Status = status
		lt.lotDirty = true
	}
}

// remaining is the volume still held for the lot across all its containers.
func (lt *ledgerTx) remaining() decimal.Decimal {
	total := decimal.Zero
	for _, c := range lt.containers {
		if c.Holds(lt.lot.ID) {
			total = total.Add(c.CurrentVolume)
		}
	}
	return total
}

// release empties every drawn source whose residue is within the epsilon.
func (lt *ledgerTx) release() {
	for id := range lt.drawn {
		if c := lt.containers[id]; model.IsNegligible(c.CurrentVolume) {
			c.Release()
		}
	}
}

// commit settles residues and the bottled transition, then writes every
// touched row.
func (lt *ledgerTx) commit() error {
	lt.release()
	if lt.bottled && model.IsNegligible(lt.remaining()) {
		lt.advance(model.LotBottled)
	}

	for _, id := range lt.lockOrder {
		if !lt.touched[id] {
			continue
		}
		if err := lt.l.containers.SaveStateTx(lt.tx, lt.containers[id]); err != nil {
			return err
		}
	}
	if lt.lotDirty {
		if err := lt.l.lots.SaveVolumesTx(lt.tx, lt.lot); err != nil {
			return err
		}
	}

	// Movements of one batch share a commit; spacing their timestamps keeps
	// the audit trail ordered.
	now := time.Now().UTC()
	for i := range lt.recorded {
		lt.recorded[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
	}
	return lt.l.movements.CreateBatchTx(lt.tx, lt.recorded)
}

// result is the response shared by every ledger write.
func (lt *ledgerTx) result() *dto.MovementResult {
	touched := make([]model.Container, 0, len(lt.touched))
	for _, id := range lt.lockOrder {
		if lt.touched[id] {
			touched = append(touched, *lt.containers[id])
		}
	}
	return &dto.MovementResult{
		Movements:  mapMovements(lt.recorded),
		Lot:        mapLot(*lt.lot),
		Containers: mapContainers(touched),
	}
}
