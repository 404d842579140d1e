package service_test

import (
	"testing"

	"winecellar/internal/apierror"
	"winecellar/internal/dto"
	"winecellar/internal/model"
	"winecellar/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertConflict(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	e, ok := apierror.As(err)
	require.True(t, ok, "expected *apierror.Error, got %T", err)
	assert.Equal(t, apierror.KindConflict, e.Kind, e.Message)
	assert.Equal(t, code, e.Code, e.Message)
}

func assertKind(t *testing.T, err error, kind apierror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, kind), "want %s, got %v", kind, err)
}

// fiveBarrels runs scenarios A to C: a 1000 L lot filled into a tank and then
// spread over five barrels.
func fiveBarrels(t *testing.T, h *harness) (lotID, tankID string, barrels []string) {
	t.Helper()
	lotID = h.lot("1600")
	tankID = h.tank("2000")
	h.fill(lotID, tankID, "1000")

	legs := make([]dto.TransferLeg, 0, 5)
	for i := 0; i < 5; i++ {
		b := h.barrel("225")
		barrels = append(barrels, b)
		vol := "225"
		if i == 4 {
			vol = "100"
		}
		legs = append(legs, dto.TransferLeg{ContainerID: b, Volume: d(vol)})
	}
	_, err := h.movements.RecordBulkTransfer(h.ctx, dto.BulkTransferRequest{
		LotID:             lotID,
		SourceContainerID: tankID,
		Destinations:      legs,
	}, "")
	require.NoError(t, err)
	return lotID, tankID, barrels
}

// ── Lifecycle scenarios ──────────────────────────────────────────────────────

func TestInitialFill_IntoTank_StartsFermentation(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	tankID := h.tank("2000")

	res := h.fill(lotID, tankID, "1000")

	require.Len(t, res.Movements, 1)
	assert.Equal(t, string(model.MovementInitialFill), res.Movements[0].Type)

	tank := h.getContainer(tankID)
	assertDecimal(t, "1000", tank.CurrentVolume)
	assert.Equal(t, string(model.ContainerOccupied), tank.Status)
	require.NotNil(t, tank.CurrentLotID)
	assert.Equal(t, lotID, *tank.CurrentLotID)

	lot := h.getLot(lotID)
	assertDecimal(t, "0", lot.LitersUnassigned)
	assert.Equal(t, string(model.LotFermenting), lot.Status)
	h.assertInvariants()
}

func TestBulkTransfer_IntoBarrels_StartsAging(t *testing.T) {
	h := newHarness(t)
	lotID, tankID, barrels := fiveBarrels(t, h)

	tank := h.getContainer(tankID)
	assertDecimal(t, "0", tank.CurrentVolume)
	assert.Equal(t, string(model.ContainerEmpty), tank.Status)
	assert.Nil(t, tank.CurrentLotID)

	for i, b := range barrels {
		want := "225"
		if i == 4 {
			want = "100"
		}
		assertDecimal(t, want, h.getContainer(b).CurrentVolume)
	}
	assert.Equal(t, string(model.LotAging), h.getLot(lotID).Status)
	assert.EqualValues(t, 6, h.movementCount())
	h.assertInvariants()
}

func TestBottling_OnlyLastDrainMarksBottled(t *testing.T) {
	h := newHarness(t)
	lotID, _, barrels := fiveBarrels(t, h)

	for i, b := range barrels {
		res, err := h.movements.RecordBottling(h.ctx, dto.BottlingRequest{LotID: lotID, SourceContainerID: b}, "")
		require.NoError(t, err)
		if i < len(barrels)-1 {
			assert.Equal(t, string(model.LotAging), res.Lot.Status, "bottled too early after barrel %d", i)
		} else {
			assert.Equal(t, string(model.LotBottled), res.Lot.Status)
		}
		assert.Equal(t, string(model.ContainerEmpty), h.getContainer(b).Status)
	}
	assert.Equal(t, string(model.LotBottled), h.getLot(lotID).Status)
	h.assertInvariants()
}

func TestBottling_RecordsExactSourceVolume(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	b := h.barrel("225")
	h.fill(lotID, b, "224.99")

	res, err := h.movements.RecordBottling(h.ctx, dto.BottlingRequest{
		LotID: lotID, SourceContainerID: b, Volume: dp("225"),
	}, "")
	require.NoError(t, err)
	assertDecimal(t, "224.99", res.Movements[0].Volume)
}

func TestBottling_VolumeMustDrainSource(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	b := h.barrel("225")
	h.fill(lotID, b, "200")

	_, err := h.movements.RecordBottling(h.ctx, dto.BottlingRequest{
		LotID: lotID, SourceContainerID: b, Volume: dp("150"),
	}, "")
	assertConflict(t, err, apierror.CodeDrainMismatch)
	assertDecimal(t, "200", h.getContainer(b).CurrentVolume)
}

func TestMovement_OnBottledLotIsRejected(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("320") // 200 L
	b := h.barrel("225")
	h.fill(lotID, b, "200")
	_, err := h.movements.RecordBottling(h.ctx, dto.BottlingRequest{LotID: lotID, SourceContainerID: b}, "")
	require.NoError(t, err)
	require.Equal(t, string(model.LotBottled), h.getLot(lotID).Status)

	other := h.tank("1000")
	_, err = h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: lotID, Type: "initial_fill", DestinationContainerID: &other, Volume: dp("10"),
	}, "")
	assertConflict(t, err, apierror.CodeInvalidState)
}

// ── Boundaries ───────────────────────────────────────────────────────────────

func TestTransfer_MoreThanSourceHolds_LeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("3200") // 2000 L
	src := h.tank("2000")
	dst := h.tank("2000")
	h.fill(lotID, src, "1000")
	before := h.movementCount()

	_, err := h.transfer(lotID, src, dst, "1000.01")
	assertConflict(t, err, apierror.CodeInsufficientVolume)

	assertDecimal(t, "1000", h.getContainer(src).CurrentVolume)
	assertDecimal(t, "0", h.getContainer(dst).CurrentVolume)
	assertDecimal(t, "1000", h.getLot(lotID).LitersUnassigned)
	assert.Equal(t, before, h.movementCount())
	h.assertInvariants()
}

func TestInitialFill_Preconditions(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600") // 1000 L
	small := h.tank("500")
	big := h.tank("5000")

	_, err := h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: lotID, Type: "initial_fill", DestinationContainerID: &small, Volume: dp("500.01"),
	}, "")
	assertConflict(t, err, apierror.CodeCapacityExceeded)

	_, err = h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: lotID, Type: "initial_fill", DestinationContainerID: &big, Volume: dp("1000.01"),
	}, "")
	assertConflict(t, err, apierror.CodeInsufficientVolume)

	h.fill(lotID, small, "500")
	_, err = h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: lotID, Type: "initial_fill", DestinationContainerID: &small, Volume: dp("1"),
	}, "")
	assertConflict(t, err, apierror.CodeContainerOccupied)
	h.assertInvariants()
}

func TestInitialFill_ExactCapacityIsAccepted(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	b := h.barrel("225")
	h.fill(lotID, b, "225")
	assertDecimal(t, "225", h.getContainer(b).CurrentVolume)
	assertDecimal(t, "775", h.getLot(lotID).LitersUnassigned)
}

func TestInitialFill_IntoBarrelOfHarvestedLotStartsFermentation(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	h.fill(lotID, h.barrel("225"), "200")
	assert.Equal(t, string(model.LotFermenting), h.getLot(lotID).Status)
}

func TestTransfer_IntoContainerOfAnotherLot(t *testing.T) {
	h := newHarness(t)
	lotA := h.lot("1600")
	lotB := h.lot("1600")
	tankA := h.tank("2000")
	tankB := h.tank("2000")
	h.fill(lotA, tankA, "500")
	h.fill(lotB, tankB, "500")

	_, err := h.transfer(lotA, tankA, tankB, "100")
	assertConflict(t, err, apierror.CodeContainerLotMismatch)

	_, err = h.transfer(lotA, tankB, tankA, "100")
	assertConflict(t, err, apierror.CodeContainerLotMismatch)
	h.assertInvariants()
}

func TestTransfer_IntoContainerOfSameLotMerges(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	t1 := h.tank("1000")
	t2 := h.tank("1000")
	h.fill(lotID, t1, "600")
	h.fill(lotID, t2, "300")

	_, err := h.transfer(lotID, t1, t2, "600")
	require.NoError(t, err)
	assertDecimal(t, "900", h.getContainer(t2).CurrentVolume)
	assert.Equal(t, string(model.ContainerEmpty), h.getContainer(t1).Status)
	h.assertInvariants()
}

func TestTransfer_ResidueWithinEpsilonEmptiesSource(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("1000")
	dst := h.tank("1000")
	h.fill(lotID, src, "500")

	_, err := h.transfer(lotID, src, dst, "499.99")
	require.NoError(t, err)

	source := h.getContainer(src)
	assertDecimal(t, "0", source.CurrentVolume)
	assert.Equal(t, string(model.ContainerEmpty), source.Status)
	assert.Nil(t, source.CurrentLotID)
	h.assertInvariants()
}

func TestTransfer_ResidueAboveEpsilonStaysOccupied(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("1000")
	dst := h.tank("1000")
	h.fill(lotID, src, "500")

	_, err := h.transfer(lotID, src, dst, "499.98")
	require.NoError(t, err)
	source := h.getContainer(src)
	assertDecimal(t, "0.02", source.CurrentVolume)
	assert.Equal(t, string(model.ContainerOccupied), source.Status)
}

func TestTopUp(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	b := h.barrel("225")
	empty := h.barrel("225")
	h.fill(lotID, b, "200")

	res, err := h.movements.RecordTopUp(h.ctx, dto.TopUpRequest{LotID: lotID, ContainerID: b, Volume: d("25")}, "")
	require.NoError(t, err)
	assertDecimal(t, "775", res.Lot.LitersUnassigned)
	assertDecimal(t, "225", h.getContainer(b).CurrentVolume)

	_, err = h.movements.RecordTopUp(h.ctx, dto.TopUpRequest{LotID: lotID, ContainerID: b, Volume: d("1")}, "")
	assertConflict(t, err, apierror.CodeCapacityExceeded)

	_, err = h.movements.RecordTopUp(h.ctx, dto.TopUpRequest{LotID: lotID, ContainerID: empty, Volume: d("1")}, "")
	assertConflict(t, err, apierror.CodeContainerLotMismatch)
	h.assertInvariants()
}

// ── Bulk transfer atomicity ──────────────────────────────────────────────────

func TestBulkTransfer_TotalAboveSourceAbortsBeforeAnyLeg(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("2000")
	b1 := h.barrel("225")
	b2 := h.barrel("225")
	h.fill(lotID, src, "300")
	before := h.movementCount()

	_, err := h.movements.RecordBulkTransfer(h.ctx, dto.BulkTransferRequest{
		LotID:             lotID,
		SourceContainerID: src,
		Destinations: []dto.TransferLeg{
			{ContainerID: b1, Volume: d("200")},
			{ContainerID: b2, Volume: d("200")},
		},
	}, "")
	assertConflict(t, err, apierror.CodeInsufficientVolume)
	assertDecimal(t, "300", h.getContainer(src).CurrentVolume)
	assertDecimal(t, "0", h.getContainer(b1).CurrentVolume)
	assert.Equal(t, before, h.movementCount())
}

func TestBulkTransfer_FailingLegRollsBackEarlierLegs(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("2000")
	b1 := h.barrel("225")
	tooSmall := h.barrel("50")
	h.fill(lotID, src, "400")

	_, err := h.movements.RecordBulkTransfer(h.ctx, dto.BulkTransferRequest{
		LotID:             lotID,
		SourceContainerID: src,
		Destinations: []dto.TransferLeg{
			{ContainerID: b1, Volume: d("200")},
			{ContainerID: tooSmall, Volume: d("100")},
		},
	}, "")
	assertConflict(t, err, apierror.CodeCapacityExceeded)
	assertDecimal(t, "400", h.getContainer(src).CurrentVolume)
	assertDecimal(t, "0", h.getContainer(b1).CurrentVolume)
	assert.Equal(t, string(model.LotFermenting), h.getLot(lotID).Status)
	h.assertInvariants()
}

func TestBulkTransfer_RejectsRepeatedContainers(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("2000")
	b1 := h.barrel("225")
	h.fill(lotID, src, "400")

	_, err := h.movements.RecordBulkTransfer(h.ctx, dto.BulkTransferRequest{
		LotID: lotID, SourceContainerID: src,
		Destinations: []dto.TransferLeg{{ContainerID: b1, Volume: d("10")}, {ContainerID: b1, Volume: d("10")}},
	}, "")
	assertKind(t, err, apierror.KindValidation)

	_, err = h.movements.RecordBulkTransfer(h.ctx, dto.BulkTransferRequest{
		LotID: lotID, SourceContainerID: src,
		Destinations: []dto.TransferLeg{{ContainerID: src, Volume: d("10")}},
	}, "")
	assertKind(t, err, apierror.KindValidation)
}

func TestBulkTransfer_LegsDrainingSourceExactlyApplyInAnyOrder(t *testing.T) {
	for name, legs := range map[string][2]string{
		"large leg first": {"99.99", "0.01"},
		"small leg first": {"0.01", "99.99"},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			lotID := h.lot("1600")
			src := h.tank("100")
			b1 := h.barrel("225")
			b2 := h.barrel("225")
			h.fill(lotID, src, "100")

			res, err := h.movements.RecordBulkTransfer(h.ctx, dto.BulkTransferRequest{
				LotID:             lotID,
				SourceContainerID: src,
				Destinations: []dto.TransferLeg{
					{ContainerID: b1, Volume: d(legs[0])},
					{ContainerID: b2, Volume: d(legs[1])},
				},
			}, "")
			require.NoError(t, err)
			assert.Len(t, res.Movements, 2)

			source := h.getContainer(src)
			assertDecimal(t, "0", source.CurrentVolume)
			assert.Equal(t, string(model.ContainerEmpty), source.Status)
			assert.Nil(t, source.CurrentLotID)
			assertDecimal(t, legs[0], h.getContainer(b1).CurrentVolume)
			assertDecimal(t, legs[1], h.getContainer(b2).CurrentVolume)
			h.assertInvariants()
		})
	}
}

// ── Validation ───────────────────────────────────────────────────────────────

func TestRecordMovement_ShapeValidation(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	a := h.tank("1000")
	b := h.tank("1000")

	cases := []struct {
		name string
		req  dto.RecordMovementRequest
	}{
		{"fill with source", dto.RecordMovementRequest{LotID: lotID, Type: "initial_fill", SourceContainerID: &a, DestinationContainerID: &b, Volume: dp("1")}},
		{"fill without destination", dto.RecordMovementRequest{LotID: lotID, Type: "initial_fill", Volume: dp("1")}},
		{"transfer without source", dto.RecordMovementRequest{LotID: lotID, Type: "transfer", DestinationContainerID: &b, Volume: dp("1")}},
		{"transfer onto itself", dto.RecordMovementRequest{LotID: lotID, Type: "transfer", SourceContainerID: &a, DestinationContainerID: &a, Volume: dp("1")}},
		{"bottling with destination", dto.RecordMovementRequest{LotID: lotID, Type: "bottling", SourceContainerID: &a, DestinationContainerID: &b}},
		{"top up with source", dto.RecordMovementRequest{LotID: lotID, Type: "top_up", SourceContainerID: &a, DestinationContainerID: &b, Volume: dp("1")}},
		{"unknown type", dto.RecordMovementRequest{LotID: lotID, Type: "evaporation", DestinationContainerID: &b, Volume: dp("1")}},
		{"zero volume", dto.RecordMovementRequest{LotID: lotID, Type: "initial_fill", DestinationContainerID: &b, Volume: dp("0")}},
		{"volume rounding to zero", dto.RecordMovementRequest{LotID: lotID, Type: "initial_fill", DestinationContainerID: &b, Volume: dp("0.004")}},
		{"negative volume", dto.RecordMovementRequest{LotID: lotID, Type: "initial_fill", DestinationContainerID: &b, Volume: dp("-5")}},
		{"missing volume", dto.RecordMovementRequest{LotID: lotID, Type: "transfer", SourceContainerID: &a, DestinationContainerID: &b}},
		{"bad lot id", dto.RecordMovementRequest{LotID: "nope", Type: "initial_fill", DestinationContainerID: &b, Volume: dp("1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.movements.RecordMovement(h.ctx, tc.req, "")
			assertKind(t, err, apierror.KindValidation)
		})
	}
	assert.EqualValues(t, 0, h.movementCount())
}

func TestRecordMovement_UnknownLotOrContainer(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	missing := uuid.NewString()

	_, err := h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: lotID, Type: "initial_fill", DestinationContainerID: &missing, Volume: dp("1"),
	}, "")
	assertKind(t, err, apierror.KindNotFound)

	tank := h.tank("100")
	_, err = h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: uuid.NewString(), Type: "initial_fill", DestinationContainerID: &tank, Volume: dp("1"),
	}, "")
	assertKind(t, err, apierror.KindNotFound)
}

// ── Tenant isolation ─────────────────────────────────────────────────────────

func TestTenantIsolation(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	tankID := h.tank("2000")
	h.fill(lotID, tankID, "100")

	otherCtx, _ := testutil.TenantContext()

	_, err := h.lots.Get(otherCtx, uuid.MustParse(lotID))
	assertKind(t, err, apierror.KindNotFound)
	_, err = h.containers.Get(otherCtx, uuid.MustParse(tankID))
	assertKind(t, err, apierror.KindNotFound)

	lots, err := h.lots.List(otherCtx, dto.WineLotFilter{})
	require.NoError(t, err)
	assert.Empty(t, lots)

	// The other tenant's lot cannot be moved into this tenant's container.
	foreign, err := h.lots.Create(otherCtx, dto.CreateWineLotRequest{GrapeVariety: "Syrah", InitialGrapeKg: d("160")})
	require.NoError(t, err)
	other := h.tank("500")
	_, err = h.movements.RecordMovement(otherCtx, dto.RecordMovementRequest{
		LotID: foreign.ID, Type: "initial_fill", DestinationContainerID: &other, Volume: dp("10"),
	}, "")
	assertKind(t, err, apierror.KindNotFound)
	assertDecimal(t, "0", h.getContainer(other).CurrentVolume)

	err = h.containers.Delete(otherCtx, uuid.MustParse(other))
	assertKind(t, err, apierror.KindNotFound)
}

// ── Cleaning ─────────────────────────────────────────────────────────────────

func TestCleaningCycle(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	tankID := h.tank("2000")
	id := uuid.MustParse(tankID)

	c, err := h.movements.MarkCleaning(h.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(model.ContainerCleaning), c.Status)

	_, err = h.movements.MarkCleaning(h.ctx, id)
	assertConflict(t, err, apierror.CodeInvalidState)

	_, err = h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID: lotID, Type: "initial_fill", DestinationContainerID: &tankID, Volume: dp("10"),
	}, "")
	assertConflict(t, err, apierror.CodeContainerUnavailable)

	c, err = h.movements.MarkClean(h.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(model.ContainerEmpty), c.Status)

	_, err = h.movements.MarkClean(h.ctx, id)
	assertConflict(t, err, apierror.CodeInvalidState)

	h.fill(lotID, tankID, "10")
	_, err = h.movements.MarkCleaning(h.ctx, id)
	assertConflict(t, err, apierror.CodeContainerOccupied)
}

// ── Idempotency ──────────────────────────────────────────────────────────────

func TestRecordMovement_IdempotencyKeyReplays(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("2000")
	dst := h.tank("2000")
	h.fill(lotID, src, "1000")

	req := dto.RecordMovementRequest{
		LotID: lotID, Type: "transfer", SourceContainerID: &src, DestinationContainerID: &dst, Volume: dp("300"),
	}
	first, err := h.movements.RecordMovement(h.ctx, req, "retry-1")
	require.NoError(t, err)
	second, err := h.movements.RecordMovement(h.ctx, req, "retry-1")
	require.NoError(t, err)

	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID)
	assertDecimal(t, "700", h.getContainer(src).CurrentVolume)
	assertDecimal(t, "300", h.getContainer(dst).CurrentVolume)
	assert.EqualValues(t, 2, h.movementCount())

	req.Volume = dp("10")
	_, err = h.movements.RecordMovement(h.ctx, req, "retry-1")
	assertConflict(t, err, apierror.CodeIdempotencyMismatch)
}

func TestRecordMovement_FailedAttemptDoesNotBurnKey(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	src := h.tank("2000")
	dst := h.tank("2000")
	h.fill(lotID, src, "100")

	req := dto.RecordMovementRequest{
		LotID: lotID, Type: "transfer", SourceContainerID: &src, DestinationContainerID: &dst, Volume: dp("150"),
	}
	_, err := h.movements.RecordMovement(h.ctx, req, "k-2")
	assertConflict(t, err, apierror.CodeInsufficientVolume)

	_, err = h.movements.RecordTopUp(h.ctx, dto.TopUpRequest{LotID: lotID, ContainerID: src, Volume: d("100")}, "")
	require.NoError(t, err)

	res, err := h.movements.RecordMovement(h.ctx, req, "k-2")
	require.NoError(t, err)
	assertDecimal(t, "150", res.Movements[0].Volume)
}

func TestIdempotencyKeysAreTenantScoped(t *testing.T) {
	h := newHarness(t)
	lotID := h.lot("1600")
	tankID := h.tank("2000")
	req := dto.RecordMovementRequest{LotID: lotID, Type: "initial_fill", DestinationContainerID: &tankID, Volume: dp("10")}
	_, err := h.movements.RecordMovement(h.ctx, req, "shared")
	require.NoError(t, err)

	otherCtx, _ := testutil.TenantContext()
	other, err := h.lots.Create(otherCtx, dto.CreateWineLotRequest{GrapeVariety: "Syrah", InitialGrapeKg: d("160")})
	require.NoError(t, err)
	otherTank, err := h.containers.Create(otherCtx, dto.CreateContainerRequest{Name: "T", Type: "tank", CapacityLiters: d("100")})
	require.NoError(t, err)

	res, err := h.movements.RecordMovement(otherCtx, dto.RecordMovementRequest{
		LotID: other.ID, Type: "initial_fill", DestinationContainerID: &otherTank.ID, Volume: dp("10"),
	}, "shared")
	require.NoError(t, err)
	assert.Equal(t, other.ID, res.Lot.ID)
}

// ── Listing ──────────────────────────────────────────────────────────────────

func TestListMovements_FiltersAndPaginates(t *testing.T) {
	h := newHarness(t)
	lotID, tankID, _ := fiveBarrels(t, h)

	all, err := h.movements.ListMovements(h.ctx, dto.MovementFilter{LotID: lotID, Page: 1, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 6, all.Total)
	assert.Len(t, all.Data, 4)
	assert.Equal(t, 2, all.TotalPages)

	transfers, err := h.movements.ListMovements(h.ctx, dto.MovementFilter{ContainerID: tankID, Type: "transfer"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, transfers.Total)
}
