package service_test

import (
	"context"
	"testing"
	"time"

	"winecellar/internal/dto"
	"winecellar/internal/model"
	"winecellar/internal/repository"
	"winecellar/internal/service"
	"winecellar/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Test harness ─────────────────────────────────────────────────────────────

type harness struct {
	t        *testing.T
	db       *gorm.DB
	ctx      context.Context
	tenantID uuid.UUID

	repos      service.WineLotRepos
	containers service.ContainerService
	lots       service.WineLotService
	movements  service.MovementService
	bottling   service.BottlingService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	ctx, tenantID := testutil.TenantContext()

	repos := service.WineLotRepos{
		Lots:       repository.NewWineLotRepository(db),
		Containers: repository.NewContainerRepository(db),
		Movements:  repository.NewMovementRepository(db),
		Products:   repository.NewProductRepository(db),
		Costs:      repository.NewCostLedger(db),
		Labs:       repository.NewLabAnalysisRepository(db),
		Parcels:    repository.NewParcelRepository(db),
	}
	guard := service.NewIdempotencyGuard(repository.NewIdempotencyRepository(db), nil, 30*time.Second)

	return &harness{
		t:          t,
		db:         db,
		ctx:        ctx,
		tenantID:   tenantID,
		repos:      repos,
		containers: service.NewContainerService(repos.Containers),
		lots:       service.NewWineLotService(repos, guard, 1.6),
		movements:  service.NewMovementService(repos.Lots, repos.Containers, repos.Movements, guard),
		bottling:   service.NewBottlingService(repos.Lots, repos.Containers, repos.Movements, repos.Products, repos.Costs, guard),
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func sp(s string) *string { return &s }

func (h *harness) container(kind, capacity string) string {
	h.t.Helper()
	c, err := h.containers.Create(h.ctx, dto.CreateContainerRequest{
		Name:           kind + "-" + uuid.NewString()[:8],
		Type:           kind,
		CapacityLiters: d(capacity),
	})
	require.NoError(h.t, err)
	return c.ID
}

func (h *harness) tank(capacity string) string   { return h.container("tank", capacity) }
func (h *harness) barrel(capacity string) string { return h.container("barrel", capacity) }

func (h *harness) lot(kg string) string {
	h.t.Helper()
	vintage := 2024
	l, err := h.lots.Create(h.ctx, dto.CreateWineLotRequest{
		GrapeVariety:   "Malbec",
		VintageYear:    &vintage,
		InitialGrapeKg: d(kg),
	})
	require.NoError(h.t, err)
	return l.ID
}

func (h *harness) fill(lotID, dst, volume string) *dto.MovementResult {
	h.t.Helper()
	res, err := h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID:                  lotID,
		Type:                   string(model.MovementInitialFill),
		DestinationContainerID: &dst,
		Volume:                 dp(volume),
	}, "")
	require.NoError(h.t, err)
	return res
}

func (h *harness) transfer(lotID, src, dst, volume string) (*dto.MovementResult, error) {
	return h.movements.RecordMovement(h.ctx, dto.RecordMovementRequest{
		LotID:                  lotID,
		Type:                   string(model.MovementTransfer),
		SourceContainerID:      &src,
		DestinationContainerID: &dst,
		Volume:                 dp(volume),
	}, "")
}

func (h *harness) getLot(id string) *dto.WineLotResponse {
	h.t.Helper()
	l, err := h.lots.Get(h.ctx, uuid.MustParse(id))
	require.NoError(h.t, err)
	return l
}

func (h *harness) getContainer(id string) *dto.ContainerResponse {
	h.t.Helper()
	c, err := h.containers.Get(h.ctx, uuid.MustParse(id))
	require.NoError(h.t, err)
	return c
}

func (h *harness) movementCount() int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.WithContext(h.ctx).Model(&model.Movement{}).Count(&n).Error)
	return n
}

// assertInvariants checks the conservation and bounds properties over every
// lot and container of the tenant.
func (h *harness) assertInvariants() {
	h.t.Helper()
	var lots []model.WineLot
	require.NoError(h.t, h.db.WithContext(h.ctx).Find(&lots).Error)
	var containers []model.Container
	require.NoError(h.t, h.db.WithContext(h.ctx).Find(&containers).Error)

	held := map[uuid.UUID]decimal.Decimal{}
	for _, c := range containers {
		assert.False(h.t, c.CurrentVolume.IsNegative(), "container %s volume below zero", c.Name)
		assert.True(h.t, c.CurrentVolume.LessThanOrEqual(c.CapacityLiters), "container %s over capacity", c.Name)
		occupied := c.Status == model.ContainerOccupied && c.CurrentLotID != nil
		assert.Equal(h.t, c.CurrentVolume.IsPositive(), occupied, "container %s occupancy mismatch", c.Name)
		if c.CurrentLotID != nil {
			held[*c.CurrentLotID] = held[*c.CurrentLotID].Add(c.CurrentVolume)
		}
	}
	for _, l := range lots {
		assert.False(h.t, l.LitersUnassigned.IsNegative(), "lot %s unassigned below zero", l.Name)
		total := held[l.ID].Add(l.LitersUnassigned)
		assert.True(h.t, total.LessThanOrEqual(l.TotalLiters),
			"lot %s holds %s L but only has %s L", l.Name, total, l.TotalLiters)
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}
