package service

import (
	"context"
	"errors"
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

// BottlingService drains containers through the ledger and creates the
// resulting catalog product with its unit cost, in one transaction.
type BottlingService interface {
	BottleAndCreateProduct(ctx context.Context, req dto.BottleAndCreateProductRequest, opKey string) (*dto.BottlingResult, error)
}

type bottlingService struct {
	ledger   *ledger
	products repository.ProductRepository
	costs    repository.CostLedger
	guard    *IdempotencyGuard
}

func NewBottlingService(
	lots repository.WineLotRepository,
	containers repository.ContainerRepository,
	movements repository.MovementRepository,
	products repository.ProductRepository,
	costs repository.CostLedger,
	guard *IdempotencyGuard,
) BottlingService {
	return &bottlingService{
		ledger:   &ledger{lots: lots, containers: containers, movements: movements},
		products: products,
		costs:    costs,
		guard:    guard,
	}
}

func (s *bottlingService) BottleAndCreateProduct(ctx context.Context, req dto.BottleAndCreateProductRequest, opKey string) (*dto.BottlingResult, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	lotID, err := parseID("lot_id", req.LotID)
	if err != nil {
		return nil, err
	}
	if req.BottlesProduced <= 0 {
		return nil, apierror.Validation("bottles_produced must be greater than zero")
	}
	name := strings.TrimSpace(req.Product.Name)
	sku := strings.TrimSpace(req.Product.SKU)
	if name == "" || sku == "" {
		return nil, apierror.Validation("product name and sku are required")
	}
	if req.Product.Price.IsNegative() {
		return nil, apierror.Validation("product price cannot be negative")
	}
	if len(req.SourceContainerIDs) == 0 {
		return nil, apierror.Validation("at least one source container is required")
	}
	sources := make([]uuid.UUID, 0, len(req.SourceContainerIDs))
	seen := make(map[uuid.UUID]bool, len(req.SourceContainerIDs))
	for _, raw := range req.SourceContainerIDs {
		id, err := parseID("source_container_ids", raw)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, apierror.Validation("source container %s is listed twice", id)
		}
		seen[id] = true
		sources = append(sources, id)
	}

	res, replayed, err := idempotent(ctx, s.guard, s.ledger.lots.DB(), opKey, "bottle_and_create_product", req,
		func(tx *gorm.DB) (*dto.BottlingResult, error) {
			return s.bottleTx(tx, tenantID, lotID, sources, name, sku, opKey, req)
		})
	if err != nil {
		return nil, err
	}
	if !replayed {
		logCommitted(tenantID, &dto.MovementResult{Movements: res.Movements})
		log.Info().
			Str("lot_id", lotID.String()).
			Str("product_id", res.Product.ID).
			Str("sku", res.Product.SKU).
			Int("bottles", res.Product.StockUnits).
			Str("unit_cost", res.Product.UnitCost.String()).
			Msg("lot bottled into product")
	}
	return res, nil
}

func (s *bottlingService) bottleTx(
	tx *gorm.DB,
	tenantID, lotID uuid.UUID,
	sources []uuid.UUID,
	name, sku, opKey string,
	req dto.BottleAndCreateProductRequest,
) (*dto.BottlingResult, error) {
	lt, err := s.ledger.open(tx, tenantID, lotID, sources, opKey)
	if err != nil {
		return nil, err
	}

	exists, err := s.products.SKUExistsTx(tx, sku)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apierror.Conflict(apierror.CodeDuplicateSKU, "sku %s already exists", sku)
	}

	for _, id := range sources {
		src := id
		if err := lt.apply(step{kind: model.MovementBottling, source: &src, drain: true}); err != nil {
			return nil, err
		}
	}
	bottled := decimal.Zero
	for _, m := range lt.recorded {
		bottled = bottled.Add(m.Volume)
	}

	unitCost, err := s.unitCost(tx, lt.lot, req.BottlesProduced)
	if err != nil {
		return nil, err
	}
	if err := lt.commit(); err != nil {
		return nil, err
	}

	variety := lt.lot.GrapeVariety
	if req.Product.Variety != nil && strings.TrimSpace(*req.Product.Variety) != "" {
		variety = strings.TrimSpace(*req.Product.Variety)
	}
	origin := lt.lot.ID
	product := &model.Product{
		TenantID:        tenantID,
		SKU:             sku,
		Name:            name,
		Variety:         variety,
		Description:     req.Product.Description,
		Price:           req.Product.Price.Round(2),
		UnitCost:        unitCost,
		StockUnits:      req.BottlesProduced,
		WineLotOriginID: &origin,
	}
	if err := s.products.CreateTx(tx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict(apierror.CodeDuplicateSKU, "sku %s already exists", sku)
		}
		return nil, err
	}

	result := lt.result()
	return &dto.BottlingResult{
		Product:       mapProduct(*product),
		BottledLiters: bottled,
		Movements:     result.Movements,
		Lot:           result.Lot,
	}, nil
}

// unitCost is (costs of the lot + costs of its origin parcel) / bottles,
// rounded to four places.
func (s *bottlingService) unitCost(tx *gorm.DB, lot *model.WineLot, bottles int) (decimal.Decimal, error) {
	total, err := s.costs.SumByLotTx(tx, lot.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if lot.OriginParcelID != nil {
		parcelCost, err := s.costs.SumByParcelTx(tx, *lot.OriginParcelID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(parcelCost)
	}
	return total.Div(decimal.NewFromInt(int64(bottles))).Round(4), nil
}
