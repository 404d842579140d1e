// cmd/seedcellar loads a demo cellar for one tenant: a parcel with its
// vineyard cost, a harvested lot, tanks and barrels. Re-running adds a new
// harvest to the same tenant.
// Usage: go run ./cmd/seedcellar -tenant <uuid>
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"winecellar/internal/config"
	"winecellar/internal/dto"
	"winecellar/internal/infra"
	"winecellar/internal/model"
	"winecellar/internal/repository"
	"winecellar/internal/service"
	"winecellar/internal/tenant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	tenantFlag := flag.String("tenant", "", "tenant id (a new one is generated when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, infra.DBOptions{})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	tenantID := uuid.New()
	if *tenantFlag != "" {
		if tenantID, err = uuid.Parse(*tenantFlag); err != nil {
			log.Fatal().Err(err).Msg("invalid -tenant")
		}
	}
	ctx := tenant.WithID(context.Background(), tenantID)

	parcels := repository.NewParcelRepository(db)
	costs := repository.NewCostLedger(db)
	containers := service.NewContainerService(repository.NewContainerRepository(db))
	lots := service.NewWineLotService(service.WineLotRepos{
		Lots:       repository.NewWineLotRepository(db),
		Containers: repository.NewContainerRepository(db),
		Movements:  repository.NewMovementRepository(db),
		Products:   repository.NewProductRepository(db),
		Costs:      costs,
		Labs:       repository.NewLabAnalysisRepository(db),
		Parcels:    parcels,
	}, nil, cfg.YieldRatio)

	parcel := &model.Parcel{
		TenantID:     tenantID,
		Name:         "Finca Norte",
		Variety:      "Malbec",
		AreaHectares: decimal.RequireFromString("4.5"),
	}
	if err := parcels.Create(ctx, parcel); err != nil {
		log.Fatal().Err(err).Msg("create parcel")
	}
	if err := costs.Create(ctx, &model.Cost{
		TenantID:        tenantID,
		RelatedParcelID: &parcel.ID,
		CostType:        "vineyard",
		Amount:          decimal.NewFromInt(1800),
		Description:     "pruning and harvest labor",
		CostDate:        time.Now().UTC(),
	}); err != nil {
		log.Fatal().Err(err).Msg("create cost")
	}

	vintage := time.Now().Year()
	parcelID := parcel.ID.String()
	lot, err := lots.Create(ctx, dto.CreateWineLotRequest{
		GrapeVariety:   "Malbec",
		VintageYear:    &vintage,
		InitialGrapeKg: decimal.NewFromInt(1600),
		OriginParcelID: &parcelID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create lot")
	}

	specs := []dto.CreateContainerRequest{
		{Name: "T-01", Type: "tank", CapacityLiters: decimal.NewFromInt(2000)},
		{Name: "T-02", Type: "tank", CapacityLiters: decimal.NewFromInt(1000)},
	}
	for i := 1; i <= 5; i++ {
		specs = append(specs, dto.CreateContainerRequest{
			Name: fmt.Sprintf("B-%02d", i), Type: "barrel", CapacityLiters: decimal.NewFromInt(225),
		})
	}
	for _, spec := range specs {
		if _, err := containers.Create(ctx, spec); err != nil {
			log.Fatal().Err(err).Str("container", spec.Name).Msg("create container")
		}
	}

	log.Info().
		Str("tenant_id", tenantID.String()).
		Str("lot_id", lot.ID).
		Int("containers", len(specs)).
		Msg("demo cellar seeded")
}
