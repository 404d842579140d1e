package infra

import (
	"context"
	"fmt"

	"winecellar/internal/model"
	"winecellar/internal/tenant"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBOptions tunes the connection pool handed out by NewDatabase.
type DBOptions struct {
	MaxOpenConns int
	MaxIdleConns int
}

// NewDatabase opens the Postgres pool used for the life of the process, installs
// the tenant scope plugin, migrates the cellar tables and applies the
// constraints AutoMigrate cannot express.
func NewDatabase(dsn string, opts DBOptions) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err := db.Use(NewTenantScopePlugin()); err != nil {
		return nil, fmt.Errorf("tenant scope plugin: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}
	return db, nil
}

// GormConfig is shared by every dialect so that duplicate-key errors surface
// as gorm.ErrDuplicatedKey regardless of driver.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// Migrate creates or updates the cellar tables. It only uses portable DDL so
// tests can run it against SQLite. Migrations run outside any tenant.
func Migrate(db *gorm.DB) error {
	return db.WithContext(tenant.WithoutScope(context.Background())).AutoMigrate(
		&model.WineLot{},
		&model.Container{},
		&model.Movement{},
		&model.Product{},
		&model.Cost{},
		&model.Parcel{},
		&model.LabAnalysis{},
		&model.IdempotencyKey{},
	)
}

// applySchemaPatches runs idempotent Postgres DDL for the invariants the
// models cannot declare: volume bounds, occupancy consistency and the
// movement shape. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"containers volume bounds", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_containers_volume_bounds') THEN
    ALTER TABLE containers ADD CONSTRAINT chk_containers_volume_bounds
      CHECK (capacity_liters > 0 AND current_volume >= 0 AND current_volume <= capacity_liters);
  END IF;
END $$`},
		{"containers occupancy", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_containers_occupancy') THEN
    ALTER TABLE containers ADD CONSTRAINT chk_containers_occupancy
      CHECK ((current_volume > 0) = (status = 'occupied' AND current_lot_id IS NOT NULL));
  END IF;
END $$`},
		{"wine_lots unassigned non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_wine_lots_unassigned') THEN
    ALTER TABLE wine_lots ADD CONSTRAINT chk_wine_lots_unassigned
      CHECK (liters_unassigned >= 0 AND liters_unassigned <= total_liters);
  END IF;
END $$`},
		{"movements positive volume", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movements_volume') THEN
    ALTER TABLE movements ADD CONSTRAINT chk_movements_volume CHECK (volume > 0);
  END IF;
END $$`},
		{"movements tenant/lot lookup", `
CREATE INDEX IF NOT EXISTS idx_movements_tenant_lot_created
    ON movements (tenant_id, lot_id, created_at)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
