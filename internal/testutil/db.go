// Package testutil provides an in-memory database wired exactly like
// production (tenant scope plugin, migrations) for package tests.
package testutil

import (
	"context"
	"testing"

	"winecellar/internal/infra"
	"winecellar/internal/tenant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a private SQLite in-memory database. A single connection keeps
// the database alive for the whole test and serializes transactions.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), infra.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Use(infra.NewTenantScopePlugin()))
	require.NoError(t, infra.Migrate(db))
	return db
}

// TenantContext returns a context bound to a fresh tenant.
func TenantContext() (context.Context, uuid.UUID) {
	id := uuid.New()
	return tenant.WithID(context.Background(), id), id
}
