package service

import (
	"context"
	"errors"
	"time"

	"winecellar/internal/apierror"
	"winecellar/internal/observability"
	"winecellar/internal/tenant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction bound to ctx. Any error returned
// by fn rolls the whole transaction back.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// runCellarTx is runTx plus the bookkeeping every cellar write shares:
// duration metric, error metric and storage error wrapping.
func runCellarTx(ctx context.Context, db *gorm.DB, operation string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	err := runTx(ctx, db, fn)
	observability.ObserveTx(operation, start)
	if err != nil {
		return failed(operation, err)
	}
	return nil
}

// failed classifies err, counts it and logs storage failures. Domain errors
// pass through unchanged.
func failed(operation string, err error) error {
	e, ok := apierror.As(err)
	if !ok {
		e = apierror.Storage(err)
	}
	observability.RecordError(operation, e.Kind.String())
	if e.Kind == apierror.KindStorage {
		log.Error().Err(err).Str("operation", operation).Msg("cellar transaction failed")
	}
	return e
}

// tenantFrom returns the tenant bound to ctx. Every cellar operation needs one.
func tenantFrom(ctx context.Context) (uuid.UUID, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok {
		return uuid.Nil, apierror.Validation("tenant context is required")
	}
	return id, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Validation("%s is not a valid id", field)
	}
	return id, nil
}

func parseOptionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// lookupErr turns a finder error into NotFound or a storage failure. Rows of
// another tenant are invisible, so they are reported as missing too.
func lookupErr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("%s %s not found", entity, id)
	}
	return err
}
