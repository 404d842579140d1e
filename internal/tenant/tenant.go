// Package tenant carries the caller's tenant id through request contexts.
// It is a leaf package so that infra, middleware and services can all share it
// without import cycles.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	keyTenantID  contextKey = "tenant_id"
	keySkipScope contextKey = "skip_tenant_scope"
)

// WithID returns a copy of ctx bound to tenantID.
func WithID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, keyTenantID, tenantID)
}

// FromContext returns the tenant bound to ctx, if any.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyTenantID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithoutScope disables the automatic tenant filter for internal maintenance
// jobs (seeding, migrations). Request paths never use it.
func WithoutScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, keySkipScope, true)
}

// ScopeDisabled reports whether WithoutScope was applied to ctx.
func ScopeDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(keySkipScope).(bool)
	return v
}
