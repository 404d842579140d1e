package infra

import (
	"errors"
	"reflect"
	"strings"

	"winecellar/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tenantColumn = "tenant_id"

// ErrMissingTenant is raised when a statement on a tenant-scoped table runs
// without a tenant: an insert with no tenant id, or a query, update or delete
// whose context carries none.
var ErrMissingTenant = errors.New("tenant_id is required on tenant-scoped statements")

// TenantScopePlugin enforces tenant isolation on every statement touching a
// model with a tenant_id column:
//   - queries, updates and deletes get a tenant_id filter from the context
//     when the statement does not already carry one, and fail when the
//     context has no tenant;
//   - creates without a tenant id are rejected.
//
// tenant.WithoutScope is the only way to run a statement across tenants.
// Raw SQL is not covered; repositories never issue raw SQL against tenant tables.
type TenantScopePlugin struct{}

func NewTenantScopePlugin() *TenantScopePlugin { return &TenantScopePlugin{} }

func (p *TenantScopePlugin) Name() string { return "tenant_scope" }

func (p *TenantScopePlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("tenant_scope:query", scopeByTenant); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("tenant_scope:row", scopeByTenant); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("tenant_scope:update", scopeByTenant); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("tenant_scope:delete", scopeByTenant); err != nil {
		return err
	}
	return db.Callback().Create().Before("gorm:create").Register("tenant_scope:create", requireTenantOnCreate)
}

func hasTenantColumn(db *gorm.DB) bool {
	if db.Statement == nil || db.Statement.Schema == nil {
		return false
	}
	_, ok := db.Statement.Schema.FieldsByDBName[tenantColumn]
	return ok
}

func scopeByTenant(db *gorm.DB) {
	if !hasTenantColumn(db) {
		return
	}
	ctx := db.Statement.Context
	if ctx != nil && tenant.ScopeDisabled(ctx) {
		return
	}
	if whereHasTenant(db.Statement.Clauses["WHERE"]) {
		return
	}
	if ctx == nil {
		_ = db.AddError(ErrMissingTenant)
		return
	}
	tenantID, ok := tenant.FromContext(ctx)
	if !ok {
		_ = db.AddError(ErrMissingTenant)
		return
	}
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: tenantColumn},
				Value:  tenantID,
			},
		},
	})
}

func requireTenantOnCreate(db *gorm.DB) {
	if !hasTenantColumn(db) {
		return
	}
	if ctx := db.Statement.Context; ctx != nil && tenant.ScopeDisabled(ctx) {
		return
	}
	field := db.Statement.Schema.FieldsByDBName[tenantColumn]
	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Struct:
		if _, zero := field.ValueOf(db.Statement.Context, rv); zero {
			_ = db.AddError(ErrMissingTenant)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if _, zero := field.ValueOf(db.Statement.Context, reflect.Indirect(rv.Index(i))); zero {
				_ = db.AddError(ErrMissingTenant)
				return
			}
		}
	}
}

func whereHasTenant(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasTenant(e) {
			return true
		}
	}
	return false
}

func exprHasTenant(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsTenant(v.Column)
	case clause.IN:
		return colIsTenant(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasTenant(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), tenantColumn)
	default:
		return false
	}
}

func colIsTenant(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, tenantColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, tenantColumn)
	default:
		return false
	}
}
