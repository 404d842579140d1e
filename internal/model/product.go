package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog row created when a lot is bottled.
// SKUs are unique per tenant.
type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_sku"`
	SKU             string          `gorm:"column:sku;not null;uniqueIndex:idx_products_tenant_sku"`
	Name            string          `gorm:"not null"`
	Variety         string
	Description     *string
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	StockUnits      int             `gorm:"not null;default:0"`
	WineLotOriginID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
