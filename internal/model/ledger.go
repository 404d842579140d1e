package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The rows below belong to collaborating modules (cost administration,
// parcels, laboratory). The cellar engine reads them, and removes lot
// references when a lot is deleted.

// Cost is one cost entry attributed to a lot, a parcel, or neither.
type Cost struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	RelatedLotID    *uuid.UUID      `gorm:"type:uuid;index"`
	RelatedParcelID *uuid.UUID      `gorm:"type:uuid;index"`
	CostType        string          `gorm:"not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description     string
	CostDate        time.Time
	CreatedAt       time.Time
}

func (Cost) TableName() string { return "costs" }

func (c *Cost) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Parcel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"not null"`
	Variety      string
	AreaHectares decimal.Decimal `gorm:"type:decimal(10,2)"`
	CreatedAt    time.Time
}

func (Parcel) TableName() string { return "parcels" }

func (p *Parcel) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// LabAnalysis is a laboratory record taken from a lot, optionally in a given container.
type LabAnalysis struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	LotID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	ContainerID     *uuid.UUID       `gorm:"type:uuid"`
	AnalysisDate    time.Time
	AlcoholicDegree *decimal.Decimal `gorm:"type:decimal(5,2)"`
	PH              *decimal.Decimal `gorm:"column:ph;type:decimal(4,2)"`
	Notes           string
	CreatedAt       time.Time
}

func (LabAnalysis) TableName() string { return "lab_analytics" }

func (a *LabAnalysis) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
