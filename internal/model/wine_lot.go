package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LotStatus string

const (
	LotHarvested     LotStatus = "harvested"
	LotFermenting    LotStatus = "fermenting"
	LotAging         LotStatus = "aging"
	LotReadyToBottle LotStatus = "ready_to_bottle"
	LotBottled       LotStatus = "bottled"
)

var lotStatusRank = map[LotStatus]int{
	LotHarvested:     0,
	LotFermenting:    1,
	LotAging:         2,
	LotReadyToBottle: 3,
	LotBottled:       4,
}

func (s LotStatus) Valid() bool {
	_, ok := lotStatusRank[s]
	return ok
}

// Before reports whether s precedes other in the lifecycle.
func (s LotStatus) Before(other LotStatus) bool {
	return lotStatusRank[s] < lotStatusRank[other]
}

// WineLot is a traceable batch of wine from one harvest event.
// TotalLiters is fixed at creation (grape kg / yield ratio) and only changes
// when a barrel portion is split off into its own lot.
type WineLot struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name             string          `gorm:"not null"`
	GrapeVariety     string          `gorm:"index"`
	VintageYear      *int
	Status           LotStatus       `gorm:"type:varchar(32);not null;index"`
	InitialGrapeKg   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalLiters      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LitersUnassigned decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OriginParcelID   *uuid.UUID      `gorm:"type:uuid;index"`
	SplitFromLotID   *uuid.UUID      `gorm:"type:uuid"` // set on lots created by a barrel split
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (WineLot) TableName() string { return "wine_lots" }

func (l *WineLot) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
