package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementInitialFill MovementType = "initial_fill"
	MovementTransfer    MovementType = "transfer"
	MovementBottling    MovementType = "bottling"
	MovementTopUp       MovementType = "top_up"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementInitialFill, MovementTransfer, MovementBottling, MovementTopUp:
		return true
	}
	return false
}

// Movement is an append-only audit record of wine entering, moving between
// or leaving containers. Rows are only deleted together with their lot.
type Movement struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotID                  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceContainerID      *uuid.UUID      `gorm:"type:uuid;index"`
	DestinationContainerID *uuid.UUID      `gorm:"type:uuid;index"`
	Volume                 decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Type                   MovementType    `gorm:"type:varchar(16);not null"`
	OperationKey           *string         `gorm:"index"` // client idempotency key, shared by a batch
	CreatedAt              time.Time       `gorm:"index"`
}

func (Movement) TableName() string { return "movements" }

func (m *Movement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
