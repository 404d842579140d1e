package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContainerType string

const (
	ContainerTank   ContainerType = "tank"
	ContainerBarrel ContainerType = "barrel"
)

func (t ContainerType) Valid() bool { return t == ContainerTank || t == ContainerBarrel }

type ContainerStatus string

const (
	ContainerEmpty    ContainerStatus = "empty"
	ContainerOccupied ContainerStatus = "occupied"
	ContainerCleaning ContainerStatus = "cleaning"
)

// Container is a tank or barrel. CurrentVolume, Status and CurrentLotID are
// owned by the movement ledger; registry updates never touch them.
type Container struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name           string          `gorm:"not null"`
	Type           ContainerType   `gorm:"type:varchar(16);not null;index"`
	CapacityLiters decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Material       *string
	Location       *string
	Status         ContainerStatus `gorm:"type:varchar(16);not null;default:'empty'"`
	CurrentVolume  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CurrentLotID   *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Container) TableName() string { return "containers" }

func (c *Container) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// FreeCapacity is the volume that still fits in the container.
func (c *Container) FreeCapacity() decimal.Decimal {
	return c.CapacityLiters.Sub(c.CurrentVolume)
}

// Holds reports whether the container currently holds volume for lotID.
func (c *Container) Holds(lotID uuid.UUID) bool {
	return c.CurrentLotID != nil && *c.CurrentLotID == lotID && c.Status == ContainerOccupied
}

// Release empties the container and detaches it from its lot.
func (c *Container) Release() {
	c.CurrentVolume = decimal.Zero
	c.Status = ContainerEmpty
	c.CurrentLotID = nil
}
