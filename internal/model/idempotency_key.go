package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// IdempotencyKey records a client operation id together with the response it
// produced. It is written in the same transaction as the operation itself.
type IdempotencyKey struct {
	TenantID    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Key         string         `gorm:"primaryKey;size:128"`
	Operation   string         `gorm:"size:64;not null"`
	Fingerprint string         `gorm:"size:64;not null"`
	Response    datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time
}

func (IdempotencyKey) TableName() string { return "idempotency_keys" }
