package repository

import (
	"context"

	"winecellar/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IdempotencyRepository interface {
	Find(ctx context.Context, key string) (*model.IdempotencyKey, error)
	CreateTx(tx *gorm.DB, k *model.IdempotencyKey) error
	SaveResponseTx(tx *gorm.DB, k *model.IdempotencyKey, response datatypes.JSON) error
}

type idempotencyRepo struct{ db *gorm.DB }

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepo{db: db}
}

func (r *idempotencyRepo) Find(ctx context.Context, key string) (*model.IdempotencyKey, error) {
	var k model.IdempotencyKey
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

// CreateTx claims the key. A concurrent or earlier claim surfaces as
// gorm.ErrDuplicatedKey.
func (r *idempotencyRepo) CreateTx(tx *gorm.DB, k *model.IdempotencyKey) error {
	return tx.Create(k).Error
}

func (r *idempotencyRepo) SaveResponseTx(tx *gorm.DB, k *model.IdempotencyKey, response datatypes.JSON) error {
	return tx.Model(&model.IdempotencyKey{}).
		Where("tenant_id = ? AND key = ?", k.TenantID, k.Key).
		Update("response", response).Error
}
