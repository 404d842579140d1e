package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter defines filters for listing movements.
type MovementFilter struct {
	LotID       *uuid.UUID
	ContainerID *uuid.UUID
	Type        model.MovementType
	Page        int
	Limit       int
}

// MovementRepository is append-only: rows are created by the ledger and only
// removed together with their lot.
type MovementRepository interface {
	CreateBatchTx(tx *gorm.DB, movements []model.Movement) error
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]model.Movement, int64, error)
	DeleteByLotTx(tx *gorm.DB, lotID uuid.UUID) error
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) CreateBatchTx(tx *gorm.DB, movements []model.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	return tx.Create(&movements).Error
}

// ListByLot returns the lot's audit trail, oldest first.
func (r *movementRepo) ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.Movement, error) {
	var movements []model.Movement
	err := r.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.Movement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Movement{})
	if filter.LotID != nil {
		q = q.Where("lot_id = ?", *filter.LotID)
	}
	if filter.ContainerID != nil {
		q = q.Where("(source_container_id = ? OR destination_container_id = ?)", *filter.ContainerID, *filter.ContainerID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movements []model.Movement
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *movementRepo) DeleteByLotTx(tx *gorm.DB, lotID uuid.UUID) error {
	return tx.Where("lot_id = ?", lotID).Delete(&model.Movement{}).Error
}
