package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParcelRepository resolves origin parcels for new lots.
type ParcelRepository interface {
	Create(ctx context.Context, p *model.Parcel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Parcel, error)
}

type parcelRepo struct{ db *gorm.DB }

func NewParcelRepository(db *gorm.DB) ParcelRepository { return &parcelRepo{db: db} }

func (r *parcelRepo) Create(ctx context.Context, p *model.Parcel) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *parcelRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Parcel, error) {
	var p model.Parcel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
