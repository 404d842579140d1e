package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WineLotFilter narrows lot listings.
type WineLotFilter struct {
	Status  model.LotStatus
	Vintage *int
	Variety string
}

type WineLotRepository interface {
	Create(ctx context.Context, l *model.WineLot) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WineLot, error)
	List(ctx context.Context, filter WineLotFilter) ([]model.WineLot, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, l *model.WineLot) error
	LockTx(tx *gorm.DB, id uuid.UUID) (*model.WineLot, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.LotStatus) error
	SaveVolumesTx(tx *gorm.DB, l *model.WineLot) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type wineLotRepo struct{ db *gorm.DB }

func NewWineLotRepository(db *gorm.DB) WineLotRepository { return &wineLotRepo{db: db} }

func (r *wineLotRepo) Create(ctx context.Context, l *model.WineLot) error {
	return r.CreateTx(r.db.WithContext(ctx), l)
}

func (r *wineLotRepo) CreateTx(tx *gorm.DB, l *model.WineLot) error {
	return tx.Create(l).Error
}

func (r *wineLotRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.WineLot, error) {
	var l model.WineLot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *wineLotRepo) List(ctx context.Context, filter WineLotFilter) ([]model.WineLot, error) {
	q := r.db.WithContext(ctx).Model(&model.WineLot{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Vintage != nil {
		q = q.Where("vintage_year = ?", *filter.Vintage)
	}
	if filter.Variety != "" {
		q = q.Where("grape_variety = ?", filter.Variety)
	}
	var lots []model.WineLot
	err := q.Order("created_at DESC").Find(&lots).Error
	return lots, err
}

// LockTx loads the lot with a row lock. It is always the first lock taken
// by a cellar transaction.
func (r *wineLotRepo) LockTx(tx *gorm.DB, id uuid.UUID) (*model.WineLot, error) {
	var l model.WineLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *wineLotRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.LotStatus) error {
	return tx.Model(&model.WineLot{}).Where("id = ?", id).Update("status", status).Error
}

// SaveVolumesTx persists the mutable bookkeeping of a locked lot: status,
// volumes and grape mass.
func (r *wineLotRepo) SaveVolumesTx(tx *gorm.DB, l *model.WineLot) error {
	return tx.Model(&model.WineLot{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"status":            l.Status,
		"total_liters":      l.TotalLiters,
		"liters_unassigned": l.LitersUnassigned,
		"initial_grape_kg":  l.InitialGrapeKg,
	}).Error
}

func (r *wineLotRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.WineLot{}).Error
}

func (r *wineLotRepo) DB() *gorm.DB { return r.db }
