package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CostLedger is the read side of cost administration consumed by unit-cost
// computation. Amounts are summed in Go so the result is exact on every driver.
type CostLedger interface {
	Create(ctx context.Context, c *model.Cost) error
	SumByLotTx(tx *gorm.DB, lotID uuid.UUID) (decimal.Decimal, error)
	SumByParcelTx(tx *gorm.DB, parcelID uuid.UUID) (decimal.Decimal, error)
	DeleteByLotTx(tx *gorm.DB, lotID uuid.UUID) error
}

type costRepo struct{ db *gorm.DB }

func NewCostLedger(db *gorm.DB) CostLedger { return &costRepo{db: db} }

func (r *costRepo) Create(ctx context.Context, c *model.Cost) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *costRepo) SumByLotTx(tx *gorm.DB, lotID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(tx.Where("related_lot_id = ?", lotID))
}

func (r *costRepo) SumByParcelTx(tx *gorm.DB, parcelID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(tx.Where("related_parcel_id = ?", parcelID))
}

func (r *costRepo) sum(q *gorm.DB) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := q.Model(&model.Cost{}).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

func (r *costRepo) DeleteByLotTx(tx *gorm.DB, lotID uuid.UUID) error {
	return tx.Where("related_lot_id = ?", lotID).Delete(&model.Cost{}).Error
}
