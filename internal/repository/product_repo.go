package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the write side of the product catalog used by bottling.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.Product, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, p *model.Product) error
	SKUExistsTx(tx *gorm.DB, sku string) (bool, error)
	DetachLotTx(tx *gorm.DB, lotID uuid.UUID) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("wine_lot_origin_id = ?", lotID).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) SKUExistsTx(tx *gorm.DB, sku string) (bool, error) {
	var count int64
	err := tx.Model(&model.Product{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

// DetachLotTx clears the lot reference of every product bottled from lotID.
// The products themselves stay in the catalog.
func (r *productRepo) DetachLotTx(tx *gorm.DB, lotID uuid.UUID) error {
	return tx.Model(&model.Product{}).
		Where("wine_lot_origin_id = ?", lotID).
		Update("wine_lot_origin_id", nil).Error
}
