package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LabAnalysisRepository interface {
	Create(ctx context.Context, a *model.LabAnalysis) error
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.LabAnalysis, error)
	DeleteByLotTx(tx *gorm.DB, lotID uuid.UUID) error
}

type labAnalysisRepo struct{ db *gorm.DB }

func NewLabAnalysisRepository(db *gorm.DB) LabAnalysisRepository {
	return &labAnalysisRepo{db: db}
}

func (r *labAnalysisRepo) Create(ctx context.Context, a *model.LabAnalysis) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *labAnalysisRepo) ListByLot(ctx context.Context, lotID uuid.UUID) ([]model.LabAnalysis, error) {
	var analyses []model.LabAnalysis
	err := r.db.WithContext(ctx).Where("lot_id = ?", lotID).Order("analysis_date ASC").Find(&analyses).Error
	return analyses, err
}

func (r *labAnalysisRepo) DeleteByLotTx(tx *gorm.DB, lotID uuid.UUID) error {
	return tx.Where("lot_id = ?", lotID).Delete(&model.LabAnalysis{}).Error
}
