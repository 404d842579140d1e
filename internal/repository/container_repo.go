package repository

import (
	"context"

	"winecellar/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContainerFilter narrows container listings. Zero values mean "any".
type ContainerFilter struct {
	Type   model.ContainerType
	Status model.ContainerStatus
	LotID  *uuid.UUID
}

// ContainerRepository is the data access contract for tanks and barrels.
// Every statement is tenant-scoped by the tenant scope plugin through the
// context carried by ctx or tx.
type ContainerRepository interface {
	Create(ctx context.Context, c *model.Container) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Container, error)
	List(ctx context.Context, filter ContainerFilter) ([]model.Container, error)
	ListByLots(ctx context.Context, lotIDs []uuid.UUID) ([]model.Container, error)

	// Used inside transactions; callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Container, error)
	LockTx(tx *gorm.DB, id uuid.UUID) (*model.Container, error)
	LockForLotTx(tx *gorm.DB, lotID uuid.UUID, ids []uuid.UUID) ([]model.Container, error)
	UpdateAttributesTx(tx *gorm.DB, c *model.Container) error
	SaveStateTx(tx *gorm.DB, c *model.Container) error
	ReleaseByLotTx(tx *gorm.DB, lotID uuid.UUID) (int64, error)
	RepointTx(tx *gorm.DB, ids []uuid.UUID, lotID uuid.UUID) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type containerRepo struct{ db *gorm.DB }

func NewContainerRepository(db *gorm.DB) ContainerRepository { return &containerRepo{db: db} }

func (r *containerRepo) Create(ctx context.Context, c *model.Container) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *containerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Container, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *containerRepo) List(ctx context.Context, filter ContainerFilter) ([]model.Container, error) {
	q := r.db.WithContext(ctx).Model(&model.Container{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.LotID != nil {
		q = q.Where("current_lot_id = ?", *filter.LotID)
	}
	var containers []model.Container
	err := q.Order("name ASC").Find(&containers).Error
	return containers, err
}

func (r *containerRepo) ListByLots(ctx context.Context, lotIDs []uuid.UUID) ([]model.Container, error) {
	var containers []model.Container
	if len(lotIDs) == 0 {
		return containers, nil
	}
	err := r.db.WithContext(ctx).
		Where("current_lot_id IN ?", lotIDs).
		Order("name ASC").
		Find(&containers).Error
	return containers, err
}

func (r *containerRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Container, error) {
	var c model.Container
	if err := tx.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *containerRepo) LockTx(tx *gorm.DB, id uuid.UUID) (*model.Container, error) {
	var c model.Container
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LockForLotTx locks, in id order, every container listed in ids together
// with every container currently holding lotID. Callers must already hold
// the lot row lock.
func (r *containerRepo) LockForLotTx(tx *gorm.DB, lotID uuid.UUID, ids []uuid.UUID) ([]model.Container, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	if len(ids) > 0 {
		q = q.Where("(id IN ? OR current_lot_id = ?)", ids, lotID)
	} else {
		q = q.Where("current_lot_id = ?", lotID)
	}
	var containers []model.Container
	err := q.Order("id ASC").Find(&containers).Error
	return containers, err
}

// UpdateAttributesTx writes the registry-owned attributes only. Volume,
// status and lot reference are left to SaveStateTx.
func (r *containerRepo) UpdateAttributesTx(tx *gorm.DB, c *model.Container) error {
	return tx.Model(&model.Container{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":            c.Name,
		"type":            c.Type,
		"capacity_liters": c.CapacityLiters,
		"material":        c.Material,
		"location":        c.Location,
	}).Error
}

func (r *containerRepo) SaveStateTx(tx *gorm.DB, c *model.Container) error {
	var lotRef interface{}
	if c.CurrentLotID != nil {
		lotRef = *c.CurrentLotID
	}
	return tx.Model(&model.Container{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"current_volume": c.CurrentVolume,
		"status":         c.Status,
		"current_lot_id": lotRef,
	}).Error
}

func (r *containerRepo) ReleaseByLotTx(tx *gorm.DB, lotID uuid.UUID) (int64, error) {
	res := tx.Model(&model.Container{}).Where("current_lot_id = ?", lotID).Updates(map[string]interface{}{
		"current_volume": 0,
		"status":         model.ContainerEmpty,
		"current_lot_id": nil,
	})
	return res.RowsAffected, res.Error
}

func (r *containerRepo) RepointTx(tx *gorm.DB, ids []uuid.UUID, lotID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&model.Container{}).Where("id IN ?", ids).Update("current_lot_id", lotID).Error
}

func (r *containerRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Where("id = ?", id).Delete(&model.Container{}).Error
}

func (r *containerRepo) DB() *gorm.DB { return r.db }
