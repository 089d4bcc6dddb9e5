package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swapslot/backend/internal/model"
	pkgerrors "swapslot/backend/pkg/errors"
)

// SlotRepository slot data access
type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	// GetByIDForUpdate reads the row with SELECT ... FOR UPDATE.
	// Only meaningful on a Repository obtained from Transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Slot, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Slot, error)
	ListSwappable(ctx context.Context, excludeOwnerID string) ([]model.Slot, error)
	ListSwappableByOwner(ctx context.Context, ownerID string) ([]model.Slot, error)
	// Update writes owner, title, times and status guarded by the version
	// column; a stale version yields pkgerrors.ErrOptimisticLock.
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id string) error
}

type slotRepo struct {
	db *gorm.DB
}

// NewSlotRepo creates a SlotRepository
func NewSlotRepo(db *gorm.DB) SlotRepository {
	return &slotRepo{db: db}
}

func (r *slotRepo) Create(ctx context.Context, slot *model.Slot) error {
	if slot.Version == 0 {
		slot.Version = 1
	}
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *slotRepo) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	var slot model.Slot
	err := r.db.WithContext(ctx).
		Where("slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Slot, error) {
	var slot model.Slot
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slot_id = ?", id).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("start_time ASC, slot_id ASC").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepo) ListSwappable(ctx context.Context, excludeOwnerID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("status = ? AND owner_id <> ?", string(model.SlotSwappable), excludeOwnerID).
		Order("start_time ASC, slot_id ASC").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepo) ListSwappableByOwner(ctx context.Context, ownerID string) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("status = ? AND owner_id = ?", string(model.SlotSwappable), ownerID).
		Order("start_time ASC, slot_id ASC").
		Find(&slots).Error
	return slots, err
}

func (r *slotRepo) Update(ctx context.Context, slot *model.Slot) error {
	oldVersion := slot.Version
	result := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("slot_id = ? AND version = ?", slot.SlotID, oldVersion).
		Updates(map[string]interface{}{
			"owner_id":   slot.OwnerID,
			"title":      slot.Title,
			"start_time": slot.StartTime,
			"end_time":   slot.EndTime,
			"status":     string(slot.Status),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version = oldVersion + 1
	return nil
}

func (r *slotRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("slot_id = ?", id).
		Delete(&model.Slot{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
