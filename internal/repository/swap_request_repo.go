package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swapslot/backend/internal/model"
	pkgerrors "swapslot/backend/pkg/errors"
)

// SwapRequestRepository swap request data access
type SwapRequestRepository interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetByID(ctx context.Context, id string) (*model.SwapRequest, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.SwapRequest, error)
	// Resolve moves a PENDING request to a terminal status. Fails with
	// pkgerrors.ErrOptimisticLock if the row is no longer PENDING at that version.
	Resolve(ctx context.Context, req *model.SwapRequest, status model.SwapStatus, at time.Time) error
	ListIncoming(ctx context.Context, receiverID string) ([]SwapRequestRow, error)
	ListOutgoing(ctx context.Context, requesterID string) ([]SwapRequestRow, error)
}

// SwapRequestRow denormalized listing row. Slot and counterpart columns are
// nil when the referenced record no longer exists.
type SwapRequestRow struct {
	SwapRequestID string
	RequesterID   string
	ReceiverID    string
	MySlotID      string
	TheirSlotID   string
	Status        string
	RespondedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	MySlotOwnerID *string
	MySlotTitle   *string
	MySlotStart   *time.Time
	MySlotEnd     *time.Time
	MySlotStatus  *string

	TheirSlotOwnerID *string
	TheirSlotTitle   *string
	TheirSlotStart   *time.Time
	TheirSlotEnd     *time.Time
	TheirSlotStatus  *string

	CounterpartID    *string
	CounterpartName  *string
	CounterpartEmail *string
}

type swapRequestRepo struct {
	db *gorm.DB
}

// NewSwapRequestRepo creates a SwapRequestRepository
func NewSwapRequestRepo(db *gorm.DB) SwapRequestRepository {
	return &swapRequestRepo{db: db}
}

func (r *swapRequestRepo) Create(ctx context.Context, req *model.SwapRequest) error {
	if req.Version == 0 {
		req.Version = 1
	}
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *swapRequestRepo) GetByID(ctx context.Context, id string) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := r.db.WithContext(ctx).
		Where("swap_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *swapRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("swap_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *swapRequestRepo) Resolve(ctx context.Context, req *model.SwapRequest, status model.SwapStatus, at time.Time) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(&model.SwapRequest{}).
		Where("swap_request_id = ? AND version = ? AND status = ?", req.SwapRequestID, oldVersion, string(model.SwapPending)).
		Updates(map[string]interface{}{
			"status":       string(status),
			"responded_at": at,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Status = status
	req.RespondedAt = &at
	req.Version = oldVersion + 1
	return nil
}

// ── listings ──

const swapRequestRowColumns = `
	sr.swap_request_id, sr.requester_id, sr.receiver_id, sr.my_slot_id, sr.their_slot_id,
	sr.status, sr.responded_at, sr.created_at, sr.updated_at,
	ms.owner_id AS my_slot_owner_id, ms.title AS my_slot_title,
	ms.start_time AS my_slot_start, ms.end_time AS my_slot_end, ms.status AS my_slot_status,
	ts.owner_id AS their_slot_owner_id, ts.title AS their_slot_title,
	ts.start_time AS their_slot_start, ts.end_time AS their_slot_end, ts.status AS their_slot_status,
	u.user_id AS counterpart_id, u.name AS counterpart_name, u.email AS counterpart_email`

// ListIncoming requests addressed to receiverID; counterpart is the requester
func (r *swapRequestRepo) ListIncoming(ctx context.Context, receiverID string) ([]SwapRequestRow, error) {
	return r.list(ctx, "sr.receiver_id = ?", receiverID, "sr.requester_id")
}

// ListOutgoing requests sent by requesterID; counterpart is the receiver
func (r *swapRequestRepo) ListOutgoing(ctx context.Context, requesterID string) ([]SwapRequestRow, error) {
	return r.list(ctx, "sr.requester_id = ?", requesterID, "sr.receiver_id")
}

func (r *swapRequestRepo) list(ctx context.Context, cond string, userID string, counterpartColumn string) ([]SwapRequestRow, error) {
	var rows []SwapRequestRow
	err := r.db.WithContext(ctx).
		Table("swap_requests AS sr").
		Select(swapRequestRowColumns).
		Joins("LEFT JOIN slots AS ms ON ms.slot_id = sr.my_slot_id").
		Joins("LEFT JOIN slots AS ts ON ts.slot_id = sr.their_slot_id").
		Joins("LEFT JOIN users AS u ON u.user_id = "+counterpartColumn).
		Where(cond, userID).
		Order("sr.created_at DESC, sr.swap_request_id DESC").
		Scan(&rows).Error
	return rows, err
}
