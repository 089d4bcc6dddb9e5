package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"swapslot/backend/config"
	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/model"
	"swapslot/backend/internal/repository"
	pkgerrors "swapslot/backend/pkg/errors"
)

// ── Slot store errors ──

var (
	ErrSlotNotFound = pkgerrors.NotFound("slot not found")
	ErrSlotPending  = pkgerrors.Conflict("slot is part of a pending swap")
	// ErrSlotStatusNotSettable owners may only choose BUSY or SWAPPABLE
	ErrSlotStatusNotSettable = pkgerrors.Validation("the given data was invalid", map[string]string{
		"status": "status must be BUSY or SWAPPABLE",
	})
	ErrCalendarInvalid = pkgerrors.Validation("the given data was invalid", map[string]string{
		"calendar": "body is not a valid iCalendar document",
	})
)

// SlotService slot store: owner-facing slot lifecycle.
// SWAP_PENDING is never entered or left here, only by SwapService.
type SlotService interface {
	Create(ctx context.Context, ownerID string, req *dto.CreateSlotRequest) (*dto.SlotResponse, error)
	ListOwned(ctx context.Context, ownerID string) ([]dto.SlotResponse, error)
	// ListSwappable SWAPPABLE slots of everyone except callerID
	ListSwappable(ctx context.Context, callerID string) ([]dto.SlotResponse, error)
	ListMineSwappable(ctx context.Context, ownerID string) ([]dto.SlotResponse, error)
	SetStatus(ctx context.Context, callerID, slotID string, status model.SlotStatus) (*dto.SlotResponse, error)
	Delete(ctx context.Context, callerID, slotID string) error
	// Import turns each VEVENT of an iCalendar body into a BUSY slot
	Import(ctx context.Context, ownerID string, body io.Reader) (*dto.ImportSlotsResponse, error)
}

type slotService struct {
	cfg    *config.SlotConfig
	repo   *repository.Repository
	policy AccessPolicy
	logger *zap.Logger
	now    func() time.Time
}

// NewSlotService creates a SlotService
func NewSlotService(cfg *config.SlotConfig, repo *repository.Repository, policy AccessPolicy, logger *zap.Logger) SlotService {
	return &slotService{
		cfg:    cfg,
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// slotInput normalized create input
type slotInput struct {
	Title  string
	Start  time.Time
	End    time.Time
	Status model.SlotStatus
}

// validate trims the title, defaults the status to BUSY and collects every
// field violation into one validation error.
func (s *slotService) validate(in *slotInput) error {
	fields := make(map[string]string)

	in.Title = strings.TrimSpace(in.Title)
	switch n := utf8.RuneCountInString(in.Title); {
	case n == 0:
		fields["title"] = "title is required"
	case n > s.cfg.TitleMaxLength:
		fields["title"] = fmt.Sprintf("title may not be greater than %d characters", s.cfg.TitleMaxLength)
	}

	if in.Start.IsZero() {
		fields["start_time"] = "start_time is required"
	} else if s.startsInPast(in.Start) {
		fields["start_time"] = "start_time may not be in the past"
	}

	if in.End.IsZero() {
		fields["end_time"] = "end_time is required"
	} else if !in.Start.IsZero() && !in.End.After(in.Start) {
		fields["end_time"] = "end_time must be after start_time"
	}

	if in.Status == "" {
		in.Status = model.SlotBusy
	} else if !in.Status.OwnerSettable() {
		fields["status"] = "status must be BUSY or SWAPPABLE"
	}

	if len(fields) > 0 {
		return pkgerrors.Validation("the given data was invalid", fields)
	}
	return nil
}

// startsInPast compares calendar dates in the configured timezone
func (s *slotService) startsInPast(start time.Time) bool {
	loc := s.cfg.Location()
	y, m, d := start.In(loc).Date()
	startDay := time.Date(y, m, d, 0, 0, 0, 0, loc)
	y, m, d = s.now().In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return startDay.Before(today)
}

func (s *slotService) Create(ctx context.Context, ownerID string, req *dto.CreateSlotRequest) (*dto.SlotResponse, error) {
	in := slotInput{
		Title:  req.Title,
		Start:  req.StartTime,
		End:    req.EndTime,
		Status: model.SlotStatus(req.Status),
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	slot := newSlot(ownerID, &in)
	if err := s.repo.Slot.Create(ctx, slot); err != nil {
		s.logger.Error("create slot failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return toSlotResponse(slot), nil
}

func (s *slotService) ListOwned(ctx context.Context, ownerID string) ([]dto.SlotResponse, error) {
	slots, err := s.repo.Slot.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("list owned slots failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return toSlotResponses(slots), nil
}

func (s *slotService) ListSwappable(ctx context.Context, callerID string) ([]dto.SlotResponse, error) {
	slots, err := s.repo.Slot.ListSwappable(ctx, callerID)
	if err != nil {
		s.logger.Error("list swappable slots failed", zap.Error(err))
		return nil, err
	}
	return toSlotResponses(slots), nil
}

func (s *slotService) ListMineSwappable(ctx context.Context, ownerID string) ([]dto.SlotResponse, error) {
	slots, err := s.repo.Slot.ListSwappableByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("list own swappable slots failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return toSlotResponses(slots), nil
}

func (s *slotService) SetStatus(ctx context.Context, callerID, slotID string, status model.SlotStatus) (*dto.SlotResponse, error) {
	if !status.OwnerSettable() {
		return nil, ErrSlotStatusNotSettable
	}

	var updated *model.Slot
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		slot, err := tx.Slot.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if err := s.policy.AssertOwns(callerID, slot); err != nil {
			return err
		}
		if slot.Status == model.SlotSwapPending {
			return ErrSlotPending
		}
		updated = slot
		if slot.Status == status {
			return nil
		}
		slot.Status = status
		return tx.Slot.Update(ctx, slot)
	})
	if err != nil {
		logUnexpected(s.logger, "set slot status failed", err, zap.String("slot_id", slotID))
		return nil, err
	}
	return toSlotResponse(updated), nil
}

func (s *slotService) Delete(ctx context.Context, callerID, slotID string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		slot, err := tx.Slot.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if err := s.policy.AssertOwns(callerID, slot); err != nil {
			return err
		}
		if slot.Status == model.SlotSwapPending {
			return ErrSlotPending
		}
		return tx.Slot.Delete(ctx, slotID)
	})
	if err != nil {
		logUnexpected(s.logger, "delete slot failed", err, zap.String("slot_id", slotID))
		return err
	}
	return nil
}

func (s *slotService) Import(ctx context.Context, ownerID string, body io.Reader) (*dto.ImportSlotsResponse, error) {
	events, err := parseCalendarEvents(body, s.cfg.Location())
	if err != nil {
		return nil, pkgerrors.Wrap(ErrCalendarInvalid, err)
	}

	resp := &dto.ImportSlotsResponse{
		Events:  []dto.SlotResponse{},
		Skipped: []dto.ImportSkipped{},
	}
	var slots []*model.Slot
	for _, evt := range events {
		if evt.Err != nil {
			resp.Skipped = append(resp.Skipped, dto.ImportSkipped{UID: evt.UID, Reason: evt.Err.Error()})
			continue
		}
		in := slotInput{Title: evt.Summary, Start: evt.Start, End: evt.End, Status: model.SlotBusy}
		if err := s.validate(&in); err != nil {
			skipped := dto.ImportSkipped{UID: evt.UID, Reason: err.Error()}
			var bizErr *pkgerrors.Error
			if errors.As(err, &bizErr) {
				skipped.Reason = bizErr.Message
				skipped.Fields = bizErr.Fields
			}
			resp.Skipped = append(resp.Skipped, skipped)
			continue
		}
		slots = append(slots, newSlot(ownerID, &in))
	}

	if len(slots) > 0 {
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for _, slot := range slots {
				if err := tx.Slot.Create(ctx, slot); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("import slots failed", zap.String("owner_id", ownerID), zap.Int("count", len(slots)), zap.Error(err))
			return nil, err
		}
	}

	for _, slot := range slots {
		resp.Events = append(resp.Events, *toSlotResponse(slot))
	}
	s.logger.Info("calendar imported",
		zap.String("owner_id", ownerID),
		zap.Int("created", len(resp.Events)),
		zap.Int("skipped", len(resp.Skipped)),
	)
	return resp, nil
}

// ── helpers ──

func newSlot(ownerID string, in *slotInput) *model.Slot {
	return &model.Slot{
		OwnerID:   ownerID,
		Title:     in.Title,
		StartTime: in.Start.UTC(),
		EndTime:   in.End.UTC(),
		Status:    in.Status,
	}
}

func toSlotResponse(slot *model.Slot) *dto.SlotResponse {
	return &dto.SlotResponse{
		ID:        slot.SlotID,
		OwnerID:   slot.OwnerID,
		Title:     slot.Title,
		StartTime: formatTime(slot.StartTime),
		EndTime:   formatTime(slot.EndTime),
		Status:    string(slot.Status),
		CreatedAt: formatTime(slot.CreatedAt),
	}
}

func toSlotResponses(slots []model.Slot) []dto.SlotResponse {
	result := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, *toSlotResponse(&slots[i]))
	}
	return result
}
