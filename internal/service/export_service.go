package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"swapslot/backend/internal/model"
	"swapslot/backend/internal/repository"
)

// ── Export errors ──

var ErrExportGenerateFail = errors.New("generate export file failed")

const (
	exportSheetName = "Slots"
	exportProductID = "-//swapslot//slots export//EN"
)

// ExportService exports a user's slots.
// Files are returned as a buffer plus a suggested filename; the handler sets headers.
type ExportService interface {
	// ExportXLSX spreadsheet with one row per slot
	ExportXLSX(ctx context.Context, ownerID string) (*bytes.Buffer, string, error)
	// ExportICS iCalendar feed; BUSY slots are CONFIRMED, the rest TENTATIVE
	ExportICS(ctx context.Context, ownerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ownedSlots(ctx context.Context, ownerID string) ([]model.Slot, error) {
	slots, err := s.repo.Slot.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("list slots for export failed", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	return slots, nil
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - row 1: header (Title, Start, End, Status)
//   - one row per slot ordered by start time, times in RFC 3339 UTC

func (s *exportService) ExportXLSX(ctx context.Context, ownerID string) (*bytes.Buffer, string, error) {
	slots, err := s.ownedSlots(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheetName)
	if err != nil {
		s.logger.Error("create sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(exportSheetName, "A", "A", 36)
	f.SetColWidth(exportSheetName, "B", "C", 24)
	f.SetColWidth(exportSheetName, "D", "D", 16)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	header := []interface{}{"Title", "Start", "End", "Status"}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		s.logger.Error("write header failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetCellStyle(exportSheetName, "A1", "D1", headerStyle)

	for i := range slots {
		slot := &slots[i]
		row := []interface{}{slot.Title, formatTime(slot.StartTime), formatTime(slot.EndTime), string(slot.Status)}
		if err := f.SetSheetRow(exportSheetName, fmt.Sprintf("A%d", i+2), &row); err != nil {
			s.logger.Error("write row failed", zap.Int("row", i+2), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, "slots.xlsx", nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, ownerID string) (*bytes.Buffer, string, error) {
	slots, err := s.ownedSlots(ctx, ownerID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(exportProductID)

	for i := range slots {
		slot := &slots[i]
		event := cal.AddEvent(slot.SlotID)
		event.SetDtStampTime(slot.UpdatedAt.UTC())
		event.SetCreatedTime(slot.CreatedAt.UTC())
		event.SetStartAt(slot.StartTime.UTC())
		event.SetEndAt(slot.EndTime.UTC())
		event.SetSummary(slot.Title)
		event.SetStatus(icsStatus(slot.Status))
	}

	buf := new(bytes.Buffer)
	buf.WriteString(cal.Serialize())
	return buf, "slots.ics", nil
}

func icsStatus(status model.SlotStatus) ics.ObjectStatus {
	if status == model.SlotBusy {
		return ics.ObjectStatusConfirmed
	}
	return ics.ObjectStatusTentative
}
