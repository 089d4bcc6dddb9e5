package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"swapslot/backend/internal/service"
)

// ExportHandler slot export endpoints
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportXLSX caller's slots as a spreadsheet
// GET /api/events/export.xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportICS caller's slots as an iCalendar feed
// GET /api/events/export.ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportICS(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	attachment(c, filename, contentTypeICS, buf.Bytes())
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}
