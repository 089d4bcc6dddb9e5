package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/model"
	"swapslot/backend/internal/service"
	"swapslot/backend/pkg/response"
)

// SlotHandler slot ("event") endpoints
type SlotHandler struct {
	slotSvc service.SlotService
}

// NewSlotHandler creates a SlotHandler
func NewSlotHandler(slotSvc service.SlotService) *SlotHandler {
	return &SlotHandler{slotSvc: slotSvc}
}

// CreateSlot
// POST /api/events (alias POST /api/insert-events)
func (h *SlotHandler) CreateSlot(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.slotSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, "event created", gin.H{"event": slot})
}

// ListSlots caller's slots by start time
// GET /api/events (alias GET /api/user-events)
func (h *SlotHandler) ListSlots(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slots, err := h.slotSvc.ListOwned(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "events", gin.H{"events": slots})
}

// UpdateSlotStatus toggle BUSY / SWAPPABLE
// PATCH /api/events/:id
func (h *SlotHandler) UpdateSlotStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	slotID, ok := slotIDParam(c)
	if !ok {
		return
	}
	var req dto.UpdateSlotStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.slotSvc.SetStatus(c.Request.Context(), userID, slotID, model.SlotStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "event updated", gin.H{"event": slot})
}

// DeleteSlot
// DELETE /api/events/:id
func (h *SlotHandler) DeleteSlot(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	slotID, ok := slotIDParam(c)
	if !ok {
		return
	}

	if err := h.slotSvc.Delete(c.Request.Context(), userID, slotID); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "event deleted", nil)
}

// ListSwappable other users' SWAPPABLE slots
// GET /api/swappable-slots
func (h *SlotHandler) ListSwappable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slots, err := h.slotSvc.ListSwappable(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "swappable slots", gin.H{"slots": slots})
}

// ListMineSwappable caller's SWAPPABLE slots
// GET /api/user/swappable-slots
func (h *SlotHandler) ListMineSwappable(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	slots, err := h.slotSvc.ListMineSwappable(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "swappable slots", gin.H{"slots": slots})
}

// ImportSlots create BUSY slots from a text/calendar body
// POST /api/events/import
func (h *SlotHandler) ImportSlots(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return
		}
		handleError(c, err)
		return
	}

	result, err := h.slotSvc.Import(c.Request.Context(), userID, bytes.NewReader(body))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, "calendar imported", result)
}

// slotIDParam non-UUID ids cannot name a slot
func slotIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		handleError(c, service.ErrSlotNotFound)
		return "", false
	}
	return id, true
}
