package handler

import (
	"github.com/gin-gonic/gin"

	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/service"
	"swapslot/backend/pkg/response"
)

// SwapHandler swap negotiation endpoints
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler creates a SwapHandler
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// CreateSwapRequest offer my_slot_id in exchange for their_slot_id
// POST /api/swap-request
func (h *SwapHandler) CreateSwapRequest(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateSwapRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.swapSvc.CreateSwapRequest(c.Request.Context(), userID, req.MySlotID, req.TheirSlotID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, "swap request created", gin.H{"request": result})
}

// RespondToSwap ACCEPT or REJECT an incoming request
// POST /api/swap-response
func (h *SwapHandler) RespondToSwap(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.RespondSwapRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.swapSvc.RespondToSwap(c.Request.Context(), userID, req.RequestID, req.Action)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "swap request "+string(result.Status), gin.H{"request": result})
}

// Incoming requests addressed to the caller, newest first
// GET /api/swap-requests/incoming
func (h *SwapHandler) Incoming(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	requests, err := h.swapSvc.Incoming(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "incoming swap requests", gin.H{"requests": requests})
}

// Outgoing requests sent by the caller, newest first
// GET /api/swap-requests/outgoing
func (h *SwapHandler) Outgoing(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	requests, err := h.swapSvc.Outgoing(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, "outgoing swap requests", gin.H{"requests": requests})
}
