package handler

import "swapslot/backend/internal/service"

// Handler aggregate entry point of every handler
type Handler struct {
	Auth   *AuthHandler
	Slot   *SlotHandler
	Swap   *SwapHandler
	Export *ExportHandler
	Health *HealthHandler
}

// NewHandler builds the handler aggregate. db and cache may be nil.
func NewHandler(svc *service.Service, db Pinger, cache CachePinger) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		Slot:   NewSlotHandler(svc.Slot),
		Swap:   NewSwapHandler(svc.Swap),
		Export: NewExportHandler(svc.Export),
		Health: NewHealthHandler(db, cache),
	}
}
