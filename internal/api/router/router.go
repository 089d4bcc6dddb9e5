package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"swapslot/backend/config"
	"swapslot/backend/internal/api/handler"
	"swapslot/backend/internal/api/middleware"
	"swapslot/backend/pkg/jwt"
	"swapslot/backend/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil when Redis is disabled.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	{
		// identity (public)
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)

		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.GET("/profile", h.Auth.Profile)
			authorized.POST("/logout", h.Auth.Logout)

			// slots
			authorized.POST("/events", h.Slot.CreateSlot)
			authorized.GET("/events", h.Slot.ListSlots)
			authorized.GET("/events/export.xlsx", h.Export.ExportXLSX)
			authorized.GET("/events/export.ics", h.Export.ExportICS)
			authorized.POST("/events/import", h.Slot.ImportSlots)
			authorized.PATCH("/events/:id", h.Slot.UpdateSlotStatus)
			authorized.DELETE("/events/:id", h.Slot.DeleteSlot)
			authorized.POST("/insert-events", h.Slot.CreateSlot)
			authorized.GET("/user-events", h.Slot.ListSlots)
			authorized.GET("/swappable-slots", h.Slot.ListSwappable)
			authorized.GET("/user/swappable-slots", h.Slot.ListMineSwappable)

			// swap negotiation
			authorized.POST("/swap-request", h.Swap.CreateSwapRequest)
			authorized.POST("/swap-response", h.Swap.RespondToSwap)
			authorized.GET("/swap-requests/incoming", h.Swap.Incoming)
			authorized.GET("/swap-requests/outgoing", h.Swap.Outgoing)
		}
	}

	return r
}
