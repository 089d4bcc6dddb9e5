package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"swapslot/backend/config"
	"swapslot/backend/internal/repository"
	pkgerrors "swapslot/backend/pkg/errors"
	"swapslot/backend/pkg/jwt"
	"swapslot/backend/pkg/redis"
)

// Service aggregate entry point of every service
type Service struct {
	Auth   AuthService
	Slot   SlotService
	Swap   SwapService
	Export ExportService
}

// NewService builds the service aggregate. rdb may be nil when Redis is disabled.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}
	policy := NewAccessPolicy()
	return &Service{
		Auth:   NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Slot:   NewSlotService(&cfg.Slot, repo, policy, logger),
		Swap:   NewSwapService(repo, policy, logger),
		Export: NewExportService(repo, logger),
	}
}

// logUnexpected logs err unless it is a business error meant for the caller
func logUnexpected(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	var bizErr *pkgerrors.Error
	if errors.As(err, &bizErr) {
		return
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
}

// formatTime renders timestamps in responses
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
