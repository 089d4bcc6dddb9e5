package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"swapslot/backend/config"
	"swapslot/backend/internal/dto"
	"swapslot/backend/internal/model"
	"swapslot/backend/internal/repository"
	pkgerrors "swapslot/backend/pkg/errors"
	"swapslot/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = pkgerrors.Unauthenticated("invalid email or password")
	ErrUserNotFound       = pkgerrors.NotFound("user not found")
	ErrEmailTaken         = pkgerrors.Validation("the given data was invalid", map[string]string{
		"email": "the email has already been taken",
	})
)

// TokenBlacklist revoked token store, satisfied by *redis.Client
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService in-process identity provider
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Profile(ctx context.Context, userID string) (*dto.UserResponse, error)
	// Logout revokes the token until its expiry. Without a blacklist it is a no-op.
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. email must be unused
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup user by email failed", zap.Error(err))
		return nil, err
	}

	// 2. hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user by email failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *authService) Profile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("blacklist token failed", zap.Error(err))
		return err
	}
	return nil
}

// issue signs an access token for user
func (s *authService) issue(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.jwtMgr.GenerateAccessToken(user.UserID)
	if err != nil {
		s.logger.Error("generate access token failed", zap.Error(err))
		return nil, err
	}
	return &dto.AuthResponse{
		User:      toUserResponse(user),
		Token:     token.Token,
		TokenType: "Bearer",
		ExpiresIn: int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: formatTime(user.CreatedAt),
	}
}
