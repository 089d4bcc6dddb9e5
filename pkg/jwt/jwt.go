package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"swapslot/backend/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const tokenTypeAccess = "access"

// Claims custom JWT claims; the subject is the stable user identifier
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// IssuedToken signed token plus the metadata needed to revoke it
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Manager issues and verifies access tokens
type Manager struct {
	secret         []byte
	issuer         string
	accessTokenTTL time.Duration
	now            func() time.Time
}

// NewManager creates a Manager from auth config
func NewManager(cfg *config.AuthConfig) *Manager {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "swapslot"
	}
	return &Manager{
		secret:         []byte(cfg.JWTSecret),
		issuer:         issuer,
		accessTokenTTL: cfg.AccessTokenTTL,
		now:            time.Now,
	}
}

// AccessTokenTTL lifetime of newly issued access tokens
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// GenerateAccessToken signs an access token for userID
func (m *Manager) GenerateAccessToken(userID string) (*IssuedToken, error) {
	now := m.now()
	exp := now.Add(m.accessTokenTTL)
	jti := uuid.New().String()

	claims := Claims{
		UserID:    userID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			Issuer:    m.issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, JTI: jti, ExpiresAt: exp}, nil
}

// ParseToken verifies signature, expiry, issuer and token type
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(m.issuer), jwtv5.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != tokenTypeAccess || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
