package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

// Claims carried by both token kinds; Type tells them apart.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(cfg config.Jwt) (*TokenManager, error) {
	if cfg.HS256_SECRET == "" {
		return nil, fmt.Errorf("hs256 secret is empty")
	}
	return &TokenManager{
		secret:     []byte(cfg.HS256_SECRET),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// GenerateAccessToken returns the token and its absolute expiry as a unix timestamp.
func (m *TokenManager) GenerateAccessToken(userID uint, username string) (string, int64, error) {
	c := m.newClaims(userID, username, AccessToken, m.accessTTL)

	token, err := m.sign(c)
	if err != nil {
		return "", 0, err
	}
	return token, c.ExpiresAt.Time.Unix(), nil
}

func (m *TokenManager) GenerateRefreshToken(userID uint, username string) (string, error) {
	return m.sign(m.newClaims(userID, username, RefreshToken, m.refreshTTL))
}

func (m *TokenManager) newClaims(userID uint, username, typ string, ttl time.Duration) *Claims {
	now := m.now()
	return &Claims{
		UserID:   userID,
		Username: username,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (m *TokenManager) sign(c *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// ValidateToken checks signature, expiry and that the token is of the wanted type.
func (m *TokenManager) ValidateToken(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method == jwt.SigningMethodHS256 {
			return m.secret, nil
		}
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token has expired: %w", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.Type, wantType)
	}

	return claims, nil
}
