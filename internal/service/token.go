package service

import (
	"context"
	"fmt"

	"github.com/Wh1teCaat/fitness-companion/internal/auth"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// IssueTokens is Login for API clients: it counts towards the streak and
// replaces the stored refresh token.
func (s *Service) IssueTokens(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to update refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresAt: expiresAt}, nil
}

func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, auth.RefreshToken)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// only the most recently issued refresh token is honoured
	if err := s.repo.VerifyRefreshToken(ctx, claims.UserID, refreshToken); err != nil {
		return "", 0, ErrInvalidToken
	}

	return s.tokens.GenerateAccessToken(claims.UserID, claims.Username)
}

// Authenticate resolves a bearer access token to a user id.
func (s *Service) Authenticate(accessToken string) (uint, error) {
	claims, err := s.tokens.ValidateToken(accessToken, auth.AccessToken)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.UserID, nil
}
