package client

import (
	"context"
	"sync"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/logging"
)

// RefreshLead is how long before expiry the access token is renewed.
const RefreshLead = time.Minute

// minRefreshInterval bounds how soon a refresh may follow the previous one when
// the server issues tokens shorter than the lead.
const minRefreshInterval = 5 * time.Second

type TokenManager struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    int64
}

func NewTokenManager() *TokenManager {
	return &TokenManager{}
}

func (tm *TokenManager) AccessToken() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.accessToken
}

func (tm *TokenManager) RefreshToken() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.refreshToken
}

func (tm *TokenManager) ExpiresAt() int64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.expiresAt
}

func (tm *TokenManager) Update(accessToken, refreshToken string, expiresAt int64) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.accessToken = accessToken
	tm.refreshToken = refreshToken
	tm.expiresAt = expiresAt
}

// StartRefresher renews the access token lead before it expires, until ctx is
// done or a refresh fails.
func (tm *TokenManager) StartRefresher(ctx context.Context, lead time.Duration, refresh func(context.Context) error, logger logging.Logger) {
	go func() {
		refreshed := false
		for {
			expiry := time.Unix(tm.ExpiresAt(), 0)
			wait := time.Until(expiry.Add(-lead))
			if refreshed {
				wait = max(wait, minRefreshInterval, time.Until(expiry)/2)
			}

			// already inside the lead window: refresh right away
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}

			if tm.RefreshToken() == "" {
				logger.Warn(ctx, "no refresh token available, stopping refresher")
				return
			}

			logger.Debug(ctx, "refreshing access token")
			if err := refresh(ctx); err != nil {
				if ctx.Err() == nil {
					logger.Error(ctx, "failed to refresh access token", "error", err)
				}
				return
			}
			refreshed = true
		}
	}()
}
