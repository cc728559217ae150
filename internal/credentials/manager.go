package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"research-backend/internal/shared/telemetry"
)

// Manager resolves a usable credential for a user, refreshing expired
// access tokens against the provider's token endpoint.
type Manager struct {
	Repo  Repo
	OAuth *oauth2.Config

	// now is overridable in tests.
	now func() time.Time
}

// NewManager constructs a Manager.
func NewManager(repo Repo, oauthCfg *oauth2.Config) *Manager {
	return &Manager{Repo: repo, OAuth: oauthCfg, now: time.Now}
}

// Resolve returns a valid, non-expired credential for the user.
//
// A missing record yields ErrNotConnected. An expired access token is
// refreshed and persisted before the credential is returned, so a crash
// between refresh and use never loses the refresh. A rejected refresh
// yields ErrAuthenticationFailed and leaves the stored record untouched.
func (m *Manager) Resolve(ctx context.Context, userID string) (Credential, error) {
	if userID == "" {
		return Credential{}, errors.New("user id required")
	}

	cred, err := m.Repo.Get(ctx, userID, ProviderGmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Credential{}, ErrNotConnected
		}
		return Credential{}, err
	}

	now := m.now()
	if !cred.Expired(now) {
		return cred, nil
	}

	token, err := m.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		telemetry.Error("credentials.refresh_failed", map[string]any{
			"user_id": userID,
			"err":     err.Error(),
		})
		return Credential{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	cred.AccessToken = token.AccessToken
	cred.ExpiresAt = token.Expiry.UTC()
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	cred.UpdatedAt = now.UTC()

	if err := m.Repo.Upsert(ctx, cred); err != nil {
		return Credential{}, fmt.Errorf("persist refreshed credential: %w", err)
	}

	telemetry.Info("credentials.refreshed", map[string]any{
		"user_id":    userID,
		"expires_at": cred.ExpiresAt.Format(time.RFC3339),
	})
	return cred, nil
}
