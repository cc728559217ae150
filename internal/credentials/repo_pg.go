package credentials

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert creates or replaces the credential for (user, provider).
// Refresh is a last-writer-wins replace, never an append.
func (r *PGRepo) Upsert(ctx context.Context, cred Credential) error {
	const query = `
INSERT INTO email_credentials (
    user_id,
    provider,
    connected_email,
    access_token,
    refresh_token,
    expires_at,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, provider) DO UPDATE SET
    connected_email = EXCLUDED.connected_email,
    access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	createdAt := cred.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := cred.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		cred.UserID,
		cred.Provider,
		cred.ConnectedEmail,
		cred.AccessToken,
		cred.RefreshToken,
		cred.ExpiresAt,
		createdAt,
		updatedAt,
	)
	return err
}

// Get fetches the credential for (user, provider).
func (r *PGRepo) Get(ctx context.Context, userID, provider string) (Credential, error) {
	const query = `
SELECT user_id, provider, connected_email, access_token, refresh_token, expires_at, created_at, updated_at
FROM email_credentials
WHERE user_id = $1 AND provider = $2`

	var cred Credential
	err := r.DB.QueryRowContext(ctx, query, userID, provider).Scan(
		&cred.UserID,
		&cred.Provider,
		&cred.ConnectedEmail,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.ExpiresAt,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, err
	}
	return cred, nil
}

// Delete removes the credential for (user, provider).
func (r *PGRepo) Delete(ctx context.Context, userID, provider string) error {
	const query = `DELETE FROM email_credentials WHERE user_id = $1 AND provider = $2`
	_, err := r.DB.ExecContext(ctx, query, userID, provider)
	return err
}

var _ Repo = (*PGRepo)(nil)
