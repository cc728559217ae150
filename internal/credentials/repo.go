package credentials

import "context"

// Repo defines persistence operations for OAuth credentials.
type Repo interface {
	// Upsert creates or replaces the credential for (UserID, Provider).
	Upsert(ctx context.Context, cred Credential) error
	Get(ctx context.Context, userID, provider string) (Credential, error)
	Delete(ctx context.Context, userID, provider string) error
}
