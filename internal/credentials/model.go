package credentials

import "time"

// ProviderGmail is the only mail provider currently supported.
const ProviderGmail = "gmail"

// Credential is one user's OAuth grant for a mail provider. There is at
// most one credential per (user, provider).
type Credential struct {
	UserID         string
	Provider       string
	ConnectedEmail string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the access token expiry is strictly before now.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
