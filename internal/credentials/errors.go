package credentials

import "errors"

var (
	// ErrNotFound means no credential record exists for the key.
	ErrNotFound = errors.New("credential not found")
	// ErrNotConnected means the user has not connected a mailbox.
	ErrNotConnected = errors.New("email account not connected")
	// ErrAuthenticationFailed means the provider rejected a token refresh.
	ErrAuthenticationFailed = errors.New("email authentication failed")
)
