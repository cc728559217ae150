package mailbox

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// ErrAttachmentNotFound means the attachment handle is stale or missing.
var ErrAttachmentNotFound = errors.New("attachment not found")

// ProviderError reports a non-success response from the mail provider API.
// It is never retried at this layer; the ingestion orchestrator decides
// whether it is fatal.
type ProviderError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("mail provider %s: status=%d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func wrapProviderErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &ProviderError{Op: op, StatusCode: gerr.Code, Err: err}
	}
	return &ProviderError{Op: op, Err: err}
}
