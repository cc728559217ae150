package papers

import "errors"

var (
	ErrNotFound           = errors.New("paper not found")
	ErrForbidden          = errors.New("paper not owned by user")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotPDF             = errors.New("file is not a valid PDF")
	ErrStorageUnavailable = errors.New("object storage unavailable")
)
