package papers

import "time"

// Paper is a stored research paper owned by a user. ContentHash is unique
// per owner; identical bytes from the same owner always resolve to one
// record. The ingestion path never mutates a Paper after creation.
type Paper struct {
	ID          string
	OwnerID     string
	Title       string
	StorageKey  string
	PDFURL      string
	ContentHash string
	Shared      bool
	CreatedAt   time.Time
}
