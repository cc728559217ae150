package papers

import "context"

// Repo defines persistence operations for papers.
type Repo interface {
	// CreateIfAbsent inserts the paper unless a record already exists for
	// (OwnerID, ContentHash). It returns the canonical record and whether
	// this call created it. The insert is at-most-once under concurrency.
	CreateIfAbsent(ctx context.Context, paper Paper) (Paper, bool, error)
	GetByOwnerAndHash(ctx context.Context, ownerID, contentHash string) (Paper, error)
	GetByID(ctx context.Context, paperID string) (Paper, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error)
	UpdateMeta(ctx context.Context, paperID, title string, shared bool) error
	Delete(ctx context.Context, paperID string) error
	// CountByStorageKey reports how many records reference a storage key;
	// used to decide whether deleting a paper may also remove its object.
	CountByStorageKey(ctx context.Context, storageKey string) (int, error)
}
