package papers

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Paper
	byHash map[string]string // ownerID|hash -> paperID
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Paper),
		byHash: make(map[string]string),
	}
}

func hashKey(ownerID, contentHash string) string {
	return ownerID + "|" + contentHash
}

// CreateIfAbsent inserts the paper unless (owner, hash) already exists.
func (r *MemoryRepo) CreateIfAbsent(ctx context.Context, paper Paper) (Paper, bool, error) {
	if err := ctx.Err(); err != nil {
		return Paper{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := hashKey(paper.OwnerID, paper.ContentHash)
	if existingID, ok := r.byHash[key]; ok {
		return r.byID[existingID], false, nil
	}
	r.byID[paper.ID] = paper
	r.byHash[key] = paper.ID
	return paper, true, nil
}

// GetByOwnerAndHash fetches a paper by its dedup key.
func (r *MemoryRepo) GetByOwnerAndHash(ctx context.Context, ownerID, contentHash string) (Paper, error) {
	if err := ctx.Err(); err != nil {
		return Paper{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byHash[hashKey(ownerID, contentHash)]
	if !ok {
		return Paper{}, ErrNotFound
	}
	return r.byID[id], nil
}

// GetByID fetches a paper by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, paperID string) (Paper, error) {
	if err := ctx.Err(); err != nil {
		return Paper{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	paper, ok := r.byID[paperID]
	if !ok {
		return Paper{}, ErrNotFound
	}
	return paper, nil
}

// ListByOwner lists papers newest-first, honoring limit/offset.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	var owned []Paper
	for _, paper := range r.byID {
		if paper.OwnerID == ownerID {
			owned = append(owned, paper)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	if offset >= len(owned) {
		return []Paper{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

// UpdateMeta updates a paper's title and shared flag.
func (r *MemoryRepo) UpdateMeta(ctx context.Context, paperID, title string, shared bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.byID[paperID]
	if !ok {
		return ErrNotFound
	}
	paper.Title = title
	paper.Shared = shared
	r.byID[paperID] = paper
	return nil
}

// Delete removes a paper record.
func (r *MemoryRepo) Delete(ctx context.Context, paperID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.byID[paperID]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, paperID)
	delete(r.byHash, hashKey(paper.OwnerID, paper.ContentHash))
	return nil
}

// CountByStorageKey reports how many records reference a storage key.
func (r *MemoryRepo) CountByStorageKey(ctx context.Context, storageKey string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, paper := range r.byID {
		if paper.StorageKey == storageKey {
			count++
		}
	}
	return count, nil
}

var _ Repo = (*MemoryRepo)(nil)
