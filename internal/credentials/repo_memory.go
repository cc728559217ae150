package credentials

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Credential // userID|provider -> credential
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Credential)}
}

func memKey(userID, provider string) string {
	return userID + "|" + provider
}

// Upsert creates or replaces the credential for (user, provider).
func (r *MemoryRepo) Upsert(ctx context.Context, cred Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[memKey(cred.UserID, cred.Provider)]; ok {
		cred.CreatedAt = existing.CreatedAt
	}
	r.data[memKey(cred.UserID, cred.Provider)] = cred
	return nil
}

// Get fetches the credential for (user, provider).
func (r *MemoryRepo) Get(ctx context.Context, userID, provider string) (Credential, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.data[memKey(userID, provider)]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

// Delete removes the credential for (user, provider).
func (r *MemoryRepo) Delete(ctx context.Context, userID, provider string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, memKey(userID, provider))
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
