package papers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"research-backend/internal/shared/storage/object"
	"research-backend/internal/shared/telemetry"
	"research-backend/internal/shared/util"
)

const mimePDF = "application/pdf"

// Service contains business logic for papers, including the
// content-addressed store-if-absent path used by ingestion.
type Service struct {
	Repo         Repo
	Store        object.ObjectStore
	SignedURLTTL time.Duration

	keys keyedMutex
}

// StoreIfAbsent persists content at most once per owner. Identical bytes
// from the same owner resolve to the already-stored paper with no second
// upload; different owners get independent records.
func (s *Service) StoreIfAbsent(ctx context.Context, ownerID string, data []byte, filename string) (Paper, bool, error) {
	if ownerID == "" || len(data) == 0 || filename == "" {
		return Paper{}, false, ErrInvalidInput
	}
	name, err := util.SanitizeFileName(filename)
	if err != nil {
		return Paper{}, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	contentHash := util.HashBytes(data)

	// Serialize check-then-create per (owner, hash) so concurrent copies
	// of the same content upload once.
	unlock := s.keys.lock(ownerID + "|" + contentHash)
	defer unlock()

	existing, err := s.Repo.GetByOwnerAndHash(ctx, ownerID, contentHash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Paper{}, false, err
	}

	storageKey := path.Join("papers", contentHash, name)
	if _, err := s.Store.Put(ctx, storageKey, mimePDF, bytes.NewReader(data)); err != nil {
		return Paper{}, false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	paper := Paper{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       filename,
		StorageKey:  storageKey,
		PDFURL:      s.Store.URL(storageKey),
		ContentHash: contentHash,
		CreatedAt:   time.Now().UTC(),
	}

	stored, created, err := s.Repo.CreateIfAbsent(ctx, paper)
	if err != nil {
		return Paper{}, false, err
	}
	return stored, created, nil
}

// Upload validates and stores a user-provided PDF through the same
// content-addressed path ingestion uses.
func (s *Service) Upload(ctx context.Context, ownerID string, filename string, data []byte) (Paper, bool, error) {
	if err := validatePDF(data); err != nil {
		return Paper{}, false, err
	}
	return s.StoreIfAbsent(ctx, ownerID, data, filename)
}

// Get returns a paper if the requester owns it or it is shared, along
// with a time-limited signed download URL.
func (s *Service) Get(ctx context.Context, requesterID, paperID string) (Paper, string, error) {
	paper, err := s.Repo.GetByID(ctx, paperID)
	if err != nil {
		return Paper{}, "", err
	}
	if paper.OwnerID != requesterID && !paper.Shared {
		return Paper{}, "", ErrForbidden
	}

	url, err := s.Store.SignedURL(ctx, paper.StorageKey, s.SignedURLTTL)
	if err != nil {
		return Paper{}, "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return paper, url, nil
}

// List returns the requester's papers, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// UpdateMeta updates title and shared flag; only the owner may update.
func (s *Service) UpdateMeta(ctx context.Context, requesterID, paperID string, title *string, shared *bool) (Paper, error) {
	paper, err := s.Repo.GetByID(ctx, paperID)
	if err != nil {
		return Paper{}, err
	}
	if paper.OwnerID != requesterID {
		return Paper{}, ErrForbidden
	}

	if title != nil && *title != "" {
		paper.Title = *title
	}
	if shared != nil {
		paper.Shared = *shared
	}
	if err := s.Repo.UpdateMeta(ctx, paper.ID, paper.Title, paper.Shared); err != nil {
		return Paper{}, err
	}
	return paper, nil
}

// Delete removes a paper; only the owner may delete. The stored object is
// removed once no remaining record references its key.
func (s *Service) Delete(ctx context.Context, requesterID, paperID string) error {
	paper, err := s.Repo.GetByID(ctx, paperID)
	if err != nil {
		return err
	}
	if paper.OwnerID != requesterID {
		return ErrForbidden
	}

	if err := s.Repo.Delete(ctx, paper.ID); err != nil {
		return err
	}

	remaining, err := s.Repo.CountByStorageKey(ctx, paper.StorageKey)
	if err != nil {
		telemetry.Error("papers.count_refs_failed", map[string]any{
			"paper_id": paper.ID,
			"err":      err.Error(),
		})
		return nil
	}
	if remaining > 0 {
		return nil
	}
	if err := s.Store.Delete(ctx, paper.StorageKey); err != nil {
		telemetry.Error("papers.object_delete_failed", map[string]any{
			"paper_id":    paper.ID,
			"storage_key": paper.StorageKey,
			"err":         err.Error(),
		})
	}
	return nil
}

func validatePDF(data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInput
	}
	if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return nil
}

// keyedMutex hands out one mutex per key for the key's lifetime.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l := k.locks[key]
	if l == nil {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
