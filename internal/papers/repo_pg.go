package papers

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres. The papers table carries a unique
// constraint on (owner_id, content_hash); CreateIfAbsent leans on it for
// the at-most-once-insert guarantee.
type PGRepo struct {
	DB *sql.DB
}

// CreateIfAbsent inserts the paper unless (owner, hash) already exists.
func (r *PGRepo) CreateIfAbsent(ctx context.Context, paper Paper) (Paper, bool, error) {
	const query = `
INSERT INTO papers (
    id,
    owner_id,
    title,
    storage_key,
    pdf_url,
    content_hash,
    shared,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (owner_id, content_hash) DO NOTHING`

	res, err := r.DB.ExecContext(
		ctx,
		query,
		paper.ID,
		paper.OwnerID,
		paper.Title,
		paper.StorageKey,
		paper.PDFURL,
		paper.ContentHash,
		paper.Shared,
		paper.CreatedAt,
	)
	if err != nil {
		return Paper{}, false, err
	}

	inserted, _ := res.RowsAffected()
	if inserted > 0 {
		return paper, true, nil
	}

	// Lost the race or the record predates this call; return the winner.
	existing, err := r.GetByOwnerAndHash(ctx, paper.OwnerID, paper.ContentHash)
	if err != nil {
		return Paper{}, false, err
	}
	return existing, false, nil
}

// GetByOwnerAndHash fetches a paper by its dedup key.
func (r *PGRepo) GetByOwnerAndHash(ctx context.Context, ownerID, contentHash string) (Paper, error) {
	const query = `
SELECT id, owner_id, title, storage_key, pdf_url, content_hash, shared, created_at
FROM papers
WHERE owner_id = $1 AND content_hash = $2`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, ownerID, contentHash))
}

// GetByID fetches a paper by ID.
func (r *PGRepo) GetByID(ctx context.Context, paperID string) (Paper, error) {
	const query = `
SELECT id, owner_id, title, storage_key, pdf_url, content_hash, shared, created_at
FROM papers
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, paperID))
}

// ListByOwner lists papers newest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, owner_id, title, storage_key, pdf_url, content_hash, shared, created_at
FROM papers
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Paper
	for rows.Next() {
		var p Paper
		if err := rows.Scan(
			&p.ID,
			&p.OwnerID,
			&p.Title,
			&p.StorageKey,
			&p.PDFURL,
			&p.ContentHash,
			&p.Shared,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateMeta updates a paper's title and shared flag.
func (r *PGRepo) UpdateMeta(ctx context.Context, paperID, title string, shared bool) error {
	const query = `UPDATE papers SET title = $1, shared = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, title, shared, paperID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a paper record.
func (r *PGRepo) Delete(ctx context.Context, paperID string) error {
	const query = `DELETE FROM papers WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, paperID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStorageKey reports how many records reference a storage key.
func (r *PGRepo) CountByStorageKey(ctx context.Context, storageKey string) (int, error) {
	const query = `SELECT COUNT(*) FROM papers WHERE storage_key = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, storageKey).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Paper, error) {
	var p Paper
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.StorageKey,
		&p.PDFURL,
		&p.ContentHash,
		&p.Shared,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Paper{}, ErrNotFound
		}
		return Paper{}, err
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
