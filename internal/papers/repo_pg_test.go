package papers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func paperFixture() Paper {
	return Paper{
		ID:          "p1",
		OwnerID:     "u1",
		Title:       "attention.pdf",
		StorageKey:  "papers/abc123/attention.pdf",
		PDFURL:      "https://bucket.s3.amazonaws.com/papers/abc123/attention.pdf",
		ContentHash: "abc123",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPGRepoCreateIfAbsentInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	paper := paperFixture()

	mock.ExpectExec("INSERT INTO papers").
		WithArgs(
			paper.ID,
			paper.OwnerID,
			paper.Title,
			paper.StorageKey,
			paper.PDFURL,
			paper.ContentHash,
			paper.Shared,
			paper.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, created, err := repo.CreateIfAbsent(context.Background(), paper)
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on fresh insert")
	}
	if got.ID != paper.ID {
		t.Fatalf("expected paper %s, got %s", paper.ID, got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateIfAbsentConflictReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	paper := paperFixture()
	existing := paperFixture()
	existing.ID = "p0"

	mock.ExpectExec("INSERT INTO papers").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs(paper.OwnerID, paper.ContentHash).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "title", "storage_key", "pdf_url",
			"content_hash", "shared", "created_at",
		}).AddRow(
			existing.ID, existing.OwnerID, existing.Title, existing.StorageKey,
			existing.PDFURL, existing.ContentHash, existing.Shared, existing.CreatedAt,
		))

	got, created, err := repo.CreateIfAbsent(context.Background(), paper)
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if created {
		t.Fatal("expected created=false on conflict")
	}
	if got.ID != existing.ID {
		t.Fatalf("expected existing paper %s, got %s", existing.ID, got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT id, owner_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "title", "storage_key", "pdf_url",
			"content_hash", "shared", "created_at",
		}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM papers").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
