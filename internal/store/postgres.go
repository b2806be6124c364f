package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "resumatcher/internal/errors"
	"resumatcher/internal/types"
)

// PostgresStore is the pgx-backed EntityStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and verifies it with a ping.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to connect to database", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to ping database", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) SaveSource(ctx context.Context, doc *types.SourceDocument) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO source_documents (id, kind, content, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET content = $3`,
		doc.ID, doc.Kind, doc.Content, doc.CreatedAt,
	)
	if err != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to save source document", err).WithContext("id", doc.ID)
	}
	return nil
}

func (s *PostgresStore) GetSource(ctx context.Context, kind types.EntityKind, id string) (*types.SourceDocument, error) {
	var doc types.SourceDocument
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, content, created_at
		 FROM source_documents WHERE id = $1 AND kind = $2`,
		id, kind,
	).Scan(&doc.ID, &doc.Kind, &doc.Content, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to get source document", err).WithContext("id", id)
	}
	return &doc, nil
}

func (s *PostgresStore) SaveProcessed(ctx context.Context, doc *types.ProcessedDocument) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_documents (id, source_id, kind, status, keywords, processing_error, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (source_id) DO UPDATE
		 SET status = $4, keywords = $5, processing_error = $6, updated_at = $7`,
		doc.ID, doc.SourceID, doc.Kind, doc.Status, []byte(doc.Keywords), doc.ProcessingError, doc.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to save processed document", err).WithContext("source_id", doc.SourceID)
	}
	return nil
}

func (s *PostgresStore) GetProcessed(ctx context.Context, kind types.EntityKind, sourceID string) (*types.ProcessedDocument, error) {
	var doc types.ProcessedDocument
	var keywords []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, source_id, kind, status, COALESCE(keywords, ''), COALESCE(processing_error, ''), updated_at
		 FROM processed_documents WHERE source_id = $1 AND kind = $2`,
		sourceID, kind,
	).Scan(&doc.ID, &doc.SourceID, &doc.Kind, &doc.Status, &keywords, &doc.ProcessingError, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to get processed document", err).WithContext("source_id", sourceID)
	}
	doc.Keywords = keywords
	return &doc, nil
}

// AdvisoryLocker serializes runs on the same pair with Postgres
// session-level advisory locks. The lock key is a hash of both ids, so
// two processes sharing the database contend on the same key.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// NewAdvisoryLockerFromStore reuses the store's pool.
func NewAdvisoryLockerFromStore(s *PostgresStore) *AdvisoryLocker {
	return &AdvisoryLocker{pool: s.pool}
}

func pairLockKey(resumeID, jobID string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s/%s", resumeID, jobID)
	return int64(h.Sum64())
}

// Acquire tries pg_try_advisory_lock; a held lock fails fast with
// IMPROVEMENT_LOCKED rather than queueing the run.
func (l *AdvisoryLocker) Acquire(ctx context.Context, resumeID, jobID string) (func(), error) {
	key := pairLockKey(resumeID, jobID)

	// A dedicated connection holds the session lock until release.
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"failed to acquire lock connection", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, apperrors.NewStorageError(apperrors.ErrCodeStorageFailed,
			"advisory lock query failed", err)
	}
	if !locked {
		conn.Release()
		return nil, apperrors.NewValidationError(apperrors.ErrCodeLockUnavailable,
			"an improvement run for this resume/job pair is already in progress", nil).
			WithContext("resume_id", resumeID).
			WithContext("job_id", jobID)
	}

	release := func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, key)
		conn.Release()
	}
	return release, nil
}
