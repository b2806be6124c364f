// Package ingest accepts raw resume and job documents and runs keyword
// extraction so the scoring pipeline can consume them later.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resumatcher/internal/ai"
	"resumatcher/internal/errors"
	"resumatcher/internal/store"
	"resumatcher/internal/types"
)

// Service persists a submitted document and drives its extraction through
// the processing status lifecycle: processing, then completed or failed.
type Service struct {
	store     store.EntityStore
	extractor ai.AIProvider
	logger    *errors.Logger
}

func NewService(entityStore store.EntityStore, extractor ai.AIProvider, logger *errors.Logger) *Service {
	return &Service{store: entityStore, extractor: extractor, logger: logger}
}

// Ingest stores content under a fresh id and extracts its keywords. The
// returned record reflects the terminal status. Extraction failures are
// committed as failed records before the error is returned, so a later
// readiness check reports the stored reason instead of a missing record.
func (s *Service) Ingest(ctx context.Context, kind types.EntityKind, content string) (*types.ProcessedDocument, error) {
	if content == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%s content must not be empty", kind), nil)
	}

	id := uuid.NewString()
	now := time.Now()

	if err := s.store.SaveSource(ctx, &types.SourceDocument{
		ID:        id,
		Kind:      kind,
		Content:   content,
		CreatedAt: now,
	}); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("failed to save %s", kind), err)
	}

	processed := &types.ProcessedDocument{
		ID:        uuid.NewString(),
		SourceID:  id,
		Kind:      kind,
		Status:    types.StatusProcessing,
		UpdatedAt: now,
	}
	if err := s.store.SaveProcessed(ctx, processed); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			"failed to record processing status", err)
	}

	s.logger.Info("Document accepted for extraction", "kind", kind, "id", id)

	payload, usage, err := s.extractor.ExtractKeywords(ctx, types.ExtractKeywordsInput{
		Kind:    kind,
		Content: content,
	})
	if err != nil {
		s.markFailed(ctx, processed, err.Error())
		return processed, err
	}
	if len(payload.ExtractedKeywords) == 0 {
		reason := "extraction produced no keywords"
		s.markFailed(ctx, processed, reason)
		return processed, errors.NewKeywordsMissingError(string(kind), id)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.markFailed(ctx, processed, err.Error())
		return processed, errors.NewInternalError(errors.ErrCodeInvalidFormat,
			"failed to encode keyword payload", err)
	}

	processed.Status = types.StatusCompleted
	processed.Keywords = raw
	processed.ProcessingError = ""
	processed.UpdatedAt = time.Now()
	if err := s.store.SaveProcessed(ctx, processed); err != nil {
		return processed, errors.NewStorageError(errors.ErrCodeStorageFailed,
			"failed to record extraction result", err)
	}

	logArgs := []any{"kind", kind, "id", id, "keywords", len(payload.ExtractedKeywords)}
	if usage != nil {
		logArgs = append(logArgs, "total_tokens", usage.TotalTokens)
	}
	s.logger.Info("Extraction completed", logArgs...)

	return processed, nil
}

// markFailed commits the failed status with the failure reason. The write
// is detached from the caller's cancellation: a client that gave up must
// still find a failed record, not a stuck processing one.
func (s *Service) markFailed(ctx context.Context, processed *types.ProcessedDocument, reason string) {
	processed.Status = types.StatusFailed
	processed.ProcessingError = reason
	processed.Keywords = nil
	processed.UpdatedAt = time.Now()

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.SaveProcessed(commitCtx, processed); err != nil {
		s.logger.LogError(err, "Failed to commit failed extraction status",
			"kind", processed.Kind, "source_id", processed.SourceID)
	}
}
