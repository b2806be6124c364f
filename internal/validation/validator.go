// Package validation gates entities before they enter an improvement run.
package validation

import (
	"context"
	"encoding/json"
	"fmt"

	"resumatcher/internal/errors"
	"resumatcher/internal/store"
	"resumatcher/internal/types"
)

// Validator checks that a stored document is ready for matching: it
// exists, its extraction completed, and the extraction produced keywords.
type Validator struct {
	store  store.EntityStore
	logger *errors.Logger
}

func NewValidator(entityStore store.EntityStore, logger *errors.Logger) *Validator {
	return &Validator{store: entityStore, logger: logger}
}

// EnsureReady loads the source and extraction records for an entity and
// returns the materialized ReadyEntity, or a typed validation error
// describing exactly which precondition failed.
func (v *Validator) EnsureReady(ctx context.Context, kind types.EntityKind, id string) (*types.ReadyEntity, error) {
	source, err := v.store.GetSource(ctx, kind, id)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("failed to load %s %s", kind, id), err)
	}
	if source == nil {
		return nil, errors.NewNotFoundError(string(kind), id)
	}

	processed, err := v.store.GetProcessed(ctx, kind, id)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("failed to load extraction record for %s %s", kind, id), err)
	}
	if processed == nil {
		return nil, errors.NewNotParsedError(string(kind), id, "no extraction record")
	}

	switch processed.Status {
	case types.StatusCompleted:
		// fall through to keyword checks
	case types.StatusFailed:
		reason := processed.ProcessingError
		if reason == "" {
			reason = "extraction failed"
		}
		return nil, errors.NewNotParsedError(string(kind), id, reason)
	case types.StatusPending, types.StatusProcessing:
		return nil, errors.NewNotParsedError(string(kind), id,
			fmt.Sprintf("extraction is %s", processed.Status))
	default:
		return nil, errors.NewNotParsedError(string(kind), id,
			fmt.Sprintf("unknown extraction status %q", processed.Status))
	}

	keywords, err := decodeKeywords(processed.Keywords)
	if err != nil {
		v.logger.Warn("Stored keyword payload is malformed",
			"kind", kind, "id", id, "error", err.Error())
		return nil, errors.NewKeywordsMissingError(string(kind), id)
	}
	if len(keywords) == 0 {
		return nil, errors.NewKeywordsMissingError(string(kind), id)
	}

	return &types.ReadyEntity{
		ID:       id,
		Kind:     kind,
		Content:  source.Content,
		Keywords: keywords,
	}, nil
}

// decodeKeywords parses the stored extraction payload. An empty payload,
// an empty object and an empty list all decode to no keywords.
func decodeKeywords(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload types.KeywordPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload.ExtractedKeywords, nil
}
