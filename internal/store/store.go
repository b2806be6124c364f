// Package store persists source documents and their extraction results.
package store

import (
	"context"

	"resumatcher/internal/types"
)

// EntityStore is the read/write surface used by ingestion, validation and
// the improvement service. Implementations must be safe for concurrent use.
type EntityStore interface {
	// SaveSource stores a raw submitted document.
	SaveSource(ctx context.Context, doc *types.SourceDocument) error

	// GetSource returns the raw document, or (nil, nil) when absent.
	GetSource(ctx context.Context, kind types.EntityKind, id string) (*types.SourceDocument, error)

	// SaveProcessed creates or replaces the extraction record for a source.
	SaveProcessed(ctx context.Context, doc *types.ProcessedDocument) error

	// GetProcessed returns the extraction record keyed by source id, or
	// (nil, nil) when no extraction has been recorded.
	GetProcessed(ctx context.Context, kind types.EntityKind, sourceID string) (*types.ProcessedDocument, error)

	Close()
}

// PairLocker serializes improvement runs over the same (resume, job) pair.
// Acquire returns a release func, or an error when the pair is already held.
type PairLocker interface {
	Acquire(ctx context.Context, resumeID, jobID string) (release func(), err error)
}

// noopLocker admits every run. Used when improve.lockMode is "none".
type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, resumeID, jobID string) (func(), error) {
	return func() {}, nil
}

// NewNoopLocker returns a PairLocker that never blocks or rejects.
func NewNoopLocker() PairLocker {
	return noopLocker{}
}
