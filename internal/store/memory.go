package store

import (
	"context"
	"sync"

	"resumatcher/internal/types"
)

// MemoryStore is an in-process EntityStore for the CLI and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	sources   map[string]*types.SourceDocument
	processed map[string]*types.ProcessedDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:   make(map[string]*types.SourceDocument),
		processed: make(map[string]*types.ProcessedDocument),
	}
}

func (s *MemoryStore) Close() {}

func key(kind types.EntityKind, id string) string {
	return string(kind) + "/" + id
}

func (s *MemoryStore) SaveSource(ctx context.Context, doc *types.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.sources[key(doc.Kind, doc.ID)] = &cp
	return nil
}

func (s *MemoryStore) GetSource(ctx context.Context, kind types.EntityKind, id string) (*types.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.sources[key(kind, id)]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) SaveProcessed(ctx context.Context, doc *types.ProcessedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	cp.Keywords = append([]byte(nil), doc.Keywords...)
	s.processed[key(doc.Kind, doc.SourceID)] = &cp
	return nil
}

func (s *MemoryStore) GetProcessed(ctx context.Context, kind types.EntityKind, sourceID string) (*types.ProcessedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.processed[key(kind, sourceID)]
	if !ok {
		return nil, nil
	}
	cp := *doc
	cp.Keywords = append([]byte(nil), doc.Keywords...)
	return &cp, nil
}

