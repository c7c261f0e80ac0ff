// Package memory provides the in-memory audit store used by tests, the CLI,
// and deployments without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"finaudit/internal/audit/models"
	id "finaudit/pkg/domain"
	"finaudit/pkg/platform/sentinel"
)

type Store struct {
	mu     sync.RWMutex
	audits map[id.AuditID]models.Audit
}

func NewStore() *Store {
	return &Store{audits: make(map[id.AuditID]models.Audit)}
}

// Save persists a completed audit. Audit ids are write-once; a duplicate id
// is a conflict, not an overwrite.
func (s *Store) Save(_ context.Context, audit models.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.audits[audit.ID]; exists {
		return sentinel.ErrConflict
	}
	s.audits[audit.ID] = audit
	return nil
}

func (s *Store) Get(_ context.Context, auditID id.AuditID) (models.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audit, ok := s.audits[auditID]
	if !ok {
		return models.Audit{}, sentinel.ErrNotFound
	}
	return audit, nil
}

// ListByRequester returns summaries for one requester, newest first.
func (s *Store) ListByRequester(_ context.Context, requester id.RequesterID) ([]models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.Summary, 0)
	for _, audit := range s.audits {
		if audit.Requester == requester {
			summaries = append(summaries, audit.Summarize())
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Timestamp == summaries[j].Timestamp {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].Timestamp > summaries[j].Timestamp
	})
	return summaries, nil
}
