package session

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
)

// MemoryRepository keeps sessions in a process-local map.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

var _ portsrepo.SessionRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty session map.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]domain.Session)}
}

func (r *MemoryRepository) SaveSession(ctx context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Token] = session
	return nil
}

func (r *MemoryRepository) FindSession(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) DeleteSession(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[token]; !ok {
		return false, nil
	}
	delete(r.sessions, token)
	return true, nil
}

func (r *MemoryRepository) DeleteSessionsIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, s := range r.sessions {
		if s.IssuedAt.Before(cutoff) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}
