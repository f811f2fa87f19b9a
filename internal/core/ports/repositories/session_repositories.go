package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
)

// SessionRepository stores live sessions. Implementations must be safe for concurrent use.
type SessionRepository interface {
	// SaveSession stores a new session under its token.
	SaveSession(ctx context.Context, session domain.Session) error

	// FindSession returns the session for token, or apperrors.ErrNotFound.
	FindSession(ctx context.Context, token string) (*domain.Session, error)

	// DeleteSession removes the session and reports whether one was present.
	DeleteSession(ctx context.Context, token string) (bool, error)

	// DeleteSessionsIssuedBefore removes every session issued strictly before cutoff.
	DeleteSessionsIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
