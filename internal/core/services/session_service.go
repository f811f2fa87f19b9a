package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/utils"
)

// tokenBytes is the amount of randomness in a session token before hex encoding.
const tokenBytes = 32

// sessionService issues opaque tokens valid for a fixed window from issuance.
type sessionService struct {
	BaseService
	sessionRepo portsrepo.SessionRepository
	ttl         time.Duration
}

// NewSessionService creates the session manager.
func NewSessionService(repo portsrepo.SessionRepository, options ...ServiceOption) portssvc.SessionSvcFacade {
	o := buildOptions(options)
	return &sessionService{
		BaseService: BaseService{clock: o.clock},
		sessionRepo: repo,
		ttl:         o.sessionTTL,
	}
}

var _ portssvc.SessionSvcFacade = (*sessionService)(nil)

func (s *sessionService) Issue(ctx context.Context, cpf string) (string, error) {
	token, err := utils.NewSessionToken(tokenBytes)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate session token")
		return "", apperrors.NewAppError(500, "failed to generate session token", err)
	}

	if err := s.sessionRepo.SaveSession(ctx, domain.Session{Token: token, CPF: cpf, IssuedAt: s.Now()}); err != nil {
		s.LogError(ctx, err, "Failed to store session", slog.String("cpf", cpf))
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *sessionService) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrInvalidToken
	}

	session, err := s.sessionRepo.FindSession(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrInvalidToken
		}
		s.LogError(ctx, err, "Failed to load session")
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	if session.IsExpired(s.Now(), s.ttl) {
		if _, err := s.sessionRepo.DeleteSession(ctx, token); err != nil {
			s.LogError(ctx, err, "Failed to evict expired session", slog.String("cpf", session.CPF))
		}
		return "", apperrors.ErrTokenExpired
	}
	return session.CPF, nil
}

func (s *sessionService) Revoke(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	removed, err := s.sessionRepo.DeleteSession(ctx, token)
	if err != nil {
		s.LogError(ctx, err, "Failed to revoke session")
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}
	return removed, nil
}

func (s *sessionService) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.sessionRepo.DeleteSessionsIssuedBefore(ctx, s.Now().Add(-s.ttl))
	if err != nil {
		s.LogError(ctx, err, "Failed to sweep expired sessions")
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	if removed > 0 {
		s.LogInfo(ctx, "Expired sessions removed", slog.Int64("count", removed))
	}
	return removed, nil
}
