package services

import "context"

// SessionSvcFacade issues, validates and revokes opaque session tokens.
type SessionSvcFacade interface {
	// Issue creates a new session for cpf and returns its token.
	Issue(ctx context.Context, cpf string) (string, error)

	// Validate returns the CPF owning token. Expired sessions are evicted and reported as
	// apperrors.ErrTokenExpired; unknown tokens as apperrors.ErrInvalidToken.
	Validate(ctx context.Context, token string) (string, error)

	// Revoke removes the session and reports whether one was removed.
	Revoke(ctx context.Context, token string) (bool, error)

	// Sweep removes every expired session and returns how many were removed.
	Sweep(ctx context.Context) (int64, error)
}
