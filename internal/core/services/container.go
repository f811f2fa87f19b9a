package services

import (
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The options apply to every service, so they share one clock.
func NewServiceContainer(repos portsrepo.RepositoryProvider, options ...ServiceOption) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Account:  NewAccountService(repos.AccountRepo, options...),
		Transfer: NewTransferService(repos.AccountRepo, repos.LedgerRepo, options...),
		Session:  NewSessionService(repos.SessionRepo, options...),
	}
}
