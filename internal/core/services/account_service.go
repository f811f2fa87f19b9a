package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/utils"
	"github.com/shopspring/decimal"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	secretMode  string
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AccountSvcFacade {
	o := buildOptions(options)
	return &accountService{
		BaseService: BaseService{clock: o.clock},
		accountRepo: repo,
		secretMode:  o.secretMode,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func validLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateUserRequest) (*domain.Account, error) {
	req.Normalize()
	if !domain.IsValidCPF(req.CPF) {
		return nil, fmt.Errorf("%w: cpf must have %d digits", apperrors.ErrValidation, domain.CPFLength)
	}
	if !validLength(req.Nome, domain.MinNameLength, domain.MaxNameLength) {
		return nil, fmt.Errorf("%w: name length out of range", apperrors.ErrValidation)
	}
	if !validLength(req.Senha, domain.MinSecretLength, domain.MaxSecretLength) {
		return nil, fmt.Errorf("%w: secret length out of range", apperrors.ErrValidation)
	}

	secret, err := utils.HashSecret(s.secretMode, req.Senha)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash secret")
		return nil, apperrors.NewAppError(500, "failed to hash secret", err)
	}

	now := s.Now()
	account := domain.Account{
		CPF:         req.CPF,
		Name:        req.Nome,
		Secret:      secret,
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}

	if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogDebug(ctx, "Account already exists", slog.String("cpf", req.CPF))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to create account", slog.String("cpf", req.CPF))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.LogInfo(ctx, "Account created", slog.String("cpf", account.CPF))
	return &account, nil
}

func (s *accountService) GetAccount(ctx context.Context, cpf string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCPF(ctx, cpf)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load account", slog.String("cpf", cpf))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) Authenticate(ctx context.Context, cpf string, secret string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCPF(ctx, cpf)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load account for login", slog.String("cpf", cpf))
		}
		return nil, err
	}
	if !utils.CheckSecret(secret, account.Secret) {
		s.LogDebug(ctx, "Login rejected", slog.String("cpf", cpf))
		return nil, apperrors.ErrInvalidCredentials
	}
	return account, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, cpf string, req dto.UpdateUserRequest) error {
	if req.IsEmpty() {
		return apperrors.ErrNothingToUpdate
	}
	if req.Nome != nil && !validLength(*req.Nome, domain.MinNameLength, domain.MaxNameLength) {
		return fmt.Errorf("%w: name length out of range", apperrors.ErrValidation)
	}

	var secret *string
	if req.Senha != nil {
		if !validLength(*req.Senha, domain.MinSecretLength, domain.MaxSecretLength) {
			return fmt.Errorf("%w: secret length out of range", apperrors.ErrValidation)
		}
		hashed, err := utils.HashSecret(s.secretMode, *req.Senha)
		if err != nil {
			s.LogError(ctx, err, "Failed to hash secret")
			return apperrors.NewAppError(500, "failed to hash secret", err)
		}
		secret = &hashed
	}

	if err := s.accountRepo.UpdateAccountProfile(ctx, cpf, req.Nome, secret, s.Now()); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to update account", slog.String("cpf", cpf))
		}
		return err
	}

	s.LogInfo(ctx, "Account updated", slog.String("cpf", cpf),
		slog.Bool("name_changed", req.Nome != nil), slog.Bool("secret_changed", req.Senha != nil))
	return nil
}
