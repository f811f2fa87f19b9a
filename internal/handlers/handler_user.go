package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/middleware"
)

// userHandler serves the usuario_* operations.
type userHandler struct {
	accountService portssvc.AccountSvcFacade
	sessionService portssvc.SessionSvcFacade
}

// newUserHandler creates a new userHandler.
func newUserHandler(as portssvc.AccountSvcFacade, ss portssvc.SessionSvcFacade) *userHandler {
	return &userHandler{
		accountService: as,
		sessionService: ss,
	}
}

// registerUserOperations registers all user-related operations.
func registerUserOperations(d *Dispatcher, services *portssvc.ServiceContainer) {
	h := newUserHandler(services.Account, services.Session)
	auth := requireSession(services.Session)

	d.Register(OpCreateUser, h.createUser)
	d.Register(OpLogin, h.login)
	d.Register(OpLogout, h.logout)
	d.Register(OpReadUser, auth(h.readUser))
	d.Register(OpUpdateUser, auth(h.updateUser))
}

// createUserValidationMessage picks the client text for the first failed constraint.
// Missing fields win over malformed ones.
func createUserValidationMessage(errs []middleware.ValidationError) string {
	if middleware.HasTag(errs, "required") {
		return msgCreateRequired
	}
	return fieldValidationMessage(errs[0].Field)
}

func fieldValidationMessage(field string) string {
	switch field {
	case "cpf":
		return msgCPFFormat
	case "nome":
		return msgNameLength
	case "senha":
		return msgSecretLength
	default:
		return msgMalformed
	}
}

func (h *userHandler) createUser(ctx context.Context, req *dto.Request) dto.Response {
	logger := middleware.GetLoggerFromCtx(ctx)
	var body dto.CreateUserRequest
	if err := req.Bind(&body); err != nil {
		logger.Warn("Failed to bind create user request", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgMalformed)
	}
	body.Normalize()
	if errs := middleware.ValidateRequest(body); len(errs) > 0 {
		return dto.Failure(req.Operacao, createUserValidationMessage(errs))
	}

	account, err := h.accountService.CreateAccount(ctx, body)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}

	logger.Info("User created", slog.String("cpf", account.CPF))
	return dto.Success(req.Operacao, msgUserCreated)
}

func (h *userHandler) login(ctx context.Context, req *dto.Request) dto.Response {
	logger := middleware.GetLoggerFromCtx(ctx)
	var body dto.LoginRequest
	if err := req.Bind(&body); err != nil {
		logger.Warn("Failed to bind login request", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgMalformed)
	}
	body.Normalize()
	if errs := middleware.ValidateRequest(body); len(errs) > 0 {
		return dto.Failure(req.Operacao, msgLoginRequired)
	}

	account, err := h.accountService.Authenticate(ctx, body.CPF, body.Senha)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return dto.Failure(req.Operacao, msgUnknownUser)
		}
		return failFromError(ctx, req.Operacao, err)
	}

	token, err := h.sessionService.Issue(ctx, account.CPF)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}

	logger.Info("User logged in", slog.String("cpf", account.CPF))
	return dto.Success(req.Operacao, msgLoginOK).With("token", token)
}

func (h *userHandler) logout(ctx context.Context, req *dto.Request) dto.Response {
	if req.Token == "" {
		return dto.Failure(req.Operacao, msgTokenRequired)
	}
	removed, err := h.sessionService.Revoke(ctx, req.Token)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}
	if !removed {
		return dto.Failure(req.Operacao, msgInvalidToken)
	}
	return dto.Success(req.Operacao, msgLogoutOK)
}

func (h *userHandler) readUser(ctx context.Context, req *dto.Request) dto.Response {
	cpf, _ := middleware.GetCPFFromCtx(ctx)
	account, err := h.accountService.GetAccount(ctx, cpf)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}
	return dto.Success(req.Operacao, msgUserData).With("usuario", dto.ToUserResponse(account))
}

func (h *userHandler) updateUser(ctx context.Context, req *dto.Request) dto.Response {
	logger := middleware.GetLoggerFromCtx(ctx)
	cpf, _ := middleware.GetCPFFromCtx(ctx)

	var payload dto.UpdateUserPayload
	if err := req.Bind(&payload); err != nil {
		logger.Warn("Failed to bind update user request", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgMalformed)
	}
	update := payload.ToUpdateUserRequest()
	if update.IsEmpty() {
		return dto.Failure(req.Operacao, msgNothingToUpdate)
	}
	if errs := middleware.ValidateRequest(update); len(errs) > 0 {
		return dto.Failure(req.Operacao, fieldValidationMessage(errs[0].Field))
	}

	if err := h.accountService.UpdateAccount(ctx, cpf, update); err != nil {
		return failFromError(ctx, req.Operacao, err)
	}
	return dto.Success(req.Operacao, msgUserUpdated)
}
