package handlers

import (
	"context"
	"log/slog"

	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/middleware"
)

// requireSession wraps operations that act on behalf of a logged-in account. The
// wrapped handler finds the account's CPF with middleware.GetCPFFromCtx.
func requireSession(sessions portssvc.SessionSvcFacade) func(OperationFunc) OperationFunc {
	return func(next OperationFunc) OperationFunc {
		return func(ctx context.Context, req *dto.Request) dto.Response {
			if req.Token == "" {
				return dto.Failure(req.Operacao, msgInvalidToken)
			}
			cpf, err := sessions.Validate(ctx, req.Token)
			if err != nil {
				return failFromError(ctx, req.Operacao, err)
			}
			logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("cpf", cpf))
			ctx = middleware.WithLogger(middleware.WithCPF(ctx, cpf), logger)
			return next(ctx, req)
		}
	}
}
