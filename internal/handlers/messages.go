package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/middleware"
)

// Response texts shown to protocol clients.
const (
	msgUnknownOperation  = "Operação desconhecida"
	msgInternal          = "Erro interno ao processar a operação"
	msgInvalidToken      = "Token inválido ou expirado"
	msgTokenRequired     = "Token é obrigatório"
	msgMalformed         = "Dados da requisição inválidos"
	msgCreateRequired    = "Nome, CPF e senha são obrigatórios"
	msgCPFFormat         = "CPF deve conter exatamente 11 dígitos"
	msgNameLength        = "Nome deve ter entre 6 e 120 caracteres"
	msgSecretLength      = "Senha deve ter entre 6 e 120 caracteres"
	msgLoginRequired     = "CPF e senha são obrigatórios"
	msgDuplicate         = "Usuário já existente"
	msgUnknownUser       = "Usuário inexistente"
	msgWrongSecret       = "Senha inválida"
	msgUserNotFound      = "Usuário não encontrado"
	msgNothingToUpdate   = "Nenhum campo para atualizar"
	msgDestRequired      = "CPF de destino é obrigatório"
	msgPositiveAmount    = "Valor deve ser positivo"
	msgAmountTooLarge    = "Valor excede o limite permitido"
	msgBalanceLimit      = "Saldo máximo excedido"
	msgSelfTransfer      = "Não é possível transferir para si mesmo"
	msgInsufficientFunds = "Saldo insuficiente"
	msgSourceNotFound    = "Usuário de origem não encontrado"
	msgDestNotFound      = "Usuário de destino não encontrado"
	msgInvalidDateFilter = "Filtro de datas inválido"
	msgUserCreated       = "Usuário criado com sucesso"
	msgLoginOK           = "Login bem-sucedido"
	msgLogoutOK          = "Logout realizado com sucesso"
	msgUserData          = "Dados do usuário"
	msgUserUpdated       = "Dados atualizados com sucesso"
	msgTransferOK        = "Transação realizada com sucesso"
	msgUserTransactions  = "Transações do usuário"
	msgDepositOK         = "Depósito realizado com sucesso"
)

// domainMessages maps service errors to client texts. Order matters: the more specific
// errors come before the ones they wrap.
var domainMessages = []struct {
	err error
	msg string
}{
	{apperrors.ErrInvalidToken, msgInvalidToken},
	{apperrors.ErrTokenExpired, msgInvalidToken},
	{apperrors.ErrDuplicate, msgDuplicate},
	{apperrors.ErrInvalidCredentials, msgWrongSecret},
	{apperrors.ErrNothingToUpdate, msgNothingToUpdate},
	{apperrors.ErrValidation, msgMalformed},
	{domain.ErrAmountTooLarge, msgAmountTooLarge},
	{apperrors.ErrInvalidAmount, msgPositiveAmount},
	{apperrors.ErrBalanceLimit, msgBalanceLimit},
	{apperrors.ErrSelfTransfer, msgSelfTransfer},
	{apperrors.ErrInsufficientFunds, msgInsufficientFunds},
	{apperrors.ErrSourceNotFound, msgSourceNotFound},
	{apperrors.ErrDestinationNotFound, msgDestNotFound},
	{apperrors.ErrNotFound, msgUserNotFound},
}

// failFromError converts a service error to a failure response. Errors without a client
// text are logged and reported generically.
func failFromError(ctx context.Context, operacao string, err error) dto.Response {
	for _, m := range domainMessages {
		if errors.Is(err, m.err) {
			return dto.Failure(operacao, m.msg)
		}
	}
	middleware.GetLoggerFromCtx(ctx).Error("Operation failed", slog.String("error", err.Error()))
	return dto.Failure(operacao, msgInternal)
}
