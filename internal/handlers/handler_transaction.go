package handlers

import (
	"context"
	"log/slog"

	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/metrics"
	"github.com/SscSPs/pix_backend/internal/middleware"
)

// transactionHandler serves transfers, deposits and the transaction history.
type transactionHandler struct {
	transferService portssvc.TransferSvcFacade
	metrics         metrics.MetricsCollector
}

func newTransactionHandler(ts portssvc.TransferSvcFacade, m metrics.MetricsCollector) *transactionHandler {
	return &transactionHandler{transferService: ts, metrics: m}
}

// registerTransactionOperations registers transacao_criar, transacao_ler and depositar.
// All of them require a session.
func registerTransactionOperations(d *Dispatcher, services *portssvc.ServiceContainer) {
	h := newTransactionHandler(services.Transfer, d.Metrics())
	auth := requireSession(services.Session)

	d.Register(OpCreateTransaction, auth(h.createTransaction))
	d.Register(OpListTransactions, auth(h.listTransactions))
	d.Register(OpDeposit, auth(h.deposit))
}

func (h *transactionHandler) createTransaction(ctx context.Context, req *dto.Request) dto.Response {
	logger := middleware.GetLoggerFromCtx(ctx)
	cpf, _ := middleware.GetCPFFromCtx(ctx)

	var body dto.CreateTransactionRequest
	if err := req.Bind(&body); err != nil {
		logger.Warn("Failed to bind transaction request", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgMalformed)
	}
	body.Normalize()
	if errs := middleware.ValidateRequest(body); len(errs) > 0 {
		if middleware.HasTag(errs, "required") {
			return dto.Failure(req.Operacao, msgDestRequired)
		}
		return dto.Failure(req.Operacao, msgCPFFormat)
	}

	tx, err := h.transferService.Transfer(ctx, cpf, body.CPFDestino, body.Valor)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}
	h.metrics.RecordTransfer(tx.Amount)

	return dto.Success(req.Operacao, msgTransferOK).
		With("id", tx.ID).
		With("valor", dto.Money(tx.Amount)).
		With("data_hora", dto.FormatTime(tx.CreatedAt))
}

func (h *transactionHandler) listTransactions(ctx context.Context, req *dto.Request) dto.Response {
	logger := middleware.GetLoggerFromCtx(ctx)
	cpf, _ := middleware.GetCPFFromCtx(ctx)

	var body dto.ListTransactionsRequest
	if err := req.Bind(&body); err != nil {
		logger.Warn("Failed to bind transaction listing request", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgMalformed)
	}
	filter, err := body.Filter()
	if err != nil {
		logger.Debug("Rejected transaction filter", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgInvalidDateFilter)
	}

	details, err := h.transferService.ListTransactions(ctx, cpf, filter)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}
	return dto.Success(req.Operacao, msgUserTransactions).With("transacoes", dto.ToTransactionResponses(details))
}

func (h *transactionHandler) deposit(ctx context.Context, req *dto.Request) dto.Response {
	logger := middleware.GetLoggerFromCtx(ctx)
	cpf, _ := middleware.GetCPFFromCtx(ctx)

	var body dto.DepositRequest
	if err := req.Bind(&body); err != nil {
		logger.Warn("Failed to bind deposit request", slog.String("error", err.Error()))
		return dto.Failure(req.Operacao, msgMalformed)
	}

	balance, err := h.transferService.Deposit(ctx, cpf, body.ValorEnviado)
	if err != nil {
		return failFromError(ctx, req.Operacao, err)
	}
	h.metrics.RecordDeposit(body.ValorEnviado)

	return dto.Success(req.Operacao, msgDepositOK).With("novo_saldo", dto.Money(balance))
}
