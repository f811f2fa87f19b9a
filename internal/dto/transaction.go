package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// dateLayout is the day-only form accepted by the transaction filters.
const dateLayout = "2006-01-02"

// CreateTransactionRequest is the payload of transacao_criar.
type CreateTransactionRequest struct {
	CPFDestino string          `json:"cpf_destino" validate:"required,cpf"`
	Valor      decimal.Decimal `json:"valor"`
}

// Normalize trims the destination CPF.
func (r *CreateTransactionRequest) Normalize() {
	r.CPFDestino = strings.TrimSpace(r.CPFDestino)
}

// DepositRequest is the payload of depositar.
type DepositRequest struct {
	ValorEnviado decimal.Decimal `json:"valor_enviado"`
}

// ListTransactionsRequest is the payload of transacao_ler. Both bounds are optional.
type ListTransactionsRequest struct {
	DataInicial string `json:"data_inicial"`
	DataFinal   string `json:"data_final"`
}

// Filter converts the optional bounds into a domain filter. Day-only bounds cover the
// whole day: data_inicial from 00:00:00 and data_final up to 23:59:59.999999999 UTC.
func (r ListTransactionsRequest) Filter() (domain.TransactionFilter, error) {
	var f domain.TransactionFilter
	if s := strings.TrimSpace(r.DataInicial); s != "" {
		from, _, err := parseBound(s)
		if err != nil {
			return f, fmt.Errorf("data_inicial: %w", err)
		}
		f.From = &from
	}
	if s := strings.TrimSpace(r.DataFinal); s != "" {
		to, dayOnly, err := parseBound(s)
		if err != nil {
			return f, fmt.Errorf("data_final: %w", err)
		}
		if dayOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, fmt.Errorf("data_inicial is after data_final")
	}
	return f, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s)
	}
	return t.UTC(), false, nil
}

// PartyResponse identifies one side of a transaction.
type PartyResponse struct {
	Nome string `json:"nome"`
	CPF  string `json:"cpf"`
}

// TransactionResponse is one entry of the transacao_ler listing.
type TransactionResponse struct {
	ID               int64         `json:"id"`
	Valor            Money         `json:"valor"`
	UsuarioEnviador  PartyResponse `json:"usuario_enviador"`
	UsuarioRecebedor PartyResponse `json:"usuario_recebedor"`
	CriadoEm         string        `json:"criado_em"`
	AtualizadoEm     string        `json:"atualizado_em"`
}

// ToTransactionResponse converts a domain.TransactionDetail to its wire form.
func ToTransactionResponse(d domain.TransactionDetail) TransactionResponse {
	return TransactionResponse{
		ID:               d.ID,
		Valor:            Money(d.Amount),
		UsuarioEnviador:  PartyResponse{Nome: d.Sender.Name, CPF: d.Sender.CPF},
		UsuarioRecebedor: PartyResponse{Nome: d.Receiver.Name, CPF: d.Receiver.CPF},
		CriadoEm:         FormatTime(d.CreatedAt),
		AtualizadoEm:     FormatTime(d.UpdatedAt),
	}
}

// ToTransactionResponses converts a listing, always returning a non-nil slice.
func ToTransactionResponses(details []domain.TransactionDetail) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(details))
	for _, d := range details {
		out = append(out, ToTransactionResponse(d))
	}
	return out
}
