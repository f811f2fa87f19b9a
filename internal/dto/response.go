package dto

import (
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrorOperation is echoed when the request line could not be parsed at all.
const ErrorOperation = "erro"

// Response is the envelope returned for every request line.
type Response struct {
	Operacao string         `json:"operacao"`
	Status   bool           `json:"status"`
	Info     string         `json:"info"`
	Dados    map[string]any `json:"dados"`
}

// Success builds a successful response with an empty payload.
func Success(operacao, info string) Response {
	return Response{Operacao: operacao, Status: true, Info: info, Dados: map[string]any{}}
}

// Failure builds a failed response with an empty payload.
func Failure(operacao, info string) Response {
	return Response{Operacao: operacao, Status: false, Info: info, Dados: map[string]any{}}
}

// With adds one payload entry and returns the response for chaining.
func (r Response) With(key string, value any) Response {
	if r.Dados == nil {
		r.Dados = map[string]any{}
	}
	r.Dados[key] = value
	return r
}

// Money renders a decimal amount as a JSON number with exactly two decimals.
type Money decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(domain.MoneyScale)), nil
}

// FormatTime renders a timestamp as RFC 3339 in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
