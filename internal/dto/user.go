package dto

import (
	"strings"

	"github.com/SscSPs/pix_backend/internal/core/domain"
)

// CreateUserRequest is the payload of usuario_criar.
type CreateUserRequest struct {
	Nome  string `json:"nome" validate:"required,min=6,max=120"`
	CPF   string `json:"cpf" validate:"required,cpf"`
	Senha string `json:"senha" validate:"required,min=6,max=120"`
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateUserRequest) Normalize() {
	r.Nome = strings.TrimSpace(r.Nome)
	r.CPF = strings.TrimSpace(r.CPF)
	r.Senha = strings.TrimSpace(r.Senha)
}

// LoginRequest is the payload of usuario_login.
type LoginRequest struct {
	CPF   string `json:"cpf" validate:"required"`
	Senha string `json:"senha" validate:"required"`
}

// Normalize trims surrounding whitespace from every field.
func (r *LoginRequest) Normalize() {
	r.CPF = strings.TrimSpace(r.CPF)
	r.Senha = strings.TrimSpace(r.Senha)
}

// userFields carries the updatable fields, either nested under "usuario" or at the top level.
type userFields struct {
	Nome  *string `json:"nome"`
	Senha *string `json:"senha"`
}

// UpdateUserPayload is the raw payload of usuario_atualizar.
type UpdateUserPayload struct {
	Usuario *userFields `json:"usuario"`
	userFields
}

// UpdateUserRequest defines the data allowed for updating a user.
// Using pointers to differentiate between omitted fields and provided ones.
type UpdateUserRequest struct {
	Nome  *string `json:"nome" validate:"omitempty,min=6,max=120"`
	Senha *string `json:"senha" validate:"omitempty,min=6,max=120"`
}

// IsEmpty reports whether no field was provided.
func (r UpdateUserRequest) IsEmpty() bool {
	return r.Nome == nil && r.Senha == nil
}

// ToUpdateUserRequest picks the nested fields when present, otherwise the top-level ones.
// Blank values count as not provided.
func (p UpdateUserPayload) ToUpdateUserRequest() UpdateUserRequest {
	fields := p.userFields
	if p.Usuario != nil {
		fields = *p.Usuario
	}
	return UpdateUserRequest{
		Nome:  trimmedOrNil(fields.Nome),
		Senha: trimmedOrNil(fields.Senha),
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// UserResponse is the public view of an account returned by usuario_ler.
type UserResponse struct {
	Nome  string `json:"nome"`
	CPF   string `json:"cpf"`
	Saldo Money  `json:"saldo"`
}

// ToUserResponse converts a domain.Account to UserResponse DTO
func ToUserResponse(account *domain.Account) UserResponse {
	return UserResponse{
		Nome:  account.Name,
		CPF:   account.CPF,
		Saldo: Money(account.Balance),
	}
}
