package middleware

import "context"

// cpfCtxKey is the key used to store the authenticated account's CPF in a context.
const cpfCtxKey = contextKey("cpf")

// WithCPF returns a copy of ctx carrying the authenticated CPF.
func WithCPF(ctx context.Context, cpf string) context.Context {
	return context.WithValue(ctx, cpfCtxKey, cpf)
}

// GetCPFFromCtx retrieves the authenticated CPF from the context.
// It returns the CPF and a boolean indicating if it was found.
func GetCPFFromCtx(ctx context.Context) (string, bool) {
	cpf, ok := ctx.Value(cpfCtxKey).(string)
	if !ok || cpf == "" {
		return "", false
	}
	return cpf, true
}
