package handlers

// Operation codes of the line protocol.
const (
	OpCreateUser        = "usuario_criar"
	OpLogin             = "usuario_login"
	OpLogout            = "usuario_logout"
	OpReadUser          = "usuario_ler"
	OpUpdateUser        = "usuario_atualizar"
	OpCreateTransaction = "transacao_criar"
	OpListTransactions  = "transacao_ler"
	OpDeposit           = "depositar"
)

var knownOperations = map[string]struct{}{
	OpCreateUser:        {},
	OpLogin:             {},
	OpLogout:            {},
	OpReadUser:          {},
	OpUpdateUser:        {},
	OpCreateTransaction: {},
	OpListTransactions:  {},
	OpDeposit:           {},
}
