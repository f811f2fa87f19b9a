package domain

import "time"

// DefaultSessionTTL is the fixed session window counted from issuance.
const DefaultSessionTTL = 24 * time.Hour

// Session binds an opaque token to the account that logged in.
type Session struct {
	Token    string    `json:"token"`
	CPF      string    `json:"cpf"`
	IssuedAt time.Time `json:"issued_at"`
}

// IsExpired reports whether more than ttl has elapsed since issuance. The window does not slide.
func (s Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.IssuedAt) > ttl
}
