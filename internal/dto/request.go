package dto

import (
	"encoding/json"
	"fmt"
)

// Request is the envelope shared by every line a client sends. The operation-specific
// fields are decoded from the same line with Bind.
type Request struct {
	Operacao string `json:"operacao"`
	Token    string `json:"token"`

	payload []byte
}

// ParseRequest decodes one protocol line. The line must be a JSON object.
func ParseRequest(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("malformed request: %w", err)
	}
	req.payload = append([]byte(nil), line...)
	return &req, nil
}

// Bind decodes the full request line into target.
func (r *Request) Bind(target any) error {
	if err := json.Unmarshal(r.payload, target); err != nil {
		return fmt.Errorf("malformed %s request: %w", r.Operacao, err)
	}
	return nil
}
