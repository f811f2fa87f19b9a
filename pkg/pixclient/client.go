// Package pixclient is a small client for the PIX line protocol.
package pixclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Response is the envelope the server sends for every request.
type Response struct {
	Operacao string          `json:"operacao"`
	Status   bool            `json:"status"`
	Info     string          `json:"info"`
	Dados    json.RawMessage `json:"dados"`
}

// Decode unmarshals the dados payload into target.
func (r *Response) Decode(target any) error {
	if len(r.Dados) == 0 {
		return nil
	}
	return json.Unmarshal(r.Dados, target)
}

// OperationError is returned by the typed helpers when the server answers with status false.
type OperationError struct {
	Operacao string
	Info     string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operacao, e.Info)
}

// User is the account view returned by ReadUser.
type User struct {
	Nome  string          `json:"nome"`
	CPF   string          `json:"cpf"`
	Saldo decimal.Decimal `json:"saldo"`
}

// Party is one side of a transaction.
type Party struct {
	Nome string `json:"nome"`
	CPF  string `json:"cpf"`
}

// Transaction is one entry of ListTransactions.
type Transaction struct {
	ID               int64           `json:"id"`
	Valor            decimal.Decimal `json:"valor"`
	UsuarioEnviador  Party           `json:"usuario_enviador"`
	UsuarioRecebedor Party           `json:"usuario_recebedor"`
	CriadoEm         time.Time       `json:"criado_em"`
	AtualizadoEm     time.Time       `json:"atualizado_em"`
}

// Client holds one connection and the session token obtained by Login.
// Requests are serialized; the protocol allows one in flight per connection.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	token  string
}

// Dial connects to a PIX server.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Token returns the current session token, empty before Login.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken replaces the session token sent with authenticated requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Do sends one request object and waits for its response. The context deadline, if any,
// bounds the whole round trip.
func (c *Client) Do(ctx context.Context, req map[string]any) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = c.conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	raw, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// call runs an operation and turns a failure response into an OperationError.
func (c *Client) call(ctx context.Context, operacao string, fields map[string]any, withToken bool) (*Response, error) {
	req := map[string]any{"operacao": operacao}
	for k, v := range fields {
		req[k] = v
	}
	if withToken {
		req["token"] = c.Token()
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.Status {
		return resp, &OperationError{Operacao: resp.Operacao, Info: resp.Info}
	}
	return resp, nil
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, nome, cpf, senha string) error {
	_, err := c.call(ctx, "usuario_criar", map[string]any{"nome": nome, "cpf": cpf, "senha": senha}, false)
	return err
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, cpf, senha string) (string, error) {
	resp, err := c.call(ctx, "usuario_login", map[string]any{"cpf": cpf, "senha": senha}, false)
	if err != nil {
		return "", err
	}
	var dados struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&dados); err != nil {
		return "", err
	}
	c.SetToken(dados.Token)
	return dados.Token, nil
}

// Logout ends the current session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.call(ctx, "usuario_logout", nil, true); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ReadUser returns the logged-in account.
func (c *Client) ReadUser(ctx context.Context) (*User, error) {
	resp, err := c.call(ctx, "usuario_ler", nil, true)
	if err != nil {
		return nil, err
	}
	var dados struct {
		Usuario User `json:"usuario"`
	}
	if err := resp.Decode(&dados); err != nil {
		return nil, err
	}
	return &dados.Usuario, nil
}

// UpdateUser changes the name and/or secret. Empty arguments are left out.
func (c *Client) UpdateUser(ctx context.Context, nome, senha string) error {
	usuario := map[string]any{}
	if nome != "" {
		usuario["nome"] = nome
	}
	if senha != "" {
		usuario["senha"] = senha
	}
	_, err := c.call(ctx, "usuario_atualizar", map[string]any{"usuario": usuario}, true)
	return err
}

// Transfer sends valor to cpfDestino and returns the transaction id.
func (c *Client) Transfer(ctx context.Context, cpfDestino string, valor decimal.Decimal) (int64, error) {
	resp, err := c.call(ctx, "transacao_criar", map[string]any{"cpf_destino": cpfDestino, "valor": valor}, true)
	if err != nil {
		return 0, err
	}
	var dados struct {
		ID int64 `json:"id"`
	}
	if err := resp.Decode(&dados); err != nil {
		return 0, err
	}
	return dados.ID, nil
}

// Deposit adds valor to the logged-in account and returns the new balance.
func (c *Client) Deposit(ctx context.Context, valor decimal.Decimal) (decimal.Decimal, error) {
	resp, err := c.call(ctx, "depositar", map[string]any{"valor_enviado": valor}, true)
	if err != nil {
		return decimal.Zero, err
	}
	var dados struct {
		NovoSaldo decimal.Decimal `json:"novo_saldo"`
	}
	if err := resp.Decode(&dados); err != nil {
		return decimal.Zero, err
	}
	return dados.NovoSaldo, nil
}

// ListTransactions returns the logged-in account's transactions, newest first. Empty
// bounds are not sent.
func (c *Client) ListTransactions(ctx context.Context, dataInicial, dataFinal string) ([]Transaction, error) {
	fields := map[string]any{}
	if dataInicial != "" {
		fields["data_inicial"] = dataInicial
	}
	if dataFinal != "" {
		fields["data_final"] = dataFinal
	}
	resp, err := c.call(ctx, "transacao_ler", fields, true)
	if err != nil {
		return nil, err
	}
	var dados struct {
		Transacoes []Transaction `json:"transacoes"`
	}
	if err := resp.Decode(&dados); err != nil {
		return nil, err
	}
	return dados.Transacoes, nil
}
