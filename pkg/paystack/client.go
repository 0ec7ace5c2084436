// Package paystack is a minimal client for the Paystack transaction API.
// The portal only initiates hosted checkout sessions and verifies their
// outcome; everything else about the payment flow happens on Paystack's
// side.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the Paystack REST API.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient builds a Paystack client.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// InitializeRequest starts a hosted checkout session.
type InitializeRequest struct {
	Email       string `json:"email"`
	AmountKobo  int64  `json:"amount"`
	Reference   string `json:"reference,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// Transaction is the session descriptor consumed by the inline popup.
type Transaction struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult describes a transaction's settled state.
type VerifyResult struct {
	Status     string `json:"status"`
	Reference  string `json:"reference"`
	AmountKobo int64  `json:"amount"`
	PaidAt     string `json:"paid_at"`
	Channel    string `json:"channel"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a transaction and returns its access code.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Transaction, error) {
	var tx Transaction
	if err := c.post(ctx, "/transaction/initialize", req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Verify fetches the settled state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.get(ctx, "/transaction/verify/"+reference, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal paystack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request: %w", err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode paystack response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest || !env.Status {
		return fmt.Errorf("paystack: %s (status %d)", env.Message, res.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return fmt.Errorf("decode paystack data: %w", err)
		}
	}
	return nil
}
