// Package paystack is a small client for the Paystack transaction API:
// initialize a checkout and verify a reference. Amounts on the wire are
// integer minor units (pesewas, kobo).
package paystack

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/wellness360/config"
	wellhttp "github.com/shashiranjanraj/wellness360/pkg/http"
)

// StatusSuccess is the transaction status of a settled payment.
const StatusSuccess = "success"

var hundred = decimal.NewFromInt(100)

// Error is a gateway-reported failure: a non-2xx response or status:false.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("paystack: %s (http %d)", e.Message, e.StatusCode)
}

// ErrNotConfigured is returned when PAYSTACK_SECRET_KEY is empty.
var ErrNotConfigured = errors.New("paystack: secret key not configured")

// Client calls the Paystack API.
type Client struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	Attempts  int
}

// NewFromConfig reads PAYSTACK_* settings.
func NewFromConfig() *Client {
	return &Client{
		BaseURL:   config.PaystackBaseURL(),
		SecretKey: config.PaystackSecretKey(),
		Timeout:   30 * time.Second,
		Attempts:  config.Int("PAYSTACK_ATTEMPTS", 1),
	}
}

// InitializeRequest starts a transaction. Amount is in minor units.
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the verify payload. Amount is in minor units.
type Transaction struct {
	ID              int64    `json:"id"`
	Status          string   `json:"status"`
	Reference       string   `json:"reference"`
	Amount          int64    `json:"amount"`
	Currency        string   `json:"currency"`
	Channel         string   `json:"channel"`
	PaidAt          string   `json:"paid_at"`
	GatewayResponse string   `json:"gateway_response"`
	Customer        Customer `json:"customer"`
}

type Customer struct {
	Email string `json:"email"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Initialize calls POST /transaction/initialize.
func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (*Authorization, error) {
	if c.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	resp, err := c.request(wellhttp.Post(c.endpoint("/transaction/initialize")).Body(in)).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("paystack: initialize: %w", err)
	}
	var env envelope[Authorization]
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Verify calls GET /transaction/verify/{reference}.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	if c.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	u := c.endpoint("/transaction/verify/" + url.PathEscape(reference))
	resp, err := c.request(wellhttp.Get(u)).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("paystack: verify: %w", err)
	}
	var env envelope[Transaction]
	if err := decode(resp, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) request(r *wellhttp.Request) *wellhttp.Request {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return r.Bearer(c.SecretKey).Timeout(timeout).Retry(attempts, 500*time.Millisecond)
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func decode[T any](resp *wellhttp.Response, env *envelope[T]) error {
	if err := resp.JSON(env); err != nil {
		if !resp.OK() {
			return &Error{StatusCode: resp.StatusCode, Message: "unexpected gateway response"}
		}
		return fmt.Errorf("paystack: %w", err)
	}
	if !resp.OK() || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// ToMajor converts minor units to a two-decimal major amount.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred).Round(2)
}

// ToMinor converts a major amount to minor units, rounding half away
// from zero.
func ToMinor(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}
