// Package razorpay wraps the Razorpay SDK behind a small Gateway
// interface so the services never touch SDK response maps directly.
package razorpay

import (
	"context"
	"fmt"
	"time"

	razorpaysdk "github.com/razorpay/razorpay-go"

	"wise-student-be/internal/apperrors"
	"wise-student-be/internal/repository/memory"
)

// Payment states reported by the processor. Only captured and authorized
// count as completed payment.
const (
	PaymentStatusCaptured   = "captured"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusFailed     = "failed"
	PaymentStatusPending    = "pending"
	PaymentStatusCreated    = "created"
)

const callTimeout = 10 * time.Second

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Notes    map[string]string
	Raw      map[string]interface{}
}

type PaymentStatus struct {
	Status     string
	Method     string
	ReceiptURL string
}

// Completed reports whether the payment reached a state that releases
// entitlements.
func (p *PaymentStatus) Completed() bool {
	return p.Status == PaymentStatusCaptured || p.Status == PaymentStatusAuthorized
}

type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency string, notes map[string]string) (*Order, error)
	// FetchOrder reads an order back from the processor. A nil order
	// with nil error means the processor does not know the id.
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*PaymentStatus, error)
}

type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	// Mode "sandbox" swaps network calls for deterministic mock orders.
	// Anything else is production behavior.
	Mode string
}

func (c Config) sandbox() bool {
	return c.Mode == "sandbox"
}

type Client struct {
	cfg     Config
	sdk     *razorpaysdk.Client
	sandbox *memory.SandboxOrderRepository
}

// NewClient fails fast on missing credentials so "not configured" is a
// constructor-time decision, not a per-call discovery. Sandbox mode only
// needs the secrets for signature verification.
func NewClient(cfg Config) (*Client, error) {
	if cfg.KeySecret == "" || (!cfg.sandbox() && cfg.KeyID == "") {
		return nil, apperrors.ErrGatewayUnavailable
	}
	c := &Client{cfg: cfg}
	if cfg.sandbox() {
		c.sandbox = memory.NewSandboxOrderRepository()
	} else {
		c.sdk = razorpaysdk.NewClient(cfg.KeyID, cfg.KeySecret)
	}
	return c, nil
}

// KeyID exposes the public key for client-side checkout initialization.
func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

func (c *Client) CreateOrder(ctx context.Context, amount int64, currency string, notes map[string]string) (*Order, error) {
	if c.cfg.sandbox() {
		return c.createSandboxOrder(amount, currency, notes), nil
	}

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
	}
	if len(notes) > 0 {
		n := make(map[string]interface{}, len(notes))
		for k, v := range notes {
			n[k] = v
		}
		data["notes"] = n
	}

	raw, err := c.callWithTimeout(ctx, func() (map[string]interface{}, error) {
		return c.sdk.Order.Create(data, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("gateway order create: %w", err)
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("gateway order create: response missing order id")
	}
	return &Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Notes:    notes,
		Raw:      raw,
	}, nil
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if c.cfg.sandbox() {
		return c.fetchSandboxOrder(orderID), nil
	}

	raw, err := c.callWithTimeout(ctx, func() (map[string]interface{}, error) {
		return c.sdk.Order.Fetch(orderID, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("gateway order fetch: %w", err)
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, nil
	}
	amount, _ := raw["amount"].(float64)
	currency, _ := raw["currency"].(string)
	notes := map[string]string{}
	if rawNotes, ok := raw["notes"].(map[string]interface{}); ok {
		for k, v := range rawNotes {
			if s, ok := v.(string); ok {
				notes[k] = s
			}
		}
	}
	return &Order{
		ID:       id,
		Amount:   int64(amount),
		Currency: currency,
		Notes:    notes,
		Raw:      raw,
	}, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*PaymentStatus, error) {
	if c.cfg.sandbox() {
		return c.fetchSandboxPayment(paymentID)
	}

	raw, err := c.callWithTimeout(ctx, func() (map[string]interface{}, error) {
		return c.sdk.Payment.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		// Transient failure is retryable; it never means failed payment.
		return nil, fmt.Errorf("gateway payment fetch: %w", err)
	}

	status, _ := raw["status"].(string)
	method, _ := raw["method"].(string)
	receipt, _ := raw["invoice_id"].(string)
	return &PaymentStatus{
		Status:     status,
		Method:     method,
		ReceiptURL: receipt,
	}, nil
}

// callWithTimeout bounds an SDK call that takes no context. The SDK call
// keeps running on timeout, but the caller gets a retryable error and no
// state was mutated.
func (c *Client) callWithTimeout(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	type result struct {
		raw map[string]interface{}
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := fn()
		ch <- result{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.raw, res.err
	}
}
