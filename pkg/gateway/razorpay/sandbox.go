package razorpay

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"wise-student-be/internal/repository/memory"
)

// Sandbox mode issues clearly tagged mock orders for non-production use.
// Orders are held in an in-memory store so FetchPayment can answer for
// them deterministically: a sandbox payment id reads back as captured.

func (c *Client) createSandboxOrder(amount int64, currency string, notes map[string]string) *Order {
	id := fmt.Sprintf("sandbox_order_%s", uuid.New().String())
	paymentID := fmt.Sprintf("sandbox_pay_%s", uuid.New().String())
	c.sandbox.Save(&memory.SandboxOrder{
		OrderID:   id,
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  currency,
		Status:    PaymentStatusCaptured,
		Notes:     notes,
		CreatedAt: time.Now(),
	})
	return &Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Notes:    notes,
		Raw: map[string]interface{}{
			"id":         id,
			"payment_id": paymentID,
			"sandbox":    true,
		},
	}
}

func (c *Client) fetchSandboxOrder(orderID string) *Order {
	order, found := c.sandbox.Get(orderID)
	if !found {
		return nil
	}
	return &Order{
		ID:       order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Notes:    order.Notes,
		Raw: map[string]interface{}{
			"id":         order.OrderID,
			"payment_id": order.PaymentID,
			"sandbox":    true,
		},
	}
}

func (c *Client) fetchSandboxPayment(paymentID string) (*PaymentStatus, error) {
	order, found := c.sandbox.Get(paymentID)
	if !found {
		return &PaymentStatus{Status: PaymentStatusFailed}, nil
	}
	return &PaymentStatus{
		Status: order.Status,
		Method: "sandbox",
	}, nil
}
