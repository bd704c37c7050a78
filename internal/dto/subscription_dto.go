package dto

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatusResponse is the outward view of a user's effective
// subscription. When no active subscription exists the handler returns a
// display-only free-plan value; nothing synthetic is persisted.
type SubscriptionStatusResponse struct {
	SubscriptionId *uuid.UUID    `json:"subscription_id,omitempty"`
	PlanId         string        `json:"plan_id"`
	PlanName       string        `json:"plan_name"`
	Status         string        `json:"status"`
	StartDate      *time.Time    `json:"start_date,omitempty"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	RenewalCount   int           `json:"renewal_count"`
	AutoRenew      bool          `json:"auto_renew"`
	IsActive       bool          `json:"is_active"`
	Features       FeatureSetDTO `json:"features"`
}

type TransactionDTO struct {
	Id               uuid.UUID  `json:"id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	Mode             string     `json:"mode"`
	GatewayOrderId   string     `json:"gateway_order_id"`
	GatewayPaymentId *string    `json:"gateway_payment_id,omitempty"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
