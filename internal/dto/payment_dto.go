package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanResponse struct {
	PlanId      string `json:"plan_id"`
	DisplayName string `json:"display_name"`
	Price       int64  `json:"price"`
	Purchasable bool   `json:"purchasable"`
	Features    FeatureSetDTO `json:"features"`
}

type FeatureSetDTO struct {
	GamesPerPillar    int  `json:"games_per_pillar"`
	MaxLinkedChildren int  `json:"max_linked_children"`
	ParentDashboard   bool `json:"parent_dashboard"`
	ProgressReports   bool `json:"progress_reports"`
	AssignmentGrading bool `json:"assignment_grading"`
	Announcements     bool `json:"announcements"`
}

type CreateOrderRequest struct {
	PlanId string `json:"plan_id" validate:"required"`
	Mode   string `json:"mode" validate:"omitempty,oneof=purchase renewal"`
}

type CreateOrderResponse struct {
	SubscriptionId uuid.UUID `json:"subscription_id"`
	OrderId        string    `json:"order_id,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency,omitempty"`
	GatewayKeyId   string    `json:"gateway_key_id,omitempty"`
	// Activated is true when the plan is free and no payment round-trip
	// was needed.
	Activated bool `json:"activated"`
}

type ConfirmPaymentRequest struct {
	SubscriptionId uuid.UUID `json:"subscription_id" validate:"required"`
	OrderId        string    `json:"order_id" validate:"required"`
	PaymentId      string    `json:"payment_id" validate:"required"`
	Signature      string    `json:"signature" validate:"required"`
}

type ConfirmPaymentResponse struct {
	SubscriptionId uuid.UUID  `json:"subscription_id"`
	Status         string     `json:"status"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	RenewalCount   int        `json:"renewal_count"`
	// Replayed is true when the confirmation had already been applied
	// and this call was an idempotent no-op.
	Replayed bool `json:"replayed"`
}

type CancelOrderRequest struct {
	OrderId string `json:"order_id" validate:"required"`
}

// WebhookEvent is the processor's asynchronous notification payload.
// Authenticity is checked over the raw body before this is parsed.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				Id      string `json:"id"`
				OrderId string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
