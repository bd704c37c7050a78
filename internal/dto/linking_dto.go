package dto

import (
	"time"

	"github.com/google/uuid"
)

// LinkResult statuses. PaymentRequired and AlreadyLinked are normal
// outcomes, not errors; the caller may retry safely.
const (
	LinkStatusLinked          = "linked"
	LinkStatusAlreadyLinked   = "already_linked"
	LinkStatusPaymentRequired = "payment_required"
)

type LinkChildRequest struct {
	ChildId uuid.UUID     `json:"child_id" validate:"required"`
	Proof   *PaymentProof `json:"proof,omitempty"`
}

// PaymentProof is the client's evidence that it completed the gateway
// payment opened for a paid link.
type PaymentProof struct {
	OrderId   string `json:"order_id" validate:"required"`
	PaymentId string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type LinkResult struct {
	Status string `json:"status"`
	// Amount is set when Status is payment_required: the exact price the
	// client must collect before retrying with proof.
	Amount   int64  `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	// OrderId is the gateway order opened for a payment_required result.
	OrderId      string     `json:"order_id,omitempty"`
	GatewayKeyId string     `json:"gateway_key_id,omitempty"`
	ParentId     uuid.UUID  `json:"parent_id,omitempty"`
	ChildId      uuid.UUID  `json:"child_id,omitempty"`
	ChildPlanId  string     `json:"child_plan_id,omitempty"`
	ChildEndDate *time.Time `json:"child_end_date,omitempty"`
}
