package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string
type TransactionStatus string
type TransactionMode string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"

	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"

	TransactionModePurchase TransactionMode = "purchase"
	TransactionModeRenewal  TransactionMode = "renewal"
)

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(s) {
	case SubscriptionStatusPending, SubscriptionStatusActive,
		SubscriptionStatusExpired, SubscriptionStatusCancelled:
		return SubscriptionStatus(s), nil
	}
	return "", fmt.Errorf("unknown subscription status %q", s)
}

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch TransactionStatus(s) {
	case TransactionStatusPending, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusCancelled:
		return TransactionStatus(s), nil
	}
	return "", fmt.Errorf("unknown transaction status %q", s)
}

// CanTransitionTo enforces the monotonic transaction lifecycle:
// pending -> {completed, failed, cancelled}, never backwards.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s != TransactionStatusPending {
		return false
	}
	switch next {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// ActorProfile records who initiated a transaction, on behalf of whom.
type ActorProfile struct {
	UserId  uuid.UUID `json:"user_id"`
	Role    string    `json:"role"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Context string    `json:"context,omitempty"`
}

// Transaction is an append-only sub-record of a Subscription. Once created
// it only moves status forward. GatewayOrderId is unique system-wide and
// doubles as the idempotency key for webhook replay.
type Transaction struct {
	Id               uuid.UUID
	SubscriptionId   uuid.UUID
	Amount           int64
	Currency         string
	Status           TransactionStatus
	Mode             TransactionMode
	InitiatedBy      ActorProfile
	GatewayOrderId   string
	GatewayPaymentId *string
	PaymentDate      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AutoRenewSettings carries the user's renewal preference for an active
// subscription.
type AutoRenewSettings struct {
	Enabled      bool   `json:"enabled"`
	ReminderDays int    `json:"reminder_days,omitempty"`
	Channel      string `json:"channel,omitempty"`
}

// Subscription is one evolving entitlement document per user. Historical
// records are retained, never hard-deleted. A nil EndDate means the
// subscription does not expire.
type Subscription struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	PlanID            PlanID
	PlanName          string
	Amount            int64
	Status            SubscriptionStatus
	StartDate         *time.Time
	EndDate           *time.Time
	FeatureSet        FeatureSet
	Transactions      []Transaction
	RenewalCount      int
	PurchasedBy       *ActorProfile
	LastRenewedBy     *ActorProfile
	AutoRenew         bool
	AutoRenewSettings AutoRenewSettings
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EffectiveStatus evaluates expiry lazily: an active subscription whose
// EndDate has passed reads as expired. There is no background sweep.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s.Status == SubscriptionStatusActive && s.EndDate != nil && !s.EndDate.After(now) {
		return SubscriptionStatusExpired
	}
	return s.Status
}

// IsEffective reports whether this is the user's authoritative
// subscription at the given instant.
func (s *Subscription) IsEffective(now time.Time) bool {
	return s.EffectiveStatus(now) == SubscriptionStatusActive
}

// FindTransactionByOrderID returns the transaction carrying the gateway
// order id, or nil.
func (s *Subscription) FindTransactionByOrderID(orderID string) *Transaction {
	for i := range s.Transactions {
		if s.Transactions[i].GatewayOrderId == orderID {
			return &s.Transactions[i]
		}
	}
	return nil
}
