package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SUBSCRIPTION_ACTIVATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation used throughout the core.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes emitted by the entitlement core. Delivery is
// fire-and-forget; consumers must tolerate duplicates.
const (
	TypeSubscriptionActivated = "SUBSCRIPTION_ACTIVATED"
	TypeSubscriptionRenewed   = "SUBSCRIPTION_RENEWED"
	TypeSubscriptionCancelled = "SUBSCRIPTION_CANCELLED"
	TypeChildLinked           = "CHILD_LINKED"
	TypeParentLinked          = "PARENT_LINKED"
	TypePaymentFailed         = "PAYMENT_FAILED"
)

func SubscriptionActivated(userID, subscriptionID uuid.UUID, planID string, renewal bool) BaseEvent {
	typ := TypeSubscriptionActivated
	if renewal {
		typ = TypeSubscriptionRenewed
	}
	return BaseEvent{
		Type: typ,
		Data: map[string]interface{}{
			"user_id":         userID,
			"subscription_id": subscriptionID,
			"plan_id":         planID,
		},
		OccurredAt: time.Now(),
	}
}

func SubscriptionCancelled(userID, subscriptionID uuid.UUID, planID string) BaseEvent {
	return BaseEvent{
		Type: TypeSubscriptionCancelled,
		Data: map[string]interface{}{
			"user_id":         userID,
			"subscription_id": subscriptionID,
			"plan_id":         planID,
		},
		OccurredAt: time.Now(),
	}
}

func ChildLinked(parentID, childID uuid.UUID, planID string) BaseEvent {
	return BaseEvent{
		Type: TypeChildLinked,
		Data: map[string]interface{}{
			"parent_id": parentID,
			"child_id":  childID,
			"plan_id":   planID,
		},
		OccurredAt: time.Now(),
	}
}

func ParentLinked(parentID, childID uuid.UUID) BaseEvent {
	return BaseEvent{
		Type: TypeParentLinked,
		Data: map[string]interface{}{
			"parent_id": parentID,
			"child_id":  childID,
		},
		OccurredAt: time.Now(),
	}
}

func PaymentFailed(userID uuid.UUID, orderID string) BaseEvent {
	return BaseEvent{
		Type: TypePaymentFailed,
		Data: map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		},
		OccurredAt: time.Now(),
	}
}
