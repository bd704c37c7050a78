package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTransactionStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{name: "pending to completed", from: TransactionStatusPending, to: TransactionStatusCompleted, want: true},
		{name: "pending to failed", from: TransactionStatusPending, to: TransactionStatusFailed, want: true},
		{name: "pending to cancelled", from: TransactionStatusPending, to: TransactionStatusCancelled, want: true},
		{name: "completed never reverses", from: TransactionStatusCompleted, to: TransactionStatusFailed, want: false},
		{name: "completed stays completed", from: TransactionStatusCompleted, to: TransactionStatusCompleted, want: false},
		{name: "failed is final", from: TransactionStatusFailed, to: TransactionStatusCompleted, want: false},
		{name: "cancelled is final", from: TransactionStatusCancelled, to: TransactionStatusPending, want: false},
		{name: "pending to pending", from: TransactionStatusPending, to: TransactionStatusPending, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestEffectiveStatusLazyExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		status  SubscriptionStatus
		endDate *time.Time
		want    SubscriptionStatus
	}{
		{name: "active with future end stays active", status: SubscriptionStatusActive, endDate: &future, want: SubscriptionStatusActive},
		{name: "active with past end reads expired", status: SubscriptionStatusActive, endDate: &past, want: SubscriptionStatusExpired},
		{name: "active without end never expires", status: SubscriptionStatusActive, endDate: nil, want: SubscriptionStatusActive},
		{name: "cancelled stays cancelled", status: SubscriptionStatusCancelled, endDate: &past, want: SubscriptionStatusCancelled},
		{name: "pending unaffected by end date", status: SubscriptionStatusPending, endDate: &past, want: SubscriptionStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subscription{Status: tt.status, EndDate: tt.endDate}
			if got := sub.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFindTransactionByOrderID(t *testing.T) {
	sub := Subscription{
		Transactions: []Transaction{
			{Id: uuid.New(), GatewayOrderId: "order_a"},
			{Id: uuid.New(), GatewayOrderId: "order_b"},
		},
	}

	if got := sub.FindTransactionByOrderID("order_b"); got == nil || got.GatewayOrderId != "order_b" {
		t.Errorf("expected order_b transaction, got %+v", got)
	}
	if got := sub.FindTransactionByOrderID("order_x"); got != nil {
		t.Errorf("expected nil for unknown order, got %+v", got)
	}
}

func TestFeatureSetAllows(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		current int
		want    bool
	}{
		{name: "below limit", limit: 4, current: 3, want: true},
		{name: "at limit", limit: 4, current: 4, want: false},
		{name: "zero limit", limit: 0, current: 0, want: false},
		{name: "unlimited", limit: Unlimited, current: 1000, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := FeatureSet{}
			if got := fs.Allows(tt.limit, tt.current); got != tt.want {
				t.Errorf("Allows(%d, %d) = %v, want %v", tt.limit, tt.current, got, tt.want)
			}
		})
	}
}
