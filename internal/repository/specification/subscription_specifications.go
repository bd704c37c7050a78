package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wise-student-be/internal/entity"
)

// OwnedBy filters subscriptions (or any user-scoped rows) by owner.
type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// WithStatus filters by subscription status.
type WithStatus struct {
	Status entity.SubscriptionStatus
}

func (s WithStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

// ByGatewayOrderID filters transactions by their globally unique gateway
// order id.
type ByGatewayOrderID struct {
	OrderID string
}

func (s ByGatewayOrderID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("gateway_order_id = ?", s.OrderID)
}

// NotExpiredAt keeps subscriptions whose end date is open or in the
// future relative to the given instant.
type NotExpiredAt struct {
	Now time.Time
}

func (s NotExpiredAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("end_date IS NULL OR end_date > ?", s.Now)
}
