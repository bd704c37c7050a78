package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wise-student-be/internal/entity"
)

type Subscription struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId            string    `gorm:"type:varchar(64);not null"`
	PlanName          string    `gorm:"type:varchar(255);not null"`
	Amount            int64     `gorm:"not null;default:0"`
	Status            string    `gorm:"type:varchar(32);not null;index"`
	StartDate         *time.Time
	EndDate           *time.Time
	FeatureSet        datatypes.JSONType[entity.FeatureSet]
	RenewalCount      int `gorm:"not null;default:0"`
	PurchasedBy       datatypes.JSONType[*entity.ActorProfile]
	LastRenewedBy     datatypes.JSONType[*entity.ActorProfile]
	AutoRenew         bool `gorm:"not null;default:false"`
	AutoRenewSettings datatypes.JSONType[entity.AutoRenewSettings]
	CancelledAt       *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	// Relations
	Transactions []*SubscriptionTransaction `gorm:"foreignKey:SubscriptionId"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type SubscriptionTransaction struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	SubscriptionId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount           int64     `gorm:"not null"`
	Currency         string    `gorm:"type:varchar(8);not null"`
	Status           string    `gorm:"type:varchar(32);not null"`
	Mode             string    `gorm:"type:varchar(32);not null"`
	InitiatedBy      datatypes.JSONType[entity.ActorProfile]
	GatewayOrderId   string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	GatewayPaymentId *string `gorm:"type:varchar(255)"`
	PaymentDate      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (SubscriptionTransaction) TableName() string {
	return "subscription_transactions"
}
