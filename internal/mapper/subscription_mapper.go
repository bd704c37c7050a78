package mapper

import (
	"gorm.io/datatypes"

	"wise-student-be/internal/entity"
	"wise-student-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:                s.Id,
		UserId:            s.UserId,
		PlanID:            entity.PlanID(s.PlanId),
		PlanName:          s.PlanName,
		Amount:            s.Amount,
		Status:            entity.SubscriptionStatus(s.Status),
		StartDate:         s.StartDate,
		EndDate:           s.EndDate,
		FeatureSet:        s.FeatureSet.Data(),
		RenewalCount:      s.RenewalCount,
		PurchasedBy:       s.PurchasedBy.Data(),
		LastRenewedBy:     s.LastRenewedBy.Data(),
		AutoRenew:         s.AutoRenew,
		AutoRenewSettings: s.AutoRenewSettings.Data(),
		CancelledAt:       s.CancelledAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		Transactions:      m.transactionsToEntities(s.Transactions),
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:                s.Id,
		UserId:            s.UserId,
		PlanId:            string(s.PlanID),
		PlanName:          s.PlanName,
		Amount:            s.Amount,
		Status:            string(s.Status),
		StartDate:         s.StartDate,
		EndDate:           s.EndDate,
		FeatureSet:        datatypes.NewJSONType(s.FeatureSet),
		RenewalCount:      s.RenewalCount,
		PurchasedBy:       datatypes.NewJSONType(s.PurchasedBy),
		LastRenewedBy:     datatypes.NewJSONType(s.LastRenewedBy),
		AutoRenew:         s.AutoRenew,
		AutoRenewSettings: datatypes.NewJSONType(s.AutoRenewSettings),
		CancelledAt:       s.CancelledAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) TransactionToEntity(t *model.SubscriptionTransaction) *entity.Transaction {
	if t == nil {
		return nil
	}
	return &entity.Transaction{
		Id:               t.Id,
		SubscriptionId:   t.SubscriptionId,
		Amount:           t.Amount,
		Currency:         t.Currency,
		Status:           entity.TransactionStatus(t.Status),
		Mode:             entity.TransactionMode(t.Mode),
		InitiatedBy:      t.InitiatedBy.Data(),
		GatewayOrderId:   t.GatewayOrderId,
		GatewayPaymentId: t.GatewayPaymentId,
		PaymentDate:      t.PaymentDate,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (m *SubscriptionMapper) TransactionToModel(t *entity.Transaction) *model.SubscriptionTransaction {
	if t == nil {
		return nil
	}
	return &model.SubscriptionTransaction{
		Id:               t.Id,
		SubscriptionId:   t.SubscriptionId,
		Amount:           t.Amount,
		Currency:         t.Currency,
		Status:           string(t.Status),
		Mode:             string(t.Mode),
		InitiatedBy:      datatypes.NewJSONType(t.InitiatedBy),
		GatewayOrderId:   t.GatewayOrderId,
		GatewayPaymentId: t.GatewayPaymentId,
		PaymentDate:      t.PaymentDate,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (m *SubscriptionMapper) transactionsToEntities(models []*model.SubscriptionTransaction) []entity.Transaction {
	if models == nil {
		return nil
	}
	entities := make([]entity.Transaction, 0, len(models))
	for _, t := range models {
		if e := m.TransactionToEntity(t); e != nil {
			entities = append(entities, *e)
		}
	}
	return entities
}
