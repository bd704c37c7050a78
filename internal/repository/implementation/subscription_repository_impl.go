package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wise-student-be/internal/apperrors"
	"wise-student-be/internal/entity"
	"wise-student-be/internal/mapper"
	"wise-student-be/internal/model"
	"wise-student-be/internal/repository/contract"
	"wise-student-be/internal/repository/specification"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *entity.Subscription) error {
	m := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*sub = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *entity.Subscription) error {
	m := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var m model.Subscription
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	query = query.Preload("Transactions")
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var models []*model.Subscription
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	query = query.Preload("Transactions")
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Subscription, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) FindEffective(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Subscription, error) {
	return r.FindOne(ctx,
		specification.OwnedBy{UserID: userID},
		specification.WithStatus{Status: entity.SubscriptionStatusActive},
		specification.NotExpiredAt{Now: now},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

func (r *SubscriptionRepositoryImpl) AppendTransaction(ctx context.Context, txn *entity.Transaction) error {
	// Global uniqueness of the gateway order id, across every
	// subscription. The unique index is the backstop for races.
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SubscriptionTransaction{}).
		Where("gateway_order_id = ?", txn.GatewayOrderId).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrDuplicateOrder
	}

	m := r.mapper.TransactionToModel(txn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*txn = *r.mapper.TransactionToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindTransactionByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error) {
	var m model.SubscriptionTransaction
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", orderID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.TransactionToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) CompleteTransactionCAS(ctx context.Context, txnID uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.SubscriptionTransaction{}).
		Where("id = ? AND status = ?", txnID, string(entity.TransactionStatusPending)).
		Updates(map[string]interface{}{
			"status":             string(entity.TransactionStatusCompleted),
			"gateway_payment_id": paymentID,
			"payment_date":       paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SubscriptionRepositoryImpl) UpdateTransactionStatus(ctx context.Context, txnID uuid.UUID, next entity.TransactionStatus) error {
	if !entity.TransactionStatusPending.CanTransitionTo(next) {
		return apperrors.ErrTransactionFinal
	}
	res := r.db.WithContext(ctx).Model(&model.SubscriptionTransaction{}).
		Where("id = ? AND status = ?", txnID, string(entity.TransactionStatusPending)).
		Update("status", string(next))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionFinal
	}
	return nil
}
