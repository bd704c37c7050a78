package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"wise-student-be/internal/apperrors"
	"wise-student-be/internal/catalog"
	"wise-student-be/internal/dto"
	"wise-student-be/internal/entity"
	"wise-student-be/internal/pkg/logger"
	"wise-student-be/internal/repository/specification"
	"wise-student-be/internal/repository/unitofwork"
	"wise-student-be/pkg/events"
	"wise-student-be/pkg/gateway/razorpay"
)

type IPaymentService interface {
	GetPlans(ctx context.Context) ([]*dto.PlanResponse, error)
	CreateOrder(ctx context.Context, userId uuid.UUID, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
	ListTransactions(ctx context.Context, userId uuid.UUID) ([]*dto.TransactionDTO, error)
	CancelSubscription(ctx context.Context, userId uuid.UUID) error
	CancelPendingOrder(ctx context.Context, userId uuid.UUID, orderID string) error
}

type paymentService struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    razorpay.Gateway
	publisher  IPublisherService
	currency   string
	logger     logger.ILogger
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	gateway razorpay.Gateway,
	publisher IPublisherService,
	currency string,
	log logger.ILogger,
) IPaymentService {
	return &paymentService{
		uowFactory: uowFactory,
		gateway:    gateway,
		publisher:  publisher,
		currency:   currency,
		logger:     log,
	}
}

func (s *paymentService) GetPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	var res []*dto.PlanResponse
	for _, def := range catalog.All() {
		res = append(res, &dto.PlanResponse{
			PlanId:      string(def.PlanID),
			DisplayName: def.DisplayName,
			Price:       def.Price,
			Purchasable: def.Purchasable,
			Features:    featureSetDTO(def.FeatureSet),
		})
	}
	return res, nil
}

func (s *paymentService) CreateOrder(ctx context.Context, userId uuid.UUID, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	def, err := catalog.AssertPurchasable(entity.PlanID(req.PlanId))
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	if req.Mode == string(entity.TransactionModeRenewal) {
		return s.createRenewalOrder(ctx, uow, user, def)
	}
	return s.createPurchaseOrder(ctx, uow, user, def)
}

func (s *paymentService) createPurchaseOrder(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, def *entity.PlanDefinition) (*dto.CreateOrderResponse, error) {
	now := time.Now()

	// The free plan is the default state of every account, never a
	// stored document. Selecting it is a no-op activation.
	if def.PlanID == entity.PlanFree {
		return &dto.CreateOrderResponse{Amount: 0, Activated: true}, nil
	}

	existing, err := uow.SubscriptionRepository().FindEffective(ctx, user.Id, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrSubscriptionExists
	}

	order, err := s.gateway.CreateOrder(ctx, def.Price, s.currency, map[string]string{
		"user_id": user.Id.String(),
		"plan_id": string(def.PlanID),
		"mode":    string(entity.TransactionModePurchase),
	})
	if err != nil {
		return nil, err
	}

	actor := user.Actor("self")
	sub := &entity.Subscription{
		Id:         uuid.New(),
		UserId:     user.Id,
		PlanID:     def.PlanID,
		PlanName:   def.DisplayName,
		Amount:     def.Price,
		Status:     entity.SubscriptionStatusPending,
		FeatureSet: def.FeatureSet,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	txn := &entity.Transaction{
		Id:             uuid.New(),
		SubscriptionId: sub.Id,
		Amount:         def.Price,
		Currency:       s.currency,
		Status:         entity.TransactionStatusPending,
		Mode:           entity.TransactionModePurchase,
		InitiatedBy:    actor,
		GatewayOrderId: order.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.SubscriptionRepository().AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		SubscriptionId: sub.Id,
		OrderId:        order.ID,
		Amount:         def.Price,
		Currency:       s.currency,
		GatewayKeyId:   s.gateway.KeyID(),
	}, nil
}

func (s *paymentService) createRenewalOrder(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, def *entity.PlanDefinition) (*dto.CreateOrderResponse, error) {
	now := time.Now()

	sub, err := uow.SubscriptionRepository().FindEffective(ctx, user.Id, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.ErrNoActiveSubscription
	}
	// A renewal extends the plan the user is on; switching plans goes
	// through a fresh purchase.
	if sub.PlanID != def.PlanID {
		return nil, apperrors.ErrInvalidPlan
	}

	order, err := s.gateway.CreateOrder(ctx, def.Price, s.currency, map[string]string{
		"user_id": user.Id.String(),
		"plan_id": string(def.PlanID),
		"mode":    string(entity.TransactionModeRenewal),
	})
	if err != nil {
		return nil, err
	}

	txn := &entity.Transaction{
		Id:             uuid.New(),
		SubscriptionId: sub.Id,
		Amount:         def.Price,
		Currency:       s.currency,
		Status:         entity.TransactionStatusPending,
		Mode:           entity.TransactionModeRenewal,
		InitiatedBy:    user.Actor("self"),
		GatewayOrderId: order.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uow.SubscriptionRepository().AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		SubscriptionId: sub.Id,
		OrderId:        order.ID,
		Amount:         def.Price,
		Currency:       s.currency,
		GatewayKeyId:   s.gateway.KeyID(),
	}, nil
}

func (s *paymentService) GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	now := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindEffective(ctx, userId, now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// Display-only fallback; nothing is persisted for free users.
		free, err := catalog.Resolve(entity.PlanFree)
		if err != nil {
			return nil, err
		}
		return &dto.SubscriptionStatusResponse{
			PlanId:   string(free.PlanID),
			PlanName: free.DisplayName,
			Status:   string(entity.SubscriptionStatusActive),
			IsActive: false,
			Features: featureSetDTO(free.FeatureSet),
		}, nil
	}

	status := sub.EffectiveStatus(now)
	id := sub.Id
	return &dto.SubscriptionStatusResponse{
		SubscriptionId: &id,
		PlanId:         string(sub.PlanID),
		PlanName:       sub.PlanName,
		Status:         string(status),
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		RenewalCount:   sub.RenewalCount,
		AutoRenew:      sub.AutoRenew,
		IsActive:       status == entity.SubscriptionStatusActive,
		Features:       featureSetDTO(sub.FeatureSet),
	}, nil
}

func (s *paymentService) ListTransactions(ctx context.Context, userId uuid.UUID) ([]*dto.TransactionDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	subs, err := uow.SubscriptionRepository().FindAll(ctx, specification.OwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}

	var res []*dto.TransactionDTO
	for _, sub := range subs {
		for i := range sub.Transactions {
			t := sub.Transactions[i]
			res = append(res, &dto.TransactionDTO{
				Id:               t.Id,
				Amount:           t.Amount,
				Currency:         t.Currency,
				Status:           string(t.Status),
				Mode:             string(t.Mode),
				GatewayOrderId:   t.GatewayOrderId,
				GatewayPaymentId: t.GatewayPaymentId,
				PaymentDate:      t.PaymentDate,
				CreatedAt:        t.CreatedAt,
			})
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *paymentService) CancelSubscription(ctx context.Context, userId uuid.UUID) error {
	now := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindEffective(ctx, userId, now)
	if err != nil {
		return err
	}
	if sub == nil {
		return apperrors.ErrNoActiveSubscription
	}

	sub.Status = entity.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.UpdatedAt = now
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return err
	}

	evt := events.SubscriptionCancelled(userId, sub.Id, string(sub.PlanID))
	if pubErr := s.publisher.Publish(ctx, evt); pubErr != nil {
		s.logger.Warn("Payment", "Failed to publish SUBSCRIPTION_CANCELLED", map[string]interface{}{
			"subscription_id": sub.Id,
			"error":           pubErr.Error(),
		})
	}
	return nil
}

// CancelPendingOrder abandons a checkout the user backed out of. Only
// pending transactions can be cancelled; everything final stays as is.
func (s *paymentService) CancelPendingOrder(ctx context.Context, userId uuid.UUID, orderID string) error {
	now := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	txn, err := uow.SubscriptionRepository().FindTransactionByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if txn == nil {
		return apperrors.ErrTransactionNotFound
	}

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: txn.SubscriptionId})
	if err != nil {
		return err
	}
	if sub == nil || sub.UserId != userId {
		return apperrors.ErrTransactionNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().UpdateTransactionStatus(ctx, txn.Id, entity.TransactionStatusCancelled); err != nil {
		return err
	}

	// A never-activated purchase shell is closed along with its only
	// transaction.
	if sub.Status == entity.SubscriptionStatusPending {
		sub.Status = entity.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.UpdatedAt = now
		if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
			return err
		}
	}
	return uow.Commit()
}

func featureSetDTO(fs entity.FeatureSet) dto.FeatureSetDTO {
	return dto.FeatureSetDTO{
		GamesPerPillar:    fs.GamesPerPillar,
		MaxLinkedChildren: fs.MaxLinkedChildren,
		ParentDashboard:   fs.ParentDashboard,
		ProgressReports:   fs.ProgressReports,
		AssignmentGrading: fs.AssignmentGrading,
		Announcements:     fs.Announcements,
	}
}
