package service

import (
	"context"
	"encoding/json"
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

// IReconciliationService moves money-state into entitlement-state. It is
// the only component allowed to flip a subscription to active, whether
// the trigger is the client's confirm call or the gateway's webhook.
type IReconciliationService interface {
	ConfirmPayment(ctx context.Context, userId uuid.UUID, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

type reconciliationService struct {
	uowFactory     unitofwork.RepositoryFactory
	gateway        razorpay.Gateway
	verifier       IPaymentVerifier
	linkingService ILinkingService
	publisher      IPublisherService
	logger         logger.ILogger
}

func NewReconciliationService(
	uowFactory unitofwork.RepositoryFactory,
	gateway razorpay.Gateway,
	verifier IPaymentVerifier,
	linkingService ILinkingService,
	publisher IPublisherService,
	log logger.ILogger,
) IReconciliationService {
	return &reconciliationService{
		uowFactory:     uowFactory,
		gateway:        gateway,
		verifier:       verifier,
		linkingService: linkingService,
		publisher:      publisher,
		logger:         log,
	}
}

func (s *reconciliationService) ConfirmPayment(ctx context.Context, userId uuid.UUID, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: req.SubscriptionId})
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.UserId != userId {
		return nil, apperrors.ErrSubscriptionNotFound
	}

	// Proof check comes before any state is touched. A forged or
	// uncaptured payment must fail here, leaving the pending records
	// exactly as they were.
	if err := s.verifier.VerifyProof(ctx, req.OrderId, req.PaymentId, req.Signature); err != nil {
		return nil, err
	}

	txn := sub.FindTransactionByOrderID(req.OrderId)
	if txn == nil {
		return nil, apperrors.ErrTransactionNotFound
	}

	switch txn.Status {
	case entity.TransactionStatusCompleted:
		// Replay of an already-applied confirmation. Same payment id
		// means the same event arrived twice; report current state and
		// change nothing.
		if txn.GatewayPaymentId != nil && *txn.GatewayPaymentId == req.PaymentId {
			return s.replayResponse(sub), nil
		}
		return nil, apperrors.ErrDuplicateOrder
	case entity.TransactionStatusPending:
		// proceed
	default:
		return nil, apperrors.ErrTransactionFinal
	}

	updated, won, err := s.activate(ctx, sub, txn, req.PaymentId)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent confirmer beat us to the pending->completed
		// transition. Re-read and report the state it produced.
		fresh, err := s.uowFactory.NewUnitOfWork(ctx).SubscriptionRepository().
			FindOne(ctx, specification.ByID{ID: sub.Id})
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return s.replayResponse(fresh), nil
	}

	s.afterActivation(ctx, updated, txn)

	return &dto.ConfirmPaymentResponse{
		SubscriptionId: updated.Id,
		Status:         string(updated.Status),
		EndDate:        updated.EndDate,
		RenewalCount:   updated.RenewalCount,
		Replayed:       false,
	}, nil
}

func (s *reconciliationService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return apperrors.ErrInvalidSignature
	}

	var evt dto.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}

	payment := evt.Payload.Payment.Entity

	switch evt.Event {
	case "payment.captured":
		return s.webhookCaptured(ctx, payment.OrderId, payment.Id)
	case "payment.failed":
		return s.webhookFailed(ctx, payment.OrderId)
	default:
		s.logger.Debug("Reconciliation", "Ignoring webhook event", map[string]interface{}{
			"event": evt.Event,
		})
		return nil
	}
}

func (s *reconciliationService) webhookCaptured(ctx context.Context, orderID, paymentID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	txn, err := uow.SubscriptionRepository().FindTransactionByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if txn == nil {
		return apperrors.ErrTransactionNotFound
	}
	if txn.Status != entity.TransactionStatusPending {
		// Stale redelivery; the transaction already reached a final
		// state and final states never reverse.
		s.logger.Info("Reconciliation", "Webhook replay ignored", map[string]interface{}{
			"order_id": orderID,
			"status":   txn.Status,
		})
		return nil
	}

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: txn.SubscriptionId})
	if err != nil {
		return err
	}
	if sub == nil {
		return apperrors.ErrSubscriptionNotFound
	}

	updated, won, err := s.activate(ctx, sub, txn, paymentID)
	if err != nil {
		return err
	}
	if won {
		s.afterActivation(ctx, updated, txn)
	}
	return nil
}

func (s *reconciliationService) webhookFailed(ctx context.Context, orderID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	txn, err := uow.SubscriptionRepository().FindTransactionByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if txn == nil {
		return apperrors.ErrTransactionNotFound
	}
	if txn.Status != entity.TransactionStatusPending {
		return nil
	}

	err = uow.SubscriptionRepository().UpdateTransactionStatus(ctx, txn.Id, entity.TransactionStatusFailed)
	if err == apperrors.ErrTransactionFinal {
		// Lost a race against a concurrent capture or cancel; whichever
		// transition won stands.
		return nil
	}
	if err != nil {
		return err
	}

	evt := events.PaymentFailed(txn.InitiatedBy.UserId, orderID)
	if pubErr := s.publisher.Publish(ctx, evt); pubErr != nil {
		s.logger.Warn("Reconciliation", "Failed to publish PAYMENT_FAILED", map[string]interface{}{
			"order_id": orderID,
			"error":    pubErr.Error(),
		})
	}
	return nil
}

// activate applies the atomic part of reconciliation: win the
// pending->completed race on the transaction, then bring the
// subscription to active with a fresh feature snapshot. Returns the
// updated subscription and whether this caller performed the
// transition.
func (s *reconciliationService) activate(ctx context.Context, sub *entity.Subscription, txn *entity.Transaction, paymentID string) (*entity.Subscription, bool, error) {
	now := time.Now()

	def, err := catalog.Resolve(sub.PlanID)
	if err != nil {
		return nil, false, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer uow.Rollback()

	won, err := uow.SubscriptionRepository().CompleteTransactionCAS(ctx, txn.Id, paymentID, now)
	if err != nil {
		return nil, false, err
	}
	if !won {
		return nil, false, nil
	}

	// A renewal extends from the current end date when it is still in
	// the future; confirming late never shortens what was already paid
	// for.
	base := now
	if sub.EndDate != nil && sub.EndDate.After(now) {
		base = *sub.EndDate
	}
	newEnd := base.AddDate(1, 0, 0)

	sub.Status = entity.SubscriptionStatusActive
	sub.EndDate = &newEnd
	sub.FeatureSet = def.FeatureSet
	sub.PlanName = def.DisplayName
	if sub.StartDate == nil {
		sub.StartDate = &now
	}
	actor := txn.InitiatedBy
	if txn.Mode == entity.TransactionModeRenewal {
		sub.RenewalCount++
		sub.LastRenewedBy = &actor
	} else if sub.PurchasedBy == nil {
		sub.PurchasedBy = &actor
	}

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, false, err
	}
	if err := uow.Commit(); err != nil {
		return nil, false, err
	}

	return sub, true, nil
}

// afterActivation runs the best-effort side of a successful
// reconciliation: propagating family entitlements to linked children
// and emitting the activation event. Neither failure rolls back the
// activation itself.
func (s *reconciliationService) afterActivation(ctx context.Context, sub *entity.Subscription, txn *entity.Transaction) {
	if sub.PlanID.IsFamilyTier() {
		if err := s.linkingService.PropagateEntitlement(ctx, sub); err != nil {
			s.logger.Warn("Reconciliation", "Entitlement propagation incomplete", map[string]interface{}{
				"subscription_id": sub.Id,
				"error":           err.Error(),
			})
		}
	}

	evt := events.SubscriptionActivated(sub.UserId, sub.Id, string(sub.PlanID), txn.Mode == entity.TransactionModeRenewal)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Reconciliation", "Failed to publish SUBSCRIPTION_ACTIVATED", map[string]interface{}{
			"subscription_id": sub.Id,
			"error":           err.Error(),
		})
	}
}

func (s *reconciliationService) replayResponse(sub *entity.Subscription) *dto.ConfirmPaymentResponse {
	return &dto.ConfirmPaymentResponse{
		SubscriptionId: sub.Id,
		Status:         string(sub.Status),
		EndDate:        sub.EndDate,
		RenewalCount:   sub.RenewalCount,
		Replayed:       true,
	}
}
