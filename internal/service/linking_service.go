package service

import (
	"context"
	"fmt"
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

// ILinkingService coordinates parent-child account linking and the
// entitlement inheritance that comes with it.
type ILinkingService interface {
	// ComputeLinkCost is the pure pricing rule for attaching a child to
	// a family-tier parent. No I/O.
	ComputeLinkCost(parentPlan, childPlan entity.PlanID, firstChild bool) int64

	LinkChild(ctx context.Context, parentId uuid.UUID, req *dto.LinkChildRequest) (*dto.LinkResult, error)

	// PropagateEntitlement pushes a freshly activated or renewed
	// family-tier subscription down to already-linked children.
	// Best-effort per child; a failure on one child does not stop the
	// others.
	PropagateEntitlement(ctx context.Context, parentSub *entity.Subscription) error
}

type linkingService struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    razorpay.Gateway
	verifier   IPaymentVerifier
	publisher  IPublisherService
	currency   string
	logger     logger.ILogger
}

func NewLinkingService(
	uowFactory unitofwork.RepositoryFactory,
	gateway razorpay.Gateway,
	verifier IPaymentVerifier,
	publisher IPublisherService,
	currency string,
	log logger.ILogger,
) ILinkingService {
	return &linkingService{
		uowFactory: uowFactory,
		gateway:    gateway,
		verifier:   verifier,
		publisher:  publisher,
		currency:   currency,
		logger:     log,
	}
}

// ComputeLinkCost: the first child linked under an active family-tier
// plan rides along free. Every further child costs whatever it takes to
// bring that child up to the family tier from its current plan.
func (s *linkingService) ComputeLinkCost(parentPlan, childPlan entity.PlanID, firstChild bool) int64 {
	if firstChild && parentPlan.IsFamilyTier() {
		return 0
	}
	return catalog.AdditionalChildUpgradePrice(childPlan)
}

func (s *linkingService) LinkChild(ctx context.Context, parentId uuid.UUID, req *dto.LinkChildRequest) (*dto.LinkResult, error) {
	now := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	parent, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: parentId})
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, apperrors.ErrUserNotFound
	}

	child, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.ChildId})
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apperrors.ErrUserNotFound
	}

	linked, err := uow.UserRepository().IsLinked(ctx, parent.Id, child.Id)
	if err != nil {
		return nil, err
	}
	if linked {
		return &dto.LinkResult{
			Status:   dto.LinkStatusAlreadyLinked,
			ParentId: parent.Id,
			ChildId:  child.Id,
		}, nil
	}

	parentSub, err := uow.SubscriptionRepository().FindEffective(ctx, parent.Id, now)
	if err != nil {
		return nil, err
	}
	if parentSub == nil || !parentSub.PlanID.IsFamilyTier() {
		return nil, apperrors.ErrNoActiveSubscription
	}
	if !parentSub.FeatureSet.Allows(parentSub.FeatureSet.MaxLinkedChildren, len(parent.Children)) {
		return nil, apperrors.ErrForbiddenPlan
	}

	childPlan := entity.PlanFree
	childSub, err := uow.SubscriptionRepository().FindEffective(ctx, child.Id, now)
	if err != nil {
		return nil, err
	}
	if childSub != nil {
		childPlan = childSub.PlanID
	}

	cost := s.ComputeLinkCost(parentSub.PlanID, childPlan, len(parent.Children) == 0)

	orderID := fmt.Sprintf("link_%s", uuid.New())
	var paymentID *string
	if cost > 0 {
		if req.Proof == nil {
			// Quote the price and open a gateway order, but leave every
			// entitlement record untouched until the client returns
			// with proof.
			order, err := s.gateway.CreateOrder(ctx, cost, s.currency, map[string]string{
				"purpose":   "child_link",
				"parent_id": parent.Id.String(),
				"child_id":  child.Id.String(),
			})
			if err != nil {
				return nil, err
			}
			return &dto.LinkResult{
				Status:       dto.LinkStatusPaymentRequired,
				Amount:       cost,
				Currency:     s.currency,
				OrderId:      order.ID,
				GatewayKeyId: s.gateway.KeyID(),
				ParentId:     parent.Id,
				ChildId:      child.Id,
			}, nil
		}

		if err := s.verifier.VerifyProof(ctx, req.Proof.OrderId, req.Proof.PaymentId, req.Proof.Signature); err != nil {
			return nil, err
		}
		// The proof must settle the order opened for this link, not just
		// any captured payment: the order's amount and its parent/child
		// notes have to match the quote being settled.
		order, err := s.gateway.FetchOrder(ctx, req.Proof.OrderId)
		if err != nil {
			return nil, err
		}
		if order == nil ||
			order.Amount != cost ||
			order.Currency != s.currency ||
			order.Notes["purpose"] != "child_link" ||
			order.Notes["parent_id"] != parent.Id.String() ||
			order.Notes["child_id"] != child.Id.String() {
			return nil, apperrors.ErrOrderMismatch
		}
		orderID = req.Proof.OrderId
		paymentID = &req.Proof.PaymentId
	}

	// All or nothing: the link edge, the child's upgraded subscription
	// and its settlement record land in the same transaction.
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Link(ctx, parent.Id, child.Id); err != nil {
		return nil, err
	}

	resultPlan := childPlan
	resultEnd := parentSub.EndDate
	if childSub != nil && childSub.PlanID == parentSub.PlanID {
		resultEnd = childSub.EndDate
	}

	if childPlan != parentSub.PlanID && childPlan != entity.PlanInstitutions {
		inherited, err := s.inheritSubscription(ctx, uow, child, parent, parentSub, childSub, cost, orderID, paymentID, now)
		if err != nil {
			return nil, err
		}
		resultPlan = inherited.PlanID
		resultEnd = inherited.EndDate
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publishLinked(ctx, parent.Id, child.Id, resultPlan)

	return &dto.LinkResult{
		Status:       dto.LinkStatusLinked,
		ParentId:     parent.Id,
		ChildId:      child.Id,
		ChildPlanId:  string(resultPlan),
		ChildEndDate: resultEnd,
	}, nil
}

func (s *linkingService) PropagateEntitlement(ctx context.Context, parentSub *entity.Subscription) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	parent, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: parentSub.UserId})
	if err != nil {
		return err
	}
	if parent == nil {
		return apperrors.ErrUserNotFound
	}

	var firstErr error
	for _, childID := range parent.Children {
		if err := s.propagateToChild(ctx, parent, parentSub, childID); err != nil {
			s.logger.Warn("Linking", "Propagation to child failed", map[string]interface{}{
				"parent_id": parent.Id,
				"child_id":  childID,
				"error":     err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *linkingService) propagateToChild(ctx context.Context, parent *entity.User, parentSub *entity.Subscription, childID uuid.UUID) error {
	now := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	child, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: childID})
	if err != nil {
		return err
	}
	if child == nil {
		return apperrors.ErrUserNotFound
	}

	childSub, err := uow.SubscriptionRepository().FindEffective(ctx, childID, now)
	if err != nil {
		return err
	}

	if childSub != nil {
		if childSub.PlanID != parentSub.PlanID {
			// The child holds its own distinct paid plan; inheritance
			// never overwrites it.
			return nil
		}
		childSub.EndDate = parentSub.EndDate
		childSub.FeatureSet = parentSub.FeatureSet
		childSub.UpdatedAt = now
		return uow.SubscriptionRepository().Update(ctx, childSub)
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	orderID := fmt.Sprintf("link_%s", uuid.New())
	if _, err := s.inheritSubscription(ctx, uow, child, parent, parentSub, nil, 0, orderID, nil, now); err != nil {
		return err
	}
	return uow.Commit()
}

// inheritSubscription activates a copy of the parent's entitlement on
// the child: same plan, same feature snapshot, and the parent's end
// date carried over verbatim so both expire together. The previous
// child subscription, if any, is superseded rather than deleted.
func (s *linkingService) inheritSubscription(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	child *entity.User,
	parent *entity.User,
	parentSub *entity.Subscription,
	childSub *entity.Subscription,
	amount int64,
	orderID string,
	paymentID *string,
	now time.Time,
) (*entity.Subscription, error) {
	if childSub != nil {
		childSub.Status = entity.SubscriptionStatusCancelled
		childSub.CancelledAt = &now
		childSub.UpdatedAt = now
		if err := uow.SubscriptionRepository().Update(ctx, childSub); err != nil {
			return nil, err
		}
	}

	actor := parent.Actor("child_link")
	inherited := &entity.Subscription{
		Id:          uuid.New(),
		UserId:      child.Id,
		PlanID:      parentSub.PlanID,
		PlanName:    parentSub.PlanName,
		Amount:      amount,
		Status:      entity.SubscriptionStatusActive,
		StartDate:   &now,
		EndDate:     parentSub.EndDate,
		FeatureSet:  parentSub.FeatureSet,
		PurchasedBy: &actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uow.SubscriptionRepository().Create(ctx, inherited); err != nil {
		return nil, err
	}

	var paidAt *time.Time
	if paymentID != nil {
		paidAt = &now
	}
	txn := &entity.Transaction{
		Id:               uuid.New(),
		SubscriptionId:   inherited.Id,
		Amount:           amount,
		Currency:         s.currency,
		Status:           entity.TransactionStatusCompleted,
		Mode:             entity.TransactionModePurchase,
		InitiatedBy:      actor,
		GatewayOrderId:   orderID,
		GatewayPaymentId: paymentID,
		PaymentDate:      paidAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uow.SubscriptionRepository().AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	return inherited, nil
}

func (s *linkingService) publishLinked(ctx context.Context, parentID, childID uuid.UUID, plan entity.PlanID) {
	for _, evt := range []events.BaseEvent{
		events.ChildLinked(parentID, childID, string(plan)),
		events.ParentLinked(parentID, childID),
	} {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("Linking", "Failed to publish link event", map[string]interface{}{
				"type":  evt.EventType(),
				"error": err.Error(),
			})
		}
	}
}
