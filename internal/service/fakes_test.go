package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wise-student-be/internal/apperrors"
	"wise-student-be/internal/entity"
	"wise-student-be/internal/repository/contract"
	"wise-student-be/internal/repository/specification"
	"wise-student-be/internal/repository/unitofwork"
	"wise-student-be/pkg/events"
	"wise-student-be/pkg/gateway/razorpay"
)

// In-memory doubles for the repository and gateway layers. Mutations
// apply immediately; Begin/Commit/Rollback only count calls so tests
// can assert an operation ran transactionally.

type fakeStore struct {
	users map[uuid.UUID]*entity.User
	subs  map[uuid.UUID]*entity.Subscription
	txns  []*entity.Transaction

	begins    int
	commits   int
	rollbacks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[uuid.UUID]*entity.User),
		subs:  make(map[uuid.UUID]*entity.Subscription),
	}
}

func (s *fakeStore) addUser(u *entity.User) *entity.User {
	if u.Id == uuid.Nil {
		u.Id = uuid.New()
	}
	s.users[u.Id] = u
	return u
}

func (s *fakeStore) addSubscription(sub *entity.Subscription) *entity.Subscription {
	if sub.Id == uuid.Nil {
		sub.Id = uuid.New()
	}
	cp := *sub
	cp.Transactions = nil
	s.subs[sub.Id] = &cp
	for i := range sub.Transactions {
		t := sub.Transactions[i]
		t.SubscriptionId = sub.Id
		s.txns = append(s.txns, &t)
	}
	return sub
}

func (s *fakeStore) link(parentID, childID uuid.UUID) {
	p := s.users[parentID]
	c := s.users[childID]
	p.Children = append(p.Children, childID)
	c.Parents = append(c.Parents, parentID)
}

func (s *fakeStore) txnByID(id uuid.UUID) *entity.Transaction {
	for _, t := range s.txns {
		if t.Id == id {
			return t
		}
	}
	return nil
}

func (s *fakeStore) txnByOrderID(orderID string) *entity.Transaction {
	for _, t := range s.txns {
		if t.GatewayOrderId == orderID {
			return t
		}
	}
	return nil
}

func (s *fakeStore) hydrated(sub *entity.Subscription) *entity.Subscription {
	cp := *sub
	cp.Transactions = nil
	for _, t := range s.txns {
		if t.SubscriptionId == sub.Id {
			cp.Transactions = append(cp.Transactions, *t)
		}
	}
	return &cp
}

type fakeSubscriptionRepo struct {
	store *fakeStore
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	cp := *sub
	cp.Transactions = nil
	r.store.subs[sub.Id] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *entity.Subscription) error {
	if _, ok := r.store.subs[sub.Id]; !ok {
		return fmt.Errorf("subscription %s not found", sub.Id)
	}
	cp := *sub
	cp.Transactions = nil
	r.store.subs[sub.Id] = &cp
	return nil
}

func (r *fakeSubscriptionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	for _, sp := range specs {
		if byID, ok := sp.(specification.ByID); ok {
			sub, found := r.store.subs[byID.ID]
			if !found {
				return nil, nil
			}
			return r.store.hydrated(sub), nil
		}
	}
	return nil, fmt.Errorf("unsupported specification in fake")
}

func (r *fakeSubscriptionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var owner *uuid.UUID
	for _, sp := range specs {
		if owned, ok := sp.(specification.OwnedBy); ok {
			id := owned.UserID
			owner = &id
		}
	}
	var res []*entity.Subscription
	for _, sub := range r.store.subs {
		if owner != nil && sub.UserId != *owner {
			continue
		}
		res = append(res, r.store.hydrated(sub))
	}
	return res, nil
}

func (r *fakeSubscriptionRepo) FindEffective(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.Subscription, error) {
	for _, sub := range r.store.subs {
		if sub.UserId == userID && sub.IsEffective(now) {
			return r.store.hydrated(sub), nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) AppendTransaction(ctx context.Context, txn *entity.Transaction) error {
	if r.store.txnByOrderID(txn.GatewayOrderId) != nil {
		return apperrors.ErrDuplicateOrder
	}
	cp := *txn
	r.store.txns = append(r.store.txns, &cp)
	return nil
}

func (r *fakeSubscriptionRepo) FindTransactionByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error) {
	t := r.store.txnByOrderID(orderID)
	if t == nil {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeSubscriptionRepo) CompleteTransactionCAS(ctx context.Context, txnID uuid.UUID, paymentID string, paidAt time.Time) (bool, error) {
	t := r.store.txnByID(txnID)
	if t == nil {
		return false, fmt.Errorf("transaction %s not found", txnID)
	}
	if t.Status != entity.TransactionStatusPending {
		return false, nil
	}
	t.Status = entity.TransactionStatusCompleted
	t.GatewayPaymentId = &paymentID
	t.PaymentDate = &paidAt
	return true, nil
}

func (r *fakeSubscriptionRepo) UpdateTransactionStatus(ctx context.Context, txnID uuid.UUID, next entity.TransactionStatus) error {
	t := r.store.txnByID(txnID)
	if t == nil {
		return fmt.Errorf("transaction %s not found", txnID)
	}
	if !t.Status.CanTransitionTo(next) {
		return apperrors.ErrTransactionFinal
	}
	t.Status = next
	return nil
}

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, sp := range specs {
		if byID, ok := sp.(specification.ByID); ok {
			u, found := r.store.users[byID.ID]
			if !found {
				return nil, nil
			}
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("unsupported specification in fake")
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Link(ctx context.Context, parentID, childID uuid.UUID) error {
	r.store.link(parentID, childID)
	return nil
}

func (r *fakeUserRepo) IsLinked(ctx context.Context, parentID, childID uuid.UUID) (bool, error) {
	p, found := r.store.users[parentID]
	if !found {
		return false, nil
	}
	return p.HasChild(childID), nil
}

func (r *fakeUserRepo) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	p, found := r.store.users[parentID]
	if !found {
		return nil, nil
	}
	return p.Children, nil
}

func (r *fakeUserRepo) ParentsOf(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error) {
	c, found := r.store.users[childID]
	if !found {
		return nil, nil
	}
	return c.Parents, nil
}

type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.store.begins++
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.store.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.store.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &fakeSubscriptionRepo{store: u.store}
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

// fakeGateway accepts exactly one signature per channel and reports a
// configurable payment status, so tests drive the verification paths
// without real HMACs.
type fakeGateway struct {
	keyID            string
	acceptSignature  string
	acceptWebhookSig string
	fetchStatus      string
	fetchErr         error
	createErr        error

	orderSeq       int
	orders         map[string]*razorpay.Order
	createdOrders  []*razorpay.Order
	fetchedPayment []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		keyID:            "rzp_test_fake",
		acceptSignature:  "good-signature",
		acceptWebhookSig: "good-webhook-signature",
		fetchStatus:      razorpay.PaymentStatusCaptured,
		orders:           make(map[string]*razorpay.Order),
	}
}

func (g *fakeGateway) KeyID() string {
	return g.keyID
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency string, notes map[string]string) (*razorpay.Order, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.orderSeq++
	order := &razorpay.Order{
		ID:       fmt.Sprintf("order_fake_%d", g.orderSeq),
		Amount:   amount,
		Currency: currency,
		Notes:    notes,
	}
	g.orders[order.ID] = order
	g.createdOrders = append(g.createdOrders, order)
	return order, nil
}

func (g *fakeGateway) FetchOrder(ctx context.Context, orderID string) (*razorpay.Order, error) {
	return g.orders[orderID], nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == g.acceptSignature
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == g.acceptWebhookSig
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*razorpay.PaymentStatus, error) {
	g.fetchedPayment = append(g.fetchedPayment, paymentID)
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	return &razorpay.PaymentStatus{Status: g.fetchStatus}, nil
}

type fakePublisher struct {
	published []events.Event
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, evt events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, evt)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	var types []string
	for _, evt := range p.published {
		types = append(types, evt.EventType())
	}
	return types
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
