package implementation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wise-student-be/internal/apperrors"
	"wise-student-be/internal/entity"
	"wise-student-be/internal/model"
	"wise-student-be/internal/repository/contract"
	"wise-student-be/internal/repository/specification"
	"wise-student-be/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGormSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.UserLink{},
		&model.Subscription{},
		&model.SubscriptionTransaction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedSubscription(t *testing.T, repo contract.SubscriptionRepository, userID uuid.UUID, status entity.SubscriptionStatus, endDate *time.Time) *entity.Subscription {
	t.Helper()
	sub := &entity.Subscription{
		Id:       uuid.New(),
		UserId:   userID,
		PlanID:   entity.PlanStudentPremium,
		PlanName: "Student Premium",
		Amount:   2999,
		Status:   status,
		EndDate:  endDate,
		FeatureSet: entity.FeatureSet{
			GamesPerPillar:  entity.Unlimited,
			ProgressReports: true,
		},
	}
	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return sub
}

func seedTransaction(t *testing.T, repo contract.SubscriptionRepository, subID uuid.UUID, orderID string, status entity.TransactionStatus) *entity.Transaction {
	t.Helper()
	txn := &entity.Transaction{
		Id:             uuid.New(),
		SubscriptionId: subID,
		Amount:         2999,
		Currency:       "INR",
		Status:         status,
		Mode:           entity.TransactionModePurchase,
		InitiatedBy:    entity.ActorProfile{UserId: uuid.New(), Role: "student"},
		GatewayOrderId: orderID,
	}
	if err := repo.AppendTransaction(context.Background(), txn); err != nil {
		t.Fatalf("append transaction: %v", err)
	}
	return txn
}

func TestSubscriptionRoundTrip(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t))
	ctx := context.Background()

	end := time.Now().AddDate(1, 0, 0)
	sub := seedSubscription(t, repo, uuid.New(), entity.SubscriptionStatusActive, &end)
	seedTransaction(t, repo, sub.Id, "order_rt", entity.TransactionStatusPending)

	got, err := repo.FindOne(ctx, specification.ByID{ID: sub.Id})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got == nil {
		t.Fatal("subscription not found")
	}
	if got.PlanID != entity.PlanStudentPremium || got.Amount != 2999 {
		t.Errorf("got plan %q amount %d", got.PlanID, got.Amount)
	}
	if got.FeatureSet.GamesPerPillar != entity.Unlimited || !got.FeatureSet.ProgressReports {
		t.Errorf("feature snapshot did not survive storage: %+v", got.FeatureSet)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].GatewayOrderId != "order_rt" {
		t.Errorf("transactions not preloaded: %+v", got.Transactions)
	}

	missing, err := repo.FindOne(ctx, specification.ByID{ID: uuid.New()})
	if err != nil {
		t.Fatalf("FindOne missing: %v", err)
	}
	if missing != nil {
		t.Error("missing subscription should resolve to nil, not error")
	}
}

func TestAppendTransactionRejectsDuplicateOrderID(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t))
	ctx := context.Background()

	subA := seedSubscription(t, repo, uuid.New(), entity.SubscriptionStatusPending, nil)
	subB := seedSubscription(t, repo, uuid.New(), entity.SubscriptionStatusPending, nil)
	seedTransaction(t, repo, subA.Id, "order_dup", entity.TransactionStatusPending)

	// Same order id on a different subscription must still be rejected;
	// gateway order ids are unique system-wide.
	err := repo.AppendTransaction(ctx, &entity.Transaction{
		Id:             uuid.New(),
		SubscriptionId: subB.Id,
		Amount:         2999,
		Currency:       "INR",
		Status:         entity.TransactionStatusPending,
		Mode:           entity.TransactionModePurchase,
		GatewayOrderId: "order_dup",
	})
	if !errors.Is(err, apperrors.ErrDuplicateOrder) {
		t.Fatalf("err = %v, want ErrDuplicateOrder", err)
	}
}

func TestCompleteTransactionCASSingleWinner(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t))
	ctx := context.Background()

	sub := seedSubscription(t, repo, uuid.New(), entity.SubscriptionStatusPending, nil)
	txn := seedTransaction(t, repo, sub.Id, "order_cas", entity.TransactionStatusPending)

	won, err := repo.CompleteTransactionCAS(ctx, txn.Id, "pay_1", time.Now())
	if err != nil {
		t.Fatalf("first CAS: %v", err)
	}
	if !won {
		t.Fatal("first completion must win")
	}

	won, err = repo.CompleteTransactionCAS(ctx, txn.Id, "pay_2", time.Now())
	if err != nil {
		t.Fatalf("second CAS: %v", err)
	}
	if won {
		t.Fatal("second completion must lose")
	}

	got, err := repo.FindTransactionByOrderID(ctx, "order_cas")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != entity.TransactionStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	// The losing payment id must not overwrite the winner's.
	if got.GatewayPaymentId == nil || *got.GatewayPaymentId != "pay_1" {
		t.Errorf("payment id = %v, want pay_1", got.GatewayPaymentId)
	}
	if got.PaymentDate == nil {
		t.Error("completion did not record payment date")
	}
}

func TestUpdateTransactionStatusIsMonotonic(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t))
	ctx := context.Background()

	sub := seedSubscription(t, repo, uuid.New(), entity.SubscriptionStatusPending, nil)
	txn := seedTransaction(t, repo, sub.Id, "order_mono", entity.TransactionStatusPending)

	if err := repo.UpdateTransactionStatus(ctx, txn.Id, entity.TransactionStatusFailed); err != nil {
		t.Fatalf("pending->failed: %v", err)
	}
	if err := repo.UpdateTransactionStatus(ctx, txn.Id, entity.TransactionStatusCancelled); !errors.Is(err, apperrors.ErrTransactionFinal) {
		t.Errorf("failed->cancelled: err = %v, want ErrTransactionFinal", err)
	}

	// Backwards moves are rejected before touching the database.
	if err := repo.UpdateTransactionStatus(ctx, txn.Id, entity.TransactionStatusPending); !errors.Is(err, apperrors.ErrTransactionFinal) {
		t.Errorf("->pending: err = %v, want ErrTransactionFinal", err)
	}

	// Completed transactions never downgrade either.
	done := seedTransaction(t, repo, sub.Id, "order_done", entity.TransactionStatusPending)
	if _, err := repo.CompleteTransactionCAS(ctx, done.Id, "pay_done", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateTransactionStatus(ctx, done.Id, entity.TransactionStatusFailed); !errors.Is(err, apperrors.ErrTransactionFinal) {
		t.Errorf("completed->failed: err = %v, want ErrTransactionFinal", err)
	}
}

func TestFindEffectiveSelectsOnlyLiveSubscription(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now()

	userExpired := uuid.New()
	past := now.AddDate(0, -1, 0)
	seedSubscription(t, repo, userExpired, entity.SubscriptionStatusActive, &past)

	userCancelled := uuid.New()
	future := now.AddDate(0, 6, 0)
	seedSubscription(t, repo, userCancelled, entity.SubscriptionStatusCancelled, &future)

	userLive := uuid.New()
	live := seedSubscription(t, repo, userLive, entity.SubscriptionStatusActive, &future)

	userOpenEnded := uuid.New()
	openEnded := seedSubscription(t, repo, userOpenEnded, entity.SubscriptionStatusActive, nil)

	for _, tt := range []struct {
		name   string
		userID uuid.UUID
		want   *uuid.UUID
	}{
		{name: "past end date reads as expired", userID: userExpired, want: nil},
		{name: "cancelled is never effective", userID: userCancelled, want: nil},
		{name: "active with future end date", userID: userLive, want: &live.Id},
		{name: "nil end date never expires", userID: userOpenEnded, want: &openEnded.Id},
		{name: "unknown user", userID: uuid.New(), want: nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindEffective(ctx, tt.userID, now)
			if err != nil {
				t.Fatalf("FindEffective: %v", err)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("got subscription %s, want none", got.Id)
				}
				return
			}
			if got == nil || got.Id != *tt.want {
				t.Errorf("got %v, want %s", got, *tt.want)
			}
		})
	}
}

func TestUpdatePersistsStatusChange(t *testing.T) {
	repo := NewSubscriptionRepository(newTestDB(t))
	ctx := context.Background()

	sub := seedSubscription(t, repo, uuid.New(), entity.SubscriptionStatusPending, nil)

	now := time.Now()
	end := now.AddDate(1, 0, 0)
	actor := entity.ActorProfile{UserId: sub.UserId, Role: "student"}
	sub.Status = entity.SubscriptionStatusActive
	sub.StartDate = &now
	sub.EndDate = &end
	sub.PurchasedBy = &actor
	if err := repo.Update(ctx, sub); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.FindOne(ctx, specification.ByID{ID: sub.Id})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != entity.SubscriptionStatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
	if got.PurchasedBy == nil || got.PurchasedBy.UserId != sub.UserId {
		t.Errorf("purchase attribution lost: %+v", got.PurchasedBy)
	}
	if got.EndDate == nil {
		t.Error("end date lost on update")
	}
}
