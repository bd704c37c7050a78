package service

import (
	"context"

	"wise-student-be/internal/apperrors"
	"wise-student-be/pkg/gateway/razorpay"
)

// IPaymentVerifier checks a client-supplied payment proof against the
// gateway without touching any entitlement state. Both the
// reconciliation engine and the linking coordinator verify through this
// one path, so signature and capture rules cannot drift between them.
type IPaymentVerifier interface {
	VerifyProof(ctx context.Context, orderID, paymentID, signature string) error
}

type paymentVerifier struct {
	gateway razorpay.Gateway
}

func NewPaymentVerifier(gateway razorpay.Gateway) IPaymentVerifier {
	return &paymentVerifier{gateway: gateway}
}

// VerifyProof validates the HMAC signature first, then confirms with
// the gateway that the payment actually captured. Signature failure is
// an authentication error; an uncaptured payment is a payment-state
// error. Callers must not mutate anything before this returns nil.
func (v *paymentVerifier) VerifyProof(ctx context.Context, orderID, paymentID, signature string) error {
	if !v.gateway.VerifyPaymentSignature(orderID, paymentID, signature) {
		return apperrors.ErrInvalidSignature
	}

	status, err := v.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !status.Completed() {
		return apperrors.ErrPaymentNotCompleted
	}
	return nil
}
