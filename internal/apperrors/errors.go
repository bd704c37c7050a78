// Typed sentinel errors raised by the entitlement core. The HTTP layer
// maps them to status codes; the core never wraps transport concerns in.
package apperrors

import "errors"

var (
	// Validation
	ErrInvalidPlan   = errors.New("unknown plan identifier")
	ErrForbiddenPlan = errors.New("plan is not purchasable by end users")

	// Configuration
	ErrGatewayUnavailable = errors.New("payment gateway is not configured")

	// Authorization / integrity. Treated as potential tampering and
	// logged distinctly from ordinary validation failures.
	ErrInvalidSignature    = errors.New("payment signature verification failed")
	ErrTransactionNotFound = errors.New("no transaction matches the gateway order")
	ErrOrderMismatch       = errors.New("payment proof does not settle this order")

	// State
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrSubscriptionExists   = errors.New("an active subscription already exists; renew instead")
	ErrPaymentNotCompleted  = errors.New("payment is not captured or authorized")
	ErrDuplicateOrder       = errors.New("gateway order id already recorded")
	ErrTransactionFinal     = errors.New("transaction already reached a final status")

	// Accounts
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
