package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"wise-student-be/internal/dto"
	"wise-student-be/internal/pkg/serverutils"
	"wise-student-be/internal/service"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	GetPlans(ctx *fiber.Ctx) error
	CreateOrder(ctx *fiber.Ctx) error
	ConfirmPayment(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	ListTransactions(ctx *fiber.Ctx) error
	CancelSubscription(ctx *fiber.Ctx) error
	CancelOrder(ctx *fiber.Ctx) error
}

type paymentController struct {
	payments       service.IPaymentService
	reconciliation service.IReconciliationService
	jwtGuard       fiber.Handler
	rateLimit      *serverutils.RedisRateLimiter
}

func NewPaymentController(
	payments service.IPaymentService,
	reconciliation service.IReconciliationService,
	jwtGuard fiber.Handler,
	rateLimit *serverutils.RedisRateLimiter,
) IPaymentController {
	return &paymentController{
		payments:       payments,
		reconciliation: reconciliation,
		jwtGuard:       jwtGuard,
		rateLimit:      rateLimit,
	}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	h.Get("/plans", c.GetPlans)
	h.Post("/webhook", c.rateLimit.Middleware("webhook", 120, time.Minute), c.Webhook)

	h.Post("/orders", c.jwtGuard, c.CreateOrder)
	h.Post("/orders/confirm", c.jwtGuard, c.ConfirmPayment)
	h.Post("/orders/cancel", c.jwtGuard, c.CancelOrder)
	h.Get("/status", c.jwtGuard, c.GetStatus)
	h.Get("/transactions", c.jwtGuard, c.ListTransactions)
	h.Post("/cancel", c.jwtGuard, c.CancelSubscription)
}

func (c *paymentController) GetPlans(ctx *fiber.Ctx) error {
	res, err := c.payments.GetPlans(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Plans", res))
}

func (c *paymentController) CreateOrder(ctx *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.payments.CreateOrder(ctx.Context(), currentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Order created", res))
}

func (c *paymentController) ConfirmPayment(ctx *fiber.Ctx) error {
	var req dto.ConfirmPaymentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reconciliation.ConfirmPayment(ctx.Context(), currentUserID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Payment confirmed", res))
}

// Webhook receives gateway notifications. Signature verification runs
// over the untouched request body; parsing happens after, inside the
// service.
func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	signature := ctx.Get("X-Razorpay-Signature")
	body := ctx.Body()

	if err := c.reconciliation.HandleWebhook(ctx.Context(), body, signature); err != nil {
		// Non-2xx makes the gateway redeliver; reconciliation is
		// idempotent so redelivery is safe.
		return err
	}
	return ctx.SendStatus(fiber.StatusOK)
}

func (c *paymentController) GetStatus(ctx *fiber.Ctx) error {
	res, err := c.payments.GetSubscriptionStatus(ctx.Context(), currentUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription status", res))
}

func (c *paymentController) ListTransactions(ctx *fiber.Ctx) error {
	res, err := c.payments.ListTransactions(ctx.Context(), currentUserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Transactions", res))
}

func (c *paymentController) CancelSubscription(ctx *fiber.Ctx) error {
	if err := c.payments.CancelSubscription(ctx.Context(), currentUserID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Subscription cancelled", nil))
}

func (c *paymentController) CancelOrder(ctx *fiber.Ctx) error {
	var req dto.CancelOrderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.payments.CancelPendingOrder(ctx.Context(), currentUserID(ctx), req.OrderId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Order cancelled", nil))
}
