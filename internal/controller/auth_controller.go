package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"wise-student-be/internal/dto"
	"wise-student-be/internal/pkg/serverutils"
	"wise-student-be/internal/service"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
}

type authController struct {
	service   service.IAuthService
	jwtGuard  fiber.Handler
	rateLimit *serverutils.RedisRateLimiter
}

func NewAuthController(svc service.IAuthService, jwtGuard fiber.Handler, rateLimit *serverutils.RedisRateLimiter) IAuthController {
	return &authController{
		service:   svc,
		jwtGuard:  jwtGuard,
		rateLimit: rateLimit,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.rateLimit.Middleware("register", 10, time.Minute), c.Register)
	h.Post("/login", c.rateLimit.Middleware("login", 20, time.Minute), c.Login)
	h.Get("/me", c.jwtGuard, c.Me)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Account created", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Login success", res))
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	userId := currentUserID(ctx)

	res, err := c.service.GetProfile(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile", res))
}

// currentUserID reads the authenticated user set by the JWT guard. The
// guard rejects requests without a valid token, so the local is always
// present on protected routes.
func currentUserID(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}
