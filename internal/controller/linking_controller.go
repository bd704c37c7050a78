package controller

import (
	"github.com/gofiber/fiber/v2"

	"wise-student-be/internal/dto"
	"wise-student-be/internal/pkg/serverutils"
	"wise-student-be/internal/service"
)

type ILinkingController interface {
	RegisterRoutes(r fiber.Router)
	LinkChild(ctx *fiber.Ctx) error
}

type linkingController struct {
	service  service.ILinkingService
	jwtGuard fiber.Handler
}

func NewLinkingController(svc service.ILinkingService, jwtGuard fiber.Handler) ILinkingController {
	return &linkingController{
		service:  svc,
		jwtGuard: jwtGuard,
	}
}

func (c *linkingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/links")
	h.Use(c.jwtGuard)
	h.Post("/children", c.LinkChild)
}

// LinkChild attaches a child account to the authenticated parent. The
// response status field distinguishes the three outcomes: linked,
// already_linked and payment_required.
func (c *linkingController) LinkChild(ctx *fiber.Ctx) error {
	var req dto.LinkChildRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.LinkChild(ctx.Context(), currentUserID(ctx), &req)
	if err != nil {
		return err
	}

	if res.Status == dto.LinkStatusPaymentRequired {
		return ctx.Status(fiber.StatusPaymentRequired).JSON(serverutils.SuccessResponse("Payment required", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Link processed", res))
}
