package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wise-student-be/internal/pkg/logger"
	internalWS "wise-student-be/internal/websocket"
)

// IStreamController exposes the live entitlement event stream over
// websocket.
type IStreamController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type streamController struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewStreamController(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) IStreamController {
	return &streamController{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (c *streamController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", c.ServeWs)
}

// ServeWs authenticates the handshake and upgrades. Browsers cannot set
// headers on websocket requests, so the token is also accepted as a
// query parameter.
func (c *streamController) ServeWs(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(c.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid user id in token"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("Stream", "WebSocket session started", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(c.hub, conn, userID)
			c.logger.Info("Stream", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
