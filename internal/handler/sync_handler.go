package handler

import (
	"notesync/internal/pkg/logger"
	"notesync/internal/repository/contract"
	internalWS "notesync/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SyncHandler upgrades authenticated clients to the change-notification
// websocket.
type SyncHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	revoked   contract.TokenRepository
	logger    logger.ILogger
}

func NewSyncHandler(hub *internalWS.Hub, jwtSecret string, revoked contract.TokenRepository, log logger.ILogger) *SyncHandler {
	return &SyncHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		revoked:   revoked,
		logger:    log,
	}
}

// ServeWs handles websocket requests from the peer. Browsers cannot set
// headers on a websocket handshake, so the token also rides a query param.
func (h *SyncHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	if h.revoked != nil {
		isRevoked, err := h.revoked.IsRevoked(c.Context(), tokenStr)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Token check unavailable"})
		}
		if isRevoked {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token revoked"})
		}
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("sync_handler", "invalid token in ws handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("sync_handler", "websocket session started", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID)
			h.logger.Info("sync_handler", "websocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *SyncHandler) RegisterRoutes(r fiber.Router) {
	sync := r.Group("/sync/v1")
	sync.Get("/ws", h.ServeWs)
}
