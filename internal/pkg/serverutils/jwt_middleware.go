package serverutils

import (
	"notesync/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// NewJwtMiddleware guards routes with a bearer token. Revoked tokens (logout)
// are rejected even before their expiry.
func NewJwtMiddleware(secret string, revoked contract.TokenRepository) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
		}
		tokenStr := authHeader[7:]

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(ctx.Context(), tokenStr)
			if err != nil {
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Token check unavailable"})
			}
			if isRevoked {
				return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token revoked"})
			}
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
		}

		ctx.Locals("user_id", claims["user_id"])
		ctx.Locals("email", claims["email"])
		ctx.Locals("token", tokenStr)
		return ctx.Next()
	}
}
