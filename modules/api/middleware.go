package api

import (
	"strings"

	domain "github.com/WS24/ws24dev-sub001/domain/identity"
	"github.com/WS24/ws24dev-sub001/modules/identity"
	"github.com/WS24/ws24dev-sub001/modules/task"
	"github.com/gofiber/fiber/v2"
)

// userContextKey is the Locals key holding the verified caller identity.
const userContextKey = "user"

// callerIdentity is what the auth middleware extracts from a valid token.
type callerIdentity struct {
	UserID string
	Email  string
	Role   domain.Role
}

// AuthMiddleware validates the Bearer token and stores the caller identity
// in the request context.
func AuthMiddleware(identityPort identity.IdentityPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		validated, err := identityPort.ValidateToken(c.UserContext(), token)
		if err != nil || !validated.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(userContextKey, callerIdentity{
			UserID: validated.UserID,
			Email:  validated.Email,
			Role:   domain.Role(validated.Role),
		})
		return c.Next()
	}
}

// caller returns the verified identity stored by AuthMiddleware.
func caller(c *fiber.Ctx) callerIdentity {
	ident, _ := c.Locals(userContextKey).(callerIdentity)
	return ident
}

// actor converts the caller into the lifecycle actor shape.
func actor(c *fiber.Ctx) task.Actor {
	ident := caller(c)
	return task.Actor{UserID: ident.UserID, Role: ident.Role}
}
