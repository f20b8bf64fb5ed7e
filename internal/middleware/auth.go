package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
)

const userContextKey = "currentUser"

// TokenResolver maps a bearer token to its verified account.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware resolves the bearer token to a verified account and stores
// it in the request context.
func AuthMiddleware(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		user, err := resolver.ResolveToken(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// OptionalAuth attaches the account when a valid bearer token is present
// and lets the request through anonymously otherwise.
func OptionalAuth(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		token, err := bearerToken(c)
		if err != nil {
			return c.Next()
		}
		if user, err := resolver.ResolveToken(c.UserContext(), token); err == nil {
			c.Locals(userContextKey, user)
		}
		return c.Next()
	}
}

// RequireRoles rejects accounts whose role is not listed. It must run after
// AuthMiddleware.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return &services.Error{Kind: services.ErrUnauthenticated, Message: "missing authorization token"}
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return &services.Error{Kind: services.ErrForbidden, Message: "you do not have permission to perform this action"}
	}
}

// RequireAdmin rejects accounts without console access. It must run after
// AuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return &services.Error{Kind: services.ErrUnauthenticated, Message: "missing authorization token"}
		}
		if !user.IsAdmin() {
			return &services.Error{Kind: services.ErrForbidden, Message: "you do not have permission to perform this action"}
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated account, if any.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userContextKey).(*models.User)
	return user, ok && user != nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", &services.Error{Kind: services.ErrUnauthenticated, Message: "missing authorization header"}
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", &services.Error{Kind: services.ErrUnauthenticated, Message: "invalid authorization header"}
	}
	return strings.TrimSpace(parts[1]), nil
}
