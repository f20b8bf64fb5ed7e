package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
)

type stubResolver struct {
	users map[string]*models.User
}

func (r stubResolver) ResolveToken(_ context.Context, token string) (*models.User, error) {
	if user, ok := r.users[token]; ok {
		return user, nil
	}
	return nil, &services.Error{Kind: services.ErrUnauthenticated, Message: "invalid or expired token"}
}

func newTestApp(resolver TokenResolver) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var se *services.Error
			if errors.As(err, &se) {
				return c.Status(services.StatusCode(err)).SendString(se.Message)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})

	whoami := func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(user.Username)
	}

	app.Get("/private", AuthMiddleware(resolver), whoami)
	app.Get("/public", OptionalAuth(resolver), whoami)
	app.Get("/admin", AuthMiddleware(resolver), RequireAdmin(), whoami)
	app.Get("/super", AuthMiddleware(resolver), RequireRoles(models.RoleSuperAdmin), whoami)
	app.Get("/unguarded-console", RequireAdmin(), whoami)
	app.Get("/unguarded-admin", RequireRoles(models.RoleAdmin), whoami)
	return app
}

func doRequest(t *testing.T, app *fiber.App, path, auth string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(stubResolver{users: map[string]*models.User{
		"alice-token": {BaseModel: models.BaseModel{ID: uuid.New()}, Username: "alice", Role: models.RoleUser},
		"root-token":  {BaseModel: models.BaseModel{ID: uuid.New()}, Username: "root", Role: models.RoleSuperAdmin},
		"ops-token":   {BaseModel: models.BaseModel{ID: uuid.New()}, Username: "ops", Role: models.RoleAdmin},
	}})

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
		body   string
	}{
		{"missing header", "/private", "", fiber.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "/private", "Basic alice-token", fiber.StatusUnauthorized, "invalid authorization header"},
		{"empty bearer", "/private", "Bearer ", fiber.StatusUnauthorized, "invalid authorization header"},
		{"unknown token", "/private", "Bearer nope", fiber.StatusUnauthorized, "invalid or expired token"},
		{"valid token", "/private", "Bearer alice-token", fiber.StatusOK, "alice"},
		{"lowercase scheme", "/private", "bearer alice-token", fiber.StatusOK, "alice"},
		{"anonymous public", "/public", "", fiber.StatusOK, "anonymous"},
		{"invalid token on public", "/public", "Bearer nope", fiber.StatusOK, "anonymous"},
		{"malformed header on public", "/public", "Token", fiber.StatusOK, "anonymous"},
		{"valid token on public", "/public", "Bearer alice-token", fiber.StatusOK, "alice"},
		{"user on admin route", "/admin", "Bearer alice-token", fiber.StatusForbidden, "you do not have permission to perform this action"},
		{"super admin on admin route", "/admin", "Bearer root-token", fiber.StatusOK, "root"},
		{"admin on admin route", "/admin", "Bearer ops-token", fiber.StatusOK, "ops"},
		{"admin on super admin route", "/super", "Bearer ops-token", fiber.StatusForbidden, "you do not have permission to perform this action"},
		{"super admin on super admin route", "/super", "Bearer root-token", fiber.StatusOK, "root"},
		{"roles without auth", "/unguarded-admin", "", fiber.StatusUnauthorized, "missing authorization token"},
		{"console without auth", "/unguarded-console", "", fiber.StatusUnauthorized, "missing authorization token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, tt.path, tt.auth)
			if status != tt.status || body != tt.body {
				t.Fatalf("got %d %q, want %d %q", status, body, tt.status, tt.body)
			}
		})
	}
}
