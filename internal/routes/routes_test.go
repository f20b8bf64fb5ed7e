package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/database"
	"github.com/example/foodexpress/internal/events"
	"github.com/example/foodexpress/internal/handlers"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/services"
)

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Field      string          `json:"field"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Pages int64 `json:"pages"`
	} `json:"pagination"`
}

type testServer struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T, name string) *testServer {
	t.Helper()

	db, err := database.Open("sqlite://file:routes_"+name+"?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := database.SeedCatalog(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:         "routes-test-secret",
		TokenTTL:          7 * 24 * time.Hour,
		OTPTTL:            10 * time.Minute,
		IdempotencyWindow: 24 * time.Hour,
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	Register(app, db, cfg, Dependencies{
		Notifier: services.ConsoleNotifier{},
		Events:   events.Nop{},
		Telegram: services.NewTelegramService("", ""),
	})
	return &testServer{t: t, app: app, db: db}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		s.t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func (s *testServer) expect(status int, want int, env envelope) {
	s.t.Helper()
	if status != want {
		s.t.Fatalf("status = %d (%s), want %d", status, env.Message, want)
	}
	if env.Success != (want < 400) {
		s.t.Fatalf("success = %v for status %d", env.Success, status)
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

// signup runs the full signup and verification flow and returns the token.
func (s *testServer) signup(username, mobile string) string {
	s.t.Helper()

	status, env := s.do(fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "Passw0rd!",
		"mobile":   mobile,
	})
	s.expect(status, fiber.StatusOK, env)

	var pending models.PendingSignup
	if err := s.db.First(&pending, "email = ?", username+"@example.com").Error; err != nil {
		s.t.Fatalf("load pending signup: %v", err)
	}

	status, env = s.do(fiber.MethodPost, "/api/auth/verify-otp", "", fiber.Map{
		"email": username + "@example.com",
		"otp":   pending.OTP,
	})
	s.expect(status, fiber.StatusOK, env)
	return decode[services.AuthResult](s.t, env.Data).Token
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, env := s.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": password})
	s.expect(status, fiber.StatusOK, env)
	return decode[services.AuthResult](s.t, env.Data).Token
}

func (s *testServer) superAdminToken() string {
	s.t.Helper()
	admin := config.SeedAdmin{Email: "root@example.com", Username: "root", Password: "R00t$ecret", Mobile: "+919999999999"}
	if _, err := database.EnsureSuperAdmin(context.Background(), s.db, admin); err != nil {
		s.t.Fatalf("seed admin: %v", err)
	}
	return s.login(admin.Email, admin.Password)
}

func (s *testServer) restaurantID(name string) string {
	s.t.Helper()
	var r models.Restaurant
	if err := s.db.First(&r, "name = ?", name).Error; err != nil {
		s.t.Fatalf("load restaurant %s: %v", name, err)
	}
	return r.ID.String()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, "health")
	status, env := srv.do(fiber.MethodGet, "/health", "", nil)
	srv.expect(status, fiber.StatusOK, env)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	srv := newTestServer(t, "unknown")
	status, env := srv.do(fiber.MethodGet, "/api/nope", "", nil)
	srv.expect(status, fiber.StatusNotFound, env)
	if env.Message == "" {
		t.Fatal("expected an error message")
	}
}

func TestSignupAndLoginFlow(t *testing.T) {
	srv := newTestServer(t, "signup")

	status, env := srv.do(fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "weak",
		"email":    "weak@example.com",
		"password": "password",
		"mobile":   "+919800000001",
	})
	srv.expect(status, fiber.StatusBadRequest, env)
	if env.Field != "password" {
		t.Fatalf("field = %q, want password", env.Field)
	}

	token := srv.signup("alice", "+91 98000 00002")

	status, env = srv.do(fiber.MethodGet, "/api/auth/me", token, nil)
	srv.expect(status, fiber.StatusOK, env)
	me := decode[models.User](t, env.Data)
	if me.Email != "alice@example.com" || me.Role != models.RoleUser || !me.IsVerified {
		t.Fatalf("unexpected account: %+v", me)
	}
	if bytes.Contains(env.Data, []byte("Passw0rd")) || bytes.Contains(env.Data, []byte("passwordHash")) {
		t.Fatal("account payload leaks password material")
	}

	status, env = srv.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "Wr0ng!pass"})
	srv.expect(status, fiber.StatusUnauthorized, env)

	status, env = srv.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "nobody@example.com", "password": "Passw0rd!"})
	srv.expect(status, fiber.StatusUnauthorized, env)

	if srv.login("ALICE@example.com", "Passw0rd!") == "" {
		t.Fatal("expected a token")
	}

	status, env = srv.do(fiber.MethodGet, "/api/auth/me", "", nil)
	srv.expect(status, fiber.StatusUnauthorized, env)
}

func TestCatalogBrowsing(t *testing.T) {
	srv := newTestServer(t, "catalog")

	status, env := srv.do(fiber.MethodGet, "/api/restaurants?limit=2", "", nil)
	srv.expect(status, fiber.StatusOK, env)
	if env.Pagination == nil || env.Pagination.Total != 3 || env.Pagination.Pages != 2 || env.Pagination.Limit != 2 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}
	list := decode[[]models.Restaurant](t, env.Data)
	if len(list) != 2 || list[0].Name != "Green Bowl" {
		t.Fatalf("expected best rated first, got %+v", list)
	}

	status, env = srv.do(fiber.MethodGet, "/api/restaurants?category=chinese", "", nil)
	srv.expect(status, fiber.StatusOK, env)
	if env.Pagination.Total != 1 {
		t.Fatalf("chinese restaurants = %d, want 1", env.Pagination.Total)
	}

	status, env = srv.do(fiber.MethodGet, "/api/restaurants?rating=7", "", nil)
	srv.expect(status, fiber.StatusBadRequest, env)
	if env.Field != "rating" || env.Message != "rating must be at most 5" {
		t.Fatalf("unexpected rating error: %+v", env)
	}

	status, env = srv.do(fiber.MethodGet, "/api/restaurants?rating=high", "", nil)
	srv.expect(status, fiber.StatusBadRequest, env)

	status, env = srv.do(fiber.MethodGet, "/api/restaurants?search=spice", "Bearer-less-garbage", nil)
	srv.expect(status, fiber.StatusOK, env)

	id := srv.restaurantID("Spice Route")
	status, env = srv.do(fiber.MethodGet, "/api/restaurants/"+id+"/menu?vegetarian=true", "", nil)
	srv.expect(status, fiber.StatusOK, env)
	menu := decode[services.Menu](t, env.Data)
	if len(menu.Items) != 3 {
		t.Fatalf("vegetarian items = %d, want 3", len(menu.Items))
	}
	for _, item := range menu.Items {
		if !item.IsVegetarian {
			t.Fatalf("non-vegetarian item %s in filtered menu", item.Name)
		}
	}

	status, env = srv.do(fiber.MethodGet, "/api/restaurants/"+uuid.NewString(), "", nil)
	srv.expect(status, fiber.StatusNotFound, env)

	status, env = srv.do(fiber.MethodGet, "/api/restaurants/not-an-id", "", nil)
	srv.expect(status, fiber.StatusNotFound, env)
}

func TestOrderLifecycle(t *testing.T) {
	srv := newTestServer(t, "orders")
	customer := srv.signup("bob", "+919800000003")
	other := srv.signup("carol", "+919800000004")
	admin := srv.superAdminToken()

	restaurantID := srv.restaurantID("Spice Route")
	var chicken, naan models.MenuItem
	srv.db.First(&chicken, "name = ?", "Butter Chicken")
	srv.db.First(&naan, "name = ?", "Garlic Naan")

	address := fiber.Map{"street": "1 Residency Road", "city": "Bengaluru"}

	status, env := srv.do(fiber.MethodPost, "/api/orders", "", fiber.Map{})
	srv.expect(status, fiber.StatusUnauthorized, env)

	status, env = srv.do(fiber.MethodPost, "/api/orders", customer, fiber.Map{
		"restaurantId":    restaurantID,
		"items":           []fiber.Map{{"menuItemId": naan.ID, "quantity": 2}},
		"deliveryAddress": address,
		"paymentMethod":   "cash_on_delivery",
	})
	srv.expect(status, fiber.StatusBadRequest, env)

	status, env = srv.do(fiber.MethodPost, "/api/orders", customer, fiber.Map{
		"restaurantId":    restaurantID,
		"items":           []fiber.Map{{"menuItemId": chicken.ID, "quantity": 1}},
		"deliveryAddress": address,
		"paymentMethod":   "cash_on_delivery",
	})
	srv.expect(status, fiber.StatusCreated, env)
	order := decode[models.Order](t, env.Data)
	if order.Status != models.OrderPending || order.Subtotal != 349 || order.Tax != 62.82 || order.Total != 460.82 {
		t.Fatalf("unexpected order: status=%s subtotal=%v tax=%v total=%v", order.Status, order.Subtotal, order.Tax, order.Total)
	}
	orderPath := "/api/orders/" + order.ID.String()

	status, env = srv.do(fiber.MethodGet, orderPath, other, nil)
	srv.expect(status, fiber.StatusNotFound, env)

	status, env = srv.do(fiber.MethodGet, "/api/orders", customer, nil)
	srv.expect(status, fiber.StatusOK, env)
	if env.Pagination.Total != 1 {
		t.Fatalf("customer orders = %d, want 1", env.Pagination.Total)
	}

	status, env = srv.do(fiber.MethodGet, "/api/admin/dashboard", customer, nil)
	srv.expect(status, fiber.StatusForbidden, env)

	status, env = srv.do(fiber.MethodGet, "/api/admin/orders/transitions", customer, nil)
	srv.expect(status, fiber.StatusForbidden, env)

	status, env = srv.do(fiber.MethodGet, "/api/admin/orders/transitions", admin, nil)
	srv.expect(status, fiber.StatusOK, env)
	lifecycle := decode[[]services.Transition](t, env.Data)
	if len(lifecycle) != len(services.Transitions()) || lifecycle[0].From != models.OrderPending {
		t.Fatalf("unexpected lifecycle: %+v", lifecycle)
	}

	status, env = srv.do(fiber.MethodPatch, "/api/admin/orders/"+order.ID.String()+"/status", admin, fiber.Map{"status": "delivered"})
	srv.expect(status, fiber.StatusBadRequest, env)

	status, env = srv.do(fiber.MethodPatch, "/api/admin/orders/"+order.ID.String()+"/status", admin, fiber.Map{"status": "confirmed"})
	srv.expect(status, fiber.StatusOK, env)
	if got := decode[models.Order](t, env.Data); got.Status != models.OrderConfirmed {
		t.Fatalf("status = %s, want confirmed", got.Status)
	}

	status, env = srv.do(fiber.MethodPost, orderPath+"/review", customer, fiber.Map{"rating": 5})
	srv.expect(status, fiber.StatusNotFound, env)

	status, env = srv.do(fiber.MethodPatch, orderPath+"/cancel", other, nil)
	srv.expect(status, fiber.StatusNotFound, env)

	status, env = srv.do(fiber.MethodPatch, orderPath+"/cancel", customer, nil)
	srv.expect(status, fiber.StatusOK, env)
	if got := decode[models.Order](t, env.Data); got.Status != models.OrderCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}

	status, env = srv.do(fiber.MethodPatch, orderPath+"/cancel", customer, nil)
	srv.expect(status, fiber.StatusBadRequest, env)

	status, env = srv.do(fiber.MethodGet, "/api/admin/dashboard", admin, nil)
	srv.expect(status, fiber.StatusOK, env)
	stats := decode[services.DashboardStats](t, env.Data)
	if stats.TotalOrders != 1 || stats.TotalRevenue != 0 {
		t.Fatalf("unexpected dashboard: %+v", stats)
	}
}

func TestProfileRoutes(t *testing.T) {
	srv := newTestServer(t, "profile")
	token := srv.signup("dave", "+919800000005")

	status, env := srv.do(fiber.MethodPost, "/api/profile/addresses", token, fiber.Map{
		"label": "home", "street": "5 Church Street", "city": "Bengaluru",
	})
	srv.expect(status, fiber.StatusCreated, env)
	first := decode[models.UserAddress](t, env.Data)
	if !first.IsDefault {
		t.Fatal("first address should become the default")
	}

	status, env = srv.do(fiber.MethodPut, "/api/profile/password", token, fiber.Map{
		"currentPassword": "Wr0ng!pass", "newPassword": "N3w!Passw0rd",
	})
	srv.expect(status, fiber.StatusBadRequest, env)
	if env.Field != "currentPassword" {
		t.Fatalf("field = %q, want currentPassword", env.Field)
	}

	status, env = srv.do(fiber.MethodPut, "/api/profile/password", token, fiber.Map{
		"currentPassword": "Passw0rd!", "newPassword": "N3w!Passw0rd",
	})
	srv.expect(status, fiber.StatusOK, env)
	srv.login("dave@example.com", "N3w!Passw0rd")

	status, env = srv.do(fiber.MethodDelete, "/api/profile/addresses/"+first.ID.String(), token, nil)
	srv.expect(status, fiber.StatusOK, env)

	status, env = srv.do(fiber.MethodGet, "/api/profile/addresses", token, nil)
	srv.expect(status, fiber.StatusOK, env)
	if list := decode[[]models.UserAddress](t, env.Data); len(list) != 0 {
		t.Fatalf("addresses = %d, want 0", len(list))
	}
}

func TestSuperAdminOnlyRoutes(t *testing.T) {
	srv := newTestServer(t, "superadmin")
	user := srv.signup("erin", "+919800000006")
	root := srv.superAdminToken()

	var erin models.User
	if err := srv.db.First(&erin, "username = ?", "erin").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	rolePath := "/api/admin/users/" + erin.ID.String() + "/role"

	status, env := srv.do(fiber.MethodPatch, rolePath, root, fiber.Map{"role": "admin"})
	srv.expect(status, fiber.StatusOK, env)

	// The promoted admin's existing token carries the new role on its next request.
	status, env = srv.do(fiber.MethodGet, "/api/admin/users", user, nil)
	srv.expect(status, fiber.StatusOK, env)
	if env.Pagination.Total != 2 {
		t.Fatalf("users = %d, want 2", env.Pagination.Total)
	}

	status, env = srv.do(fiber.MethodPatch, rolePath, user, fiber.Map{"role": "super_admin"})
	srv.expect(status, fiber.StatusForbidden, env)

	status, env = srv.do(fiber.MethodDelete, "/api/admin/users/"+erin.ID.String(), root, nil)
	srv.expect(status, fiber.StatusOK, env)

	status, env = srv.do(fiber.MethodGet, "/api/auth/me", user, nil)
	srv.expect(status, fiber.StatusUnauthorized, env)
}
