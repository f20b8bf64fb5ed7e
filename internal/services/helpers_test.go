package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/database"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, t.Name())

	conn, err := database.Open("sqlite://file:"+name+"?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		TokenTTL:               7 * 24 * time.Hour,
		OTPTTL:                 10 * time.Minute,
		PendingSignupRetention: 24 * time.Hour,
		IdempotencyWindow:      24 * time.Hour,
	}
}

type sentMessage struct {
	kind  string
	email string
	code  string
}

// recordingNotifier captures sent messages and optionally fails every send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
	ch   chan sentMessage
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan sentMessage, 16)}
}

func (n *recordingNotifier) SendOTP(_ context.Context, email, _, code string) error {
	return n.record(sentMessage{kind: "otp", email: email, code: code})
}

func (n *recordingNotifier) SendWelcome(_ context.Context, email, _ string) error {
	return n.record(sentMessage{kind: "welcome", email: email})
}

func (n *recordingNotifier) record(m sentMessage) error {
	n.mu.Lock()
	n.sent = append(n.sent, m)
	n.mu.Unlock()
	select {
	case n.ch <- m:
	default:
	}
	return n.fail
}

func (n *recordingNotifier) wait(t *testing.T, kind string) sentMessage {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-n.ch:
			if m.kind == kind {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s message", kind)
		}
	}
}

// fixedClock returns a clock starting at start that can be advanced.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(start time.Time) *fixedClock {
	return &fixedClock{now: start}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newAccountService(t *testing.T, db *gorm.DB) (*AccountService, *recordingNotifier) {
	t.Helper()
	notifier := newRecordingNotifier()
	svc := NewAccountService(db, testConfig(), notifier)
	svc.hashCost = bcrypt.MinCost
	return svc, notifier
}

var mobileSeq atomic.Int64

// createUser inserts a verified account directly.
func createUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPasswordCost("Passw0rd!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{
		Username:      username,
		Email:         username + "@example.com",
		Mobile:        fmt.Sprintf("+9190000%05d", mobileSeq.Add(1)),
		PasswordHash:  hash,
		IsVerified:    true,
		Role:          role,
		Notifications: models.DefaultNotificationPreferences(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &user
}

// createRestaurant inserts an active restaurant with the given menu prices.
func createRestaurant(t *testing.T, db *gorm.DB, name string, fee, minimum float64, prices ...float64) (*models.Restaurant, []models.MenuItem) {
	t.Helper()
	restaurant := models.Restaurant{
		Name:         name,
		Category:     "indian",
		DeliveryTime: "25-35 min",
		DeliveryFee:  fee,
		MinimumOrder: minimum,
		IsActive:     true,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("create restaurant: %v", err)
	}

	items := make([]models.MenuItem, 0, len(prices))
	for i, price := range prices {
		item := models.MenuItem{
			RestaurantID: restaurant.ID,
			Name:         name + " dish " + string(rune('A'+i)),
			Price:        price,
			PriceVersion: 1,
			Category:     "main_course",
			IsAvailable:  true,
			SpiceLevel:   "mild",
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create menu item: %v", err)
		}
		items = append(items, item)
	}
	return &restaurant, items
}
