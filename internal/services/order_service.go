package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/events"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

const publishTimeout = 10 * time.Second

// OrderService validates, prices and persists orders and drives their
// status lifecycle.
type OrderService struct {
	db     *gorm.DB
	cfg    *config.Config
	events events.Publisher

	// Now is the clock used for order numbers, ETAs and idempotency windows.
	Now func() time.Time
}

// NewOrderService constructs an OrderService. A nil publisher disables events.
func NewOrderService(db *gorm.DB, cfg *config.Config, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{db: db, cfg: cfg, events: publisher, Now: time.Now}
}

// OrderLineInput is one requested cart line.
type OrderLineInput struct {
	MenuItemID          string `json:"menuItemId" validate:"required,uuid"`
	Quantity            int    `json:"quantity" validate:"min=1,max=100"`
	SpecialInstructions string `json:"specialInstructions" validate:"max=500"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	RestaurantID        string                  `json:"restaurantId" validate:"required,uuid"`
	Items               []OrderLineInput        `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress     *models.DeliveryAddress `json:"deliveryAddress"`
	AddressID           string                  `json:"addressId" validate:"omitempty,uuid"`
	PaymentMethod       string                  `json:"paymentMethod" validate:"required,oneof=cash_on_delivery card upi wallet net_banking"`
	SpecialInstructions string                  `json:"specialInstructions" validate:"max=500"`
	IdempotencyKey      string                  `json:"idempotencyKey" validate:"max=128"`
}

// RateInput is the payload of a post-delivery review.
type RateInput struct {
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Review string `json:"review" validate:"max=1000"`
}

// CreateOrder prices the cart against the current catalog and persists a
// pending order. Unit prices are snapshotted onto the order lines.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	now := s.Now()
	db := s.db.WithContext(ctx)

	address, err := s.resolveAddress(db, userID, in)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		var previous models.Order
		err := db.Select("order_number").
			Where("user_id = ? AND idempotency_key = ? AND created_at >= ?", userID, in.IdempotencyKey, now.Add(-s.cfg.IdempotencyWindow)).
			Order("created_at desc").
			First(&previous).Error
		if err == nil {
			return nil, newError(ErrConflict, "idempotencyKey", "order %s was already placed with this idempotency key", previous.OrderNumber)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var restaurant models.Restaurant
	if err := db.Where("id = ? AND is_active = ?", in.RestaurantID, true).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "restaurantId", "restaurant not found or not accepting orders")
		}
		return nil, err
	}

	lines := make([]PriceLine, 0, len(in.Items))
	items := make([]models.OrderItem, 0, len(in.Items))
	for i, line := range in.Items {
		var item models.MenuItem
		err := db.Where("id = ? AND restaurant_id = ? AND is_available = ?", line.MenuItemID, restaurant.ID, true).
			First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(ErrNotFound, fmt.Sprintf("items[%d].menuItemId", i),
					"menu item %s is not available from %s", line.MenuItemID, restaurant.Name)
			}
			return nil, err
		}

		lines = append(lines, PriceLine{UnitPrice: item.Price, Quantity: line.Quantity})
		items = append(items, models.OrderItem{
			MenuItemID:          item.ID,
			Name:                item.Name,
			Quantity:            line.Quantity,
			UnitPrice:           item.Price,
			PriceVersion:        item.PriceVersion,
			LineTotal:           LineTotal(item.Price, line.Quantity),
			SpecialInstructions: strings.TrimSpace(line.SpecialInstructions),
		})
	}

	price := PriceOrder(lines, restaurant.DeliveryFee)
	if BelowMinimum(price.Subtotal, restaurant.MinimumOrder) {
		return nil, newError(ErrBelowMinimumOrder, "items",
			"minimum order for %s is %.2f, current subtotal is %.2f", restaurant.Name, restaurant.MinimumOrder, price.Subtotal)
	}

	order := models.Order{
		OrderNumber:         utils.GenerateOrderNumber(now),
		UserID:              userID,
		RestaurantID:        restaurant.ID,
		Items:               items,
		Status:              models.OrderPending,
		PaymentStatus:       models.PaymentPending,
		PaymentMethod:       in.PaymentMethod,
		Subtotal:            price.Subtotal,
		DeliveryFee:         price.DeliveryFee,
		Tax:                 price.Tax,
		Discount:            price.Discount,
		Total:               price.Total,
		DeliveryAddress:     address,
		SpecialInstructions: strings.TrimSpace(in.SpecialInstructions),
		EstimatedDeliveryAt: EstimateDelivery(now, restaurant.DeliveryTime),
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		order.IdempotencyKey = &key
	}

	if err := db.Create(&order).Error; err != nil {
		return nil, err
	}

	created, err := s.load(ctx, db.Where("id = ?", order.ID))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderCreated, created, "")
	return created, nil
}

// CancelOrder moves an owned order to cancelled when its status allows it.
func (s *OrderService) CancelOrder(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error) {
	order, err := s.owned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, models.OrderCancelled, ActorCustomer)
}

// RateOrder records the single post-delivery rating of an owned order and
// folds it into the restaurant's average rating. An order that is already
// rated is reported as such whatever the new input.
func (s *OrderService) RateOrder(ctx context.Context, userID uuid.UUID, orderID string, in RateInput) (*models.Order, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.OrderDelivered).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "delivered order not found")
		}
		return nil, err
	}
	if order.Rating != nil {
		return nil, newError(ErrAlreadyRated, "rating", "this order has already been rated")
	}

	in.Review = strings.TrimSpace(in.Review)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	now := s.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND rating IS NULL", order.ID).
			Updates(map[string]any{"rating": in.Rating, "review": in.Review, "rated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrAlreadyRated, "rating", "this order has already been rated")
		}

		var restaurant models.Restaurant
		if err := tx.First(&restaurant, "id = ?", order.RestaurantID).Error; err != nil {
			return err
		}
		sum := restaurant.RatingSum
		if sum == 0 && restaurant.RatingCount > 0 {
			sum = decimal.NewFromFloat(restaurant.Rating).Mul(decimal.NewFromInt(int64(restaurant.RatingCount))).InexactFloat64()
		}
		rating, sum, count := foldRating(sum, restaurant.RatingCount, in.Rating)
		return tx.Model(&restaurant).Updates(map[string]any{"rating": rating, "rating_sum": sum, "rating_count": count}).Error
	})
	if err != nil {
		return nil, err
	}

	rated, err := s.load(ctx, s.db.WithContext(ctx).Where("id = ?", order.ID))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderRated, rated, "")
	return rated, nil
}

// ListOrders pages through the account's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, status string, pg utils.Pagination) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	query, err := filterStatus(query, status)
	if err != nil {
		return nil, 0, err
	}
	return s.page(query, pg, "Restaurant")
}

// GetOrder returns an order owned by the account. Orders of other accounts
// are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

// UpdateStatus applies an admin-driven lifecycle transition.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, to models.OrderStatus) (*models.Order, error) {
	if !ValidStatus(to) {
		return nil, newError(ErrValidation, "status", "status must be one of: %s", strings.Join(statusNames(), ", "))
	}

	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "order not found")
		}
		return nil, err
	}
	return s.transition(ctx, &order, to, ActorAdmin)
}

// ListAllOrders pages through every order for the admin console. search
// matches the order number.
func (s *OrderService) ListAllOrders(ctx context.Context, status, search string, pg utils.Pagination) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	query, err := filterStatus(query, status)
	if err != nil {
		return nil, 0, err
	}
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(order_number) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	return s.page(query, pg, "Restaurant", "User")
}

// RecentOrders returns the latest orders across all accounts.
func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").Preload("User").Preload("Restaurant").
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// DashboardStats aggregates counts and revenue for the admin dashboard.
type DashboardStats struct {
	TotalUsers       int64            `json:"totalUsers"`
	TotalRestaurants int64            `json:"totalRestaurants"`
	TotalOrders      int64            `json:"totalOrders"`
	OrdersByStatus   map[string]int64 `json:"ordersByStatus"`
	TotalRevenue     float64          `json:"totalRevenue"`
	TodayRevenue     float64          `json:"todayRevenue"`
}

// Dashboard computes DashboardStats. Revenue excludes cancelled orders.
func (s *OrderService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{OrdersByStatus: map[string]int64{}}

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Restaurant{}).Where("is_active = ?", true).Count(&stats.TotalRestaurants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Model(&models.Order{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, sc := range counts {
		stats.OrdersByStatus[sc.Status] = sc.Count
	}

	if err := db.Model(&models.Order{}).
		Where("status <> ?", models.OrderCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}

	now := s.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.Order{}).
		Where("status <> ? AND created_at >= ?", models.OrderCancelled, midnight).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.TodayRevenue).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// transition checks the lifecycle table and applies the change only if the
// stored status still matches, so concurrent changes cannot skip a step.
func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus, actor Actor) (*models.Order, error) {
	from := order.Status
	if err := CanTransition(from, to, actor); err != nil {
		return nil, err
	}

	updates := map[string]any{"status": to}
	if to == models.OrderDelivered {
		updates["actual_delivery_at"] = s.Now()
		if order.PaymentMethod == models.PaymentCashOnDelivery {
			updates["payment_status"] = models.PaymentPaid
		}
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, newError(ErrInvalidState, "status", "order status changed concurrently, please retry")
	}

	updated, err := s.load(ctx, s.db.WithContext(ctx).Where("id = ?", order.ID))
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderStatusChanged, updated, from)
	return updated, nil
}

// resolveAddress picks the delivery address for a checkout: an inline
// address, then a saved address by id, then the account's default. Saved
// addresses are copied so later edits do not reach the order.
func (s *OrderService) resolveAddress(db *gorm.DB, userID uuid.UUID, in CreateOrderInput) (models.DeliveryAddress, error) {
	if in.DeliveryAddress != nil {
		return *in.DeliveryAddress, nil
	}

	if in.AddressID != "" {
		saved, err := ownedAddress(db, userID, in.AddressID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return models.DeliveryAddress{}, newError(ErrNotFound, "addressId", "address not found")
			}
			return models.DeliveryAddress{}, err
		}
		return saved.Snapshot(), nil
	}

	saved, err := defaultAddress(db, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.DeliveryAddress{}, newError(ErrValidation, "deliveryAddress", "deliveryAddress is required when no default address is saved")
		}
		return models.DeliveryAddress{}, err
	}
	return saved.Snapshot(), nil
}

func (s *OrderService) owned(ctx context.Context, userID uuid.UUID, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) load(ctx context.Context, query *gorm.DB) (*models.Order, error) {
	var order models.Order
	err := query.WithContext(ctx).
		Preload("Restaurant").
		Preload("Items.MenuItem").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "order not found")
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) page(query *gorm.DB, pg utils.Pagination, preloads ...string) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Items")
	for _, p := range preloads {
		query = query.Preload(p)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Limit(pg.Limit).Offset(pg.Offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// publish emits an order event in the background. Broker failures are
// logged and never fail the request.
func (s *OrderService) publish(ctx context.Context, key string, order *models.Order, previous models.OrderStatus) {
	ev := events.OrderEvent{
		OrderID:      order.ID.String(),
		OrderNumber:  order.OrderNumber,
		UserID:       order.UserID.String(),
		RestaurantID: order.RestaurantID.String(),
		Status:       string(order.Status),
		Previous:     string(previous),
		Total:        order.Total,
		Rating:       order.Rating,
		OccurredAt:   s.Now(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	go func() {
		defer cancel()
		if err := s.events.Publish(pubCtx, key, ev); err != nil {
			log.Printf("[Orders] failed to publish %s for %s: %v", key, ev.OrderNumber, err)
		}
	}()
}

func filterStatus(query *gorm.DB, status string) (*gorm.DB, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return query, nil
	}
	if !ValidStatus(models.OrderStatus(status)) {
		return nil, newError(ErrValidation, "status", "status must be one of: %s", strings.Join(statusNames(), ", "))
	}
	return query.Where("status = ?", status), nil
}

func statusNames() []string {
	all := []models.OrderStatus{
		models.OrderPending, models.OrderConfirmed, models.OrderPreparing, models.OrderReady,
		models.OrderOutForDelivery, models.OrderDelivered, models.OrderCancelled,
	}
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = string(st)
	}
	return names
}

// foldRating adds one score to the running sum and returns the average
// rounded to one decimal. The sum is kept unrounded.
func foldRating(sum float64, count, score int) (float64, float64, int) {
	total := decimal.NewFromFloat(sum).Add(decimal.NewFromInt(int64(score)))
	count++
	avg, _ := total.Div(decimal.NewFromInt(int64(count))).Round(1).Float64()
	return avg, total.InexactFloat64(), count
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, newError(ErrNotFound, "", "%s not found", what)
	}
	return id, nil
}
