package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is a step of the order lifecycle.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// PaymentStatus tracks settlement of an order. No gateway is integrated.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethods is the closed set of accepted payment method tags.
var PaymentMethods = []string{"cash_on_delivery", "card", "upi", "wallet", "net_banking"}

const PaymentCashOnDelivery = "cash_on_delivery"

// DeliveryAddress is the address copied onto an order at checkout.
type DeliveryAddress struct {
	Label      string   `json:"label"`
	Street     string   `json:"street" validate:"required"`
	Apartment  string   `json:"apartment"`
	City       string   `json:"city" validate:"required"`
	State      string   `json:"state"`
	PostalCode string   `json:"postalCode"`
	Landmark   string   `json:"landmark"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type Order struct {
	BaseModel
	OrderNumber         string          `gorm:"uniqueIndex;size:32" json:"orderNumber"`
	UserID              uuid.UUID       `gorm:"type:uuid;index" json:"userId"`
	User                *User           `json:"user,omitempty"`
	RestaurantID        uuid.UUID       `gorm:"type:uuid;index" json:"restaurantId"`
	Restaurant          *Restaurant     `json:"restaurant,omitempty"`
	Items               []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Status              OrderStatus     `gorm:"size:32;index" json:"status"`
	PaymentStatus       PaymentStatus   `gorm:"size:32" json:"paymentStatus"`
	PaymentMethod       string          `gorm:"size:32" json:"paymentMethod"`
	Subtotal            float64         `json:"subtotal"`
	DeliveryFee         float64         `json:"deliveryFee"`
	Tax                 float64         `json:"tax"`
	Discount            float64         `json:"discount"`
	Total               float64         `json:"total"`
	DeliveryAddress     DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress"`
	SpecialInstructions string          `json:"specialInstructions"`
	EstimatedDeliveryAt time.Time       `json:"estimatedDeliveryTime"`
	ActualDeliveryAt    *time.Time      `json:"actualDeliveryTime,omitempty"`
	Rating              *int            `json:"rating,omitempty"`
	Review              string          `json:"review,omitempty"`
	RatedAt             *time.Time      `json:"ratedAt,omitempty"`
	IdempotencyKey      *string         `gorm:"size:128;index" json:"-"`
}

// OrderItem is one line of an order. Name, UnitPrice and PriceVersion are
// copied from the menu at checkout and never recomputed.
type OrderItem struct {
	BaseModel
	OrderID             uuid.UUID `gorm:"type:uuid;index" json:"orderId"`
	MenuItemID          uuid.UUID `gorm:"type:uuid;index" json:"menuItemId"`
	MenuItem            *MenuItem `json:"menuItem,omitempty"`
	Name                string    `json:"name"`
	Quantity            int       `json:"quantity"`
	UnitPrice           float64   `json:"unitPrice"`
	PriceVersion        int       `json:"priceVersion"`
	LineTotal           float64   `json:"lineTotal"`
	SpecialInstructions string    `json:"specialInstructions,omitempty"`
}
