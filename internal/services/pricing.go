package services

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat tax applied to an order subtotal.
var TaxRate = decimal.RequireFromString("0.18")

const (
	// DeliveryBuffer is added on top of the restaurant's advertised delivery time.
	DeliveryBuffer = 10 * time.Minute
	// DefaultDeliveryMinutes is used when the delivery time string has no number.
	DefaultDeliveryMinutes = 30
)

var firstInteger = regexp.MustCompile(`\d+`)

// PriceLine is one priced line entering the pricing calculation.
type PriceLine struct {
	UnitPrice float64
	Quantity  int
}

// Pricing is the derived price breakdown of an order.
type Pricing struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Tax         float64 `json:"tax"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// LineTotal returns unit price times quantity rounded to cents.
func LineTotal(unitPrice float64, quantity int) float64 {
	return money(decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))))
}

// PriceOrder computes subtotal, tax and total:
// tax = round(subtotal * TaxRate, 2), total = subtotal + deliveryFee + tax.
func PriceOrder(lines []PriceLine, deliveryFee float64) Pricing {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	fee := decimal.NewFromFloat(deliveryFee).Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	total := subtotal.Add(fee).Add(tax)

	return Pricing{
		Subtotal:    money(subtotal),
		DeliveryFee: money(fee),
		Tax:         money(tax),
		Total:       money(total),
	}
}

// BelowMinimum reports whether subtotal is strictly below the restaurant minimum.
func BelowMinimum(subtotal, minimum float64) bool {
	return decimal.NewFromFloat(subtotal).LessThan(decimal.NewFromFloat(minimum))
}

// PriceChanged compares two prices at cent precision.
func PriceChanged(old, updated float64) bool {
	return !decimal.NewFromFloat(old).Round(2).Equal(decimal.NewFromFloat(updated).Round(2))
}

// ParseDeliveryMinutes extracts the first integer from a display string such
// as "25-35 min". ok is false when the string carries no number.
func ParseDeliveryMinutes(deliveryTime string) (int, bool) {
	match := firstInteger.FindString(deliveryTime)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// EstimateDelivery returns now plus the advertised lower bound plus the buffer.
func EstimateDelivery(now time.Time, deliveryTime string) time.Time {
	minutes, ok := ParseDeliveryMinutes(deliveryTime)
	if !ok {
		minutes = DefaultDeliveryMinutes
	}
	return now.Add(time.Duration(minutes)*time.Minute + DeliveryBuffer)
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
