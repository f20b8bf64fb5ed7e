package services

import (
	"testing"
	"time"
)

func TestPriceOrder(t *testing.T) {
	tests := []struct {
		name  string
		lines []PriceLine
		fee   float64
		want  Pricing
	}{
		{
			name:  "two lines with delivery fee",
			lines: []PriceLine{{UnitPrice: 100, Quantity: 2}, {UnitPrice: 50, Quantity: 1}},
			fee:   49,
			want:  Pricing{Subtotal: 250, DeliveryFee: 49, Tax: 45, Total: 344},
		},
		{
			name:  "tax rounds to cents",
			lines: []PriceLine{{UnitPrice: 99.99, Quantity: 3}},
			fee:   0,
			want:  Pricing{Subtotal: 299.97, Tax: 53.99, Total: 353.96},
		},
		{
			name:  "float noise does not leak",
			lines: []PriceLine{{UnitPrice: 0.1, Quantity: 1}, {UnitPrice: 0.2, Quantity: 1}},
			fee:   10,
			want:  Pricing{Subtotal: 0.3, DeliveryFee: 10, Tax: 0.05, Total: 10.35},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceOrder(tt.lines, tt.fee)
			if got != tt.want {
				t.Fatalf("PriceOrder = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBelowMinimum(t *testing.T) {
	if BelowMinimum(199, 199) {
		t.Fatal("subtotal equal to the minimum must be accepted")
	}
	if !BelowMinimum(198.99, 199) {
		t.Fatal("subtotal below the minimum must be rejected")
	}
	if BelowMinimum(0, 0) {
		t.Fatal("zero minimum accepts an empty subtotal")
	}
}

func TestParseDeliveryMinutes(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"25-35 min", 25, true},
		{"45 mins", 45, true},
		{"Delivers in 20 to 30 minutes", 20, true},
		{"about an hour", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDeliveryMinutes(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseDeliveryMinutes(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEstimateDelivery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := EstimateDelivery(now, "25-35 min"); !got.Equal(now.Add(35 * time.Minute)) {
		t.Fatalf("EstimateDelivery = %v, want +35m", got)
	}
	if got := EstimateDelivery(now, "soon"); !got.Equal(now.Add(40 * time.Minute)) {
		t.Fatalf("EstimateDelivery without a number = %v, want +40m", got)
	}
}

func TestPriceChanged(t *testing.T) {
	if PriceChanged(249, 249.001) {
		t.Fatal("sub-cent differences are not price changes")
	}
	if !PriceChanged(249, 259) {
		t.Fatal("expected a price change")
	}
}
