package models

import "github.com/google/uuid"

// RestaurantCategories is the closed set of restaurant cuisines.
var RestaurantCategories = []string{
	"indian", "chinese", "italian", "mexican", "thai", "japanese",
	"american", "continental", "fast_food", "desserts", "beverages", "healthy",
}

// RestaurantFeatures is the closed set of restaurant feature tags.
var RestaurantFeatures = []string{
	"pure_veg", "free_delivery", "fast_delivery", "offers", "new_arrival", "top_rated",
}

// Location is the restaurant's address and optional coordinates.
type Location struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zipCode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Contact holds public contact details of a restaurant.
type Contact struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// OperatingHours describes one weekday's opening window.
type OperatingHours struct {
	Day    string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Open   string `json:"open" validate:"omitempty,datetime=15:04"`
	Close  string `json:"close" validate:"omitempty,datetime=15:04"`
	Closed bool   `json:"closed"`
}

type Restaurant struct {
	BaseModel
	Name           string           `gorm:"size:255;index" json:"name"`
	Description    string           `json:"description"`
	Category       string           `gorm:"size:64;index" json:"category"`
	Image          string           `json:"image"`
	Rating         float64          `json:"rating"`
	RatingCount    int              `json:"ratingCount"`
	RatingSum      float64          `json:"-"`
	DeliveryTime   string           `gorm:"size:64" json:"deliveryTime"`
	DeliveryFee    float64          `json:"deliveryFee"`
	MinimumOrder   float64          `json:"minimumOrder"`
	IsActive       bool             `gorm:"index" json:"isActive"`
	Location       Location         `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Contact        Contact          `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	OperatingHours []OperatingHours `gorm:"serializer:json;type:text" json:"operatingHours"`
	Features       []string         `gorm:"serializer:json;type:text" json:"features"`
	MenuItems      []MenuItem       `json:"menuItems,omitempty"`
}

// MenuCategories is the closed set of menu item categories.
var MenuCategories = []string{
	"appetizers", "main_course", "desserts", "beverages", "sides", "breads", "rice", "combos",
}

// SpiceLevels is the closed set of spice tags.
var SpiceLevels = []string{"mild", "medium", "hot", "extra_hot"}

// Nutrition is per-serving nutrition information.
type Nutrition struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type MenuItem struct {
	BaseModel
	RestaurantID uuid.UUID   `gorm:"type:uuid;index" json:"restaurantId"`
	Restaurant   *Restaurant `json:"restaurant,omitempty"`
	Name         string      `gorm:"size:255" json:"name"`
	Description  string      `json:"description"`
	Image        string      `json:"image"`
	Price        float64     `json:"price"`
	PriceVersion int         `json:"priceVersion"`
	Category     string      `gorm:"size:64;index" json:"category"`
	IsAvailable  bool        `gorm:"index" json:"isAvailable"`
	IsVegetarian bool        `json:"isVegetarian"`
	SpiceLevel   string      `gorm:"size:32" json:"spiceLevel"`
	Nutrition    Nutrition   `gorm:"embedded;embeddedPrefix:nutrition_" json:"nutrition"`
	Ingredients  []string    `gorm:"serializer:json;type:text" json:"ingredients"`
	Allergens    []string    `gorm:"serializer:json;type:text" json:"allergens"`
	Rating       float64     `json:"rating"`
}
