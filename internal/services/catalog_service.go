package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

// CatalogService serves restaurant and menu browsing plus admin edits.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// RestaurantFilter narrows ListRestaurants. Zero values disable a filter.
type RestaurantFilter struct {
	Category  string
	MinRating float64
	Search    string
}

// MenuFilter narrows GetMenu.
type MenuFilter struct {
	Category   string
	Vegetarian *bool
}

// Menu is a page of a restaurant's available items, flat and grouped by category.
type Menu struct {
	Restaurant *models.Restaurant           `json:"restaurant"`
	Items      []models.MenuItem            `json:"items"`
	Grouped    map[string][]models.MenuItem `json:"groupedItems"`
	Total      int64                        `json:"-"`
}

// ListRestaurants pages through active restaurants, best rated first.
func (s *CatalogService) ListRestaurants(ctx context.Context, f RestaurantFilter, pg utils.Pagination) ([]models.Restaurant, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("is_active = ?", true)

	if category := strings.TrimSpace(f.Category); category != "" {
		query = query.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(category)+"%")
	}
	if f.MinRating > 0 {
		query = query.Where("rating >= ?", f.MinRating)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var restaurants []models.Restaurant
	err := query.Order("rating desc").Order("name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&restaurants).Error
	if err != nil {
		return nil, 0, err
	}
	return restaurants, total, nil
}

// GetRestaurant returns an active restaurant.
func (s *CatalogService) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	rid, err := parseID(id, "restaurant")
	if err != nil {
		return nil, err
	}

	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", rid, true).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "restaurant not found")
		}
		return nil, err
	}
	return &restaurant, nil
}

// GetMenu returns the available items of an active restaurant.
func (s *CatalogService) GetMenu(ctx context.Context, restaurantID string, f MenuFilter, pg utils.Pagination) (*Menu, error) {
	restaurant, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("restaurant_id = ? AND is_available = ?", restaurant.ID, true)
	if category := strings.TrimSpace(f.Category); category != "" {
		query = query.Where("LOWER(category) LIKE ?", "%"+strings.ToLower(category)+"%")
	}
	if f.Vegetarian != nil {
		query = query.Where("is_vegetarian = ?", *f.Vegetarian)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.MenuItem
	if err := query.Order("category asc").Order("name asc").Limit(pg.Limit).Offset(pg.Offset).Find(&items).Error; err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.MenuItem)
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}

	return &Menu{Restaurant: restaurant, Items: items, Grouped: grouped, Total: total}, nil
}

// RestaurantInput is the admin payload for creating or replacing a restaurant.
type RestaurantInput struct {
	Name           string                  `json:"name" validate:"required,max=255"`
	Description    string                  `json:"description" validate:"max=2000"`
	Category       string                  `json:"category" validate:"required,oneof=indian chinese italian mexican thai japanese american continental fast_food desserts beverages healthy"`
	Image          string                  `json:"image" validate:"omitempty,url"`
	DeliveryTime   string                  `json:"deliveryTime" validate:"required,max=64"`
	DeliveryFee    float64                 `json:"deliveryFee" validate:"gte=0"`
	MinimumOrder   float64                 `json:"minimumOrder" validate:"gte=0"`
	IsActive       *bool                   `json:"isActive"`
	Location       models.Location         `json:"location"`
	Contact        models.Contact          `json:"contact"`
	OperatingHours []models.OperatingHours `json:"operatingHours" validate:"dive"`
	Features       []string                `json:"features" validate:"dive,oneof=pure_veg free_delivery fast_delivery offers new_arrival top_rated"`
}

func (in RestaurantInput) apply(r *models.Restaurant) {
	r.Name = strings.TrimSpace(in.Name)
	r.Description = strings.TrimSpace(in.Description)
	r.Category = in.Category
	r.Image = in.Image
	r.DeliveryTime = strings.TrimSpace(in.DeliveryTime)
	r.DeliveryFee = in.DeliveryFee
	r.MinimumOrder = in.MinimumOrder
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
	r.Location = in.Location
	r.Contact = in.Contact
	r.OperatingHours = in.OperatingHours
	r.Features = in.Features
}

// CreateRestaurant adds a restaurant. It is active unless isActive is false.
func (s *CatalogService) CreateRestaurant(ctx context.Context, in RestaurantInput) (*models.Restaurant, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	restaurant := models.Restaurant{IsActive: true}
	in.apply(&restaurant)
	if err := s.db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// UpdateRestaurant replaces a restaurant's editable fields. Rating and
// rating count are derived from reviews and are not editable. Setting
// isActive to false hides the restaurant from browsing and ordering.
func (s *CatalogService) UpdateRestaurant(ctx context.Context, id string, in RestaurantInput) (*models.Restaurant, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	restaurant, err := s.findRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(restaurant)
	if err := s.db.WithContext(ctx).Save(restaurant).Error; err != nil {
		return nil, err
	}
	return restaurant, nil
}

// MenuItemInput is the admin payload for creating or replacing a menu item.
type MenuItemInput struct {
	Name         string           `json:"name" validate:"required,max=255"`
	Description  string           `json:"description" validate:"max=2000"`
	Image        string           `json:"image" validate:"omitempty,url"`
	Price        float64          `json:"price" validate:"gte=0"`
	Category     string           `json:"category" validate:"required,oneof=appetizers main_course desserts beverages sides breads rice combos"`
	IsAvailable  *bool            `json:"isAvailable"`
	IsVegetarian bool             `json:"isVegetarian"`
	SpiceLevel   string           `json:"spiceLevel" validate:"omitempty,oneof=mild medium hot extra_hot"`
	Nutrition    models.Nutrition `json:"nutrition"`
	Ingredients  []string         `json:"ingredients" validate:"dive,required"`
	Allergens    []string         `json:"allergens" validate:"dive,required"`
}

func (in MenuItemInput) apply(item *models.MenuItem) {
	item.Name = strings.TrimSpace(in.Name)
	item.Description = strings.TrimSpace(in.Description)
	item.Image = in.Image
	item.Price = in.Price
	item.Category = in.Category
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}
	item.IsVegetarian = in.IsVegetarian
	item.SpiceLevel = in.SpiceLevel
	if item.SpiceLevel == "" {
		item.SpiceLevel = "mild"
	}
	item.Nutrition = in.Nutrition
	item.Ingredients = in.Ingredients
	item.Allergens = in.Allergens
}

// CreateMenuItem adds an item to a restaurant's menu at price version 1.
func (s *CatalogService) CreateMenuItem(ctx context.Context, restaurantID string, in MenuItemInput) (*models.MenuItem, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	restaurant, err := s.findRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	item := models.MenuItem{RestaurantID: restaurant.ID, IsAvailable: true, PriceVersion: 1}
	in.apply(&item)
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateMenuItem replaces a menu item's fields. A price change bumps the
// item's price version; existing orders keep the price they were placed at.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, id string, in MenuItemInput) (*models.MenuItem, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, validationError(err)
	}

	item, err := s.findMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPrice := item.Price
	in.apply(item)
	if PriceChanged(oldPrice, item.Price) {
		item.PriceVersion++
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteMenuItem removes a menu item. Items referenced by past orders are
// retired by marking them unavailable instead; retired reports which
// happened.
func (s *CatalogService) DeleteMenuItem(ctx context.Context, id string) (retired bool, err error) {
	item, err := s.findMenuItem(ctx, id)
	if err != nil {
		return false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", item.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			retired = true
			return tx.Model(item).Update("is_available", false).Error
		}
		return tx.Delete(item).Error
	})
	return retired, err
}

func (s *CatalogService) findRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	rid, err := parseID(id, "restaurant")
	if err != nil {
		return nil, err
	}
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).First(&restaurant, "id = ?", rid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "restaurant not found")
		}
		return nil, err
	}
	return &restaurant, nil
}

func (s *CatalogService) findMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	mid, err := parseID(id, "menu item")
	if err != nil {
		return nil, err
	}
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", mid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "", "menu item not found")
		}
		return nil, err
	}
	return &item, nil
}
