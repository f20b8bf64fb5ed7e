package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

type seedRestaurant struct {
	restaurant models.Restaurant
	items      []models.MenuItem
}

func fixtures() []seedRestaurant {
	week := func(open, close string) []models.OperatingHours {
		days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
		hours := make([]models.OperatingHours, 0, len(days))
		for _, d := range days {
			hours = append(hours, models.OperatingHours{Day: d, Open: open, Close: close})
		}
		return hours
	}

	return []seedRestaurant{
		{
			restaurant: models.Restaurant{
				Name:           "Spice Route",
				Description:    "North Indian curries and tandoor specials",
				Category:       "indian",
				Rating:         4.4,
				RatingCount:    120,
				RatingSum:      528,
				DeliveryTime:   "25-35 min",
				DeliveryFee:    49,
				MinimumOrder:   199,
				IsActive:       true,
				Location:       models.Location{Street: "12 MG Road", City: "Bengaluru", State: "Karnataka", ZipCode: "560001"},
				Contact:        models.Contact{Phone: "+918040000001", Email: "hello@spiceroute.example"},
				OperatingHours: week("11:00", "23:00"),
				Features:       []string{"top_rated", "offers"},
			},
			items: []models.MenuItem{
				{Name: "Paneer Tikka", Price: 249, Category: "appetizers", IsVegetarian: true, SpiceLevel: "medium",
					Ingredients: []string{"paneer", "yogurt", "spices"}, Allergens: []string{"dairy"},
					Nutrition: models.Nutrition{Calories: 320, Protein: 18, Carbs: 10, Fat: 22}},
				{Name: "Butter Chicken", Price: 349, Category: "main_course", SpiceLevel: "mild",
					Ingredients: []string{"chicken", "butter", "tomato", "cream"}, Allergens: []string{"dairy"}},
				{Name: "Garlic Naan", Price: 60, Category: "breads", IsVegetarian: true, SpiceLevel: "mild",
					Allergens: []string{"gluten", "dairy"}},
				{Name: "Gulab Jamun", Price: 99, Category: "desserts", IsVegetarian: true, SpiceLevel: "mild"},
			},
		},
		{
			restaurant: models.Restaurant{
				Name:           "Dragon Wok",
				Description:    "Indo-Chinese street favourites",
				Category:       "chinese",
				Rating:         4.1,
				RatingCount:    86,
				RatingSum:      352.6,
				DeliveryTime:   "30-40 min",
				DeliveryFee:    39,
				MinimumOrder:   149,
				IsActive:       true,
				Location:       models.Location{Street: "4 Park Street", City: "Kolkata", State: "West Bengal", ZipCode: "700016"},
				Contact:        models.Contact{Phone: "+913340000002"},
				OperatingHours: week("12:00", "23:30"),
				Features:       []string{"fast_delivery"},
			},
			items: []models.MenuItem{
				{Name: "Veg Hakka Noodles", Price: 179, Category: "main_course", IsVegetarian: true, SpiceLevel: "medium",
					Allergens: []string{"gluten", "soy"}},
				{Name: "Chilli Chicken", Price: 259, Category: "appetizers", SpiceLevel: "hot", Allergens: []string{"soy"}},
				{Name: "Egg Fried Rice", Price: 169, Category: "rice", SpiceLevel: "mild", Allergens: []string{"egg", "soy"}},
			},
		},
		{
			restaurant: models.Restaurant{
				Name:           "Green Bowl",
				Description:    "Salads, smoothies and grain bowls",
				Category:       "healthy",
				Rating:         4.6,
				RatingCount:    54,
				RatingSum:      248.4,
				DeliveryTime:   "20-30 min",
				DeliveryFee:    0,
				MinimumOrder:   0,
				IsActive:       true,
				Location:       models.Location{Street: "88 Linking Road", City: "Mumbai", State: "Maharashtra", ZipCode: "400050"},
				OperatingHours: week("08:00", "22:00"),
				Features:       []string{"pure_veg", "free_delivery", "new_arrival"},
			},
			items: []models.MenuItem{
				{Name: "Quinoa Power Bowl", Price: 299, Category: "main_course", IsVegetarian: true, SpiceLevel: "mild",
					Nutrition: models.Nutrition{Calories: 450, Protein: 16, Carbs: 60, Fat: 14}},
				{Name: "Mango Smoothie", Price: 149, Category: "beverages", IsVegetarian: true, SpiceLevel: "mild",
					Allergens: []string{"dairy"}},
			},
		},
	}
}

// SeedCatalog inserts the demo restaurants and menus that are not present
// yet, matched by restaurant name. It returns the number of restaurants created.
func SeedCatalog(ctx context.Context, conn *gorm.DB) (int, error) {
	created := 0
	for _, fx := range fixtures() {
		var existing models.Restaurant
		err := conn.WithContext(ctx).Where("name = ?", fx.restaurant.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		err = conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			restaurant := fx.restaurant
			if err := tx.Create(&restaurant).Error; err != nil {
				return err
			}
			for _, item := range fx.items {
				item.RestaurantID = restaurant.ID
				item.IsAvailable = true
				item.PriceVersion = 1
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", fx.restaurant.Name, err)
		}
		created++
	}
	return created, nil
}

// EnsureSuperAdmin creates a verified super_admin account from externally
// supplied credentials unless an account with that email already exists.
func EnsureSuperAdmin(ctx context.Context, conn *gorm.DB, admin config.SeedAdmin) (bool, error) {
	if !utils.ValidPassword(admin.Password) {
		return false, errors.New(utils.PasswordPolicyMessage)
	}
	if !utils.ValidMobile(admin.Mobile) {
		return false, errors.New("seed admin mobile is invalid")
	}

	email := utils.NormalizeEmail(admin.Email)
	var existing models.User
	err := conn.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}

	user := models.User{
		Username:      admin.Username,
		Email:         email,
		Mobile:        utils.NormalizeMobile(admin.Mobile),
		PasswordHash:  hash,
		IsVerified:    true,
		Role:          models.RoleSuperAdmin,
		Notifications: models.DefaultNotificationPreferences(),
	}
	if err := conn.WithContext(ctx).Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
