package services

import (
	"context"
	"testing"

	"github.com/example/foodexpress/internal/models"
	"github.com/example/foodexpress/internal/utils"
)

func TestListRestaurantsFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	fixtures := []models.Restaurant{
		{Name: "Spice Route", Category: "indian", Rating: 4.4, IsActive: true},
		{Name: "Dragon Wok", Category: "chinese", Rating: 3.9, IsActive: true},
		{Name: "Fast Fuel", Category: "fast_food", Rating: 4.8, IsActive: true},
		{Name: "Closed Kitchen", Category: "indian", Rating: 5, IsActive: false},
	}
	for i := range fixtures {
		if err := db.Create(&fixtures[i]).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter RestaurantFilter
		want   []string
	}{
		{"active only, best rated first", RestaurantFilter{}, []string{"Fast Fuel", "Spice Route", "Dragon Wok"}},
		{"category substring any case", RestaurantFilter{Category: "FAST"}, []string{"Fast Fuel"}},
		{"rating floor", RestaurantFilter{MinRating: 4}, []string{"Fast Fuel", "Spice Route"}},
		{"name search", RestaurantFilter{Search: "wok"}, []string{"Dragon Wok"}},
		{"inactive never listed", RestaurantFilter{Category: "indian"}, []string{"Spice Route"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := svc.ListRestaurants(ctx, tt.filter, utils.NewPagination(1, 20))
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if int(total) != len(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("got %d (total %d), want %d", len(got), total, len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Fatalf("position %d = %s, want %s", i, got[i].Name, name)
				}
			}
		})
	}

	page, total, err := svc.ListRestaurants(ctx, RestaurantFilter{}, utils.NewPagination(2, 2))
	if err != nil || total != 3 || len(page) != 1 || page[0].Name != "Dragon Wok" {
		t.Fatalf("second page = %v (total %d, err %v)", page, total, err)
	}
}

func TestGetMenu(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	restaurant, items := createRestaurant(t, db, "Spice Route", 49, 0, 100, 200, 300)
	if err := db.Model(&items[0]).Updates(map[string]any{"category": "desserts", "is_vegetarian": true}).Error; err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := db.Model(&items[2]).Update("is_available", false).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	menu, err := svc.GetMenu(ctx, restaurant.ID.String(), MenuFilter{}, utils.NewPagination(1, 20))
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if menu.Total != 2 || len(menu.Items) != 2 {
		t.Fatalf("menu has %d items (total %d), want 2 available", len(menu.Items), menu.Total)
	}
	if len(menu.Grouped["desserts"]) != 1 || len(menu.Grouped["main_course"]) != 1 {
		t.Fatalf("grouping = %v", menu.Grouped)
	}

	veg := true
	menu, err = svc.GetMenu(ctx, restaurant.ID.String(), MenuFilter{Vegetarian: &veg}, utils.NewPagination(1, 20))
	if err != nil || len(menu.Items) != 1 || menu.Items[0].ID != items[0].ID {
		t.Fatalf("vegetarian filter = %v, %v", menu, err)
	}

	menu, err = svc.GetMenu(ctx, restaurant.ID.String(), MenuFilter{Category: "MAIN"}, utils.NewPagination(1, 20))
	if err != nil || len(menu.Items) != 1 || menu.Items[0].ID != items[1].ID {
		t.Fatalf("category filter = %v, %v", menu, err)
	}

	_, err = svc.GetMenu(ctx, "nope", MenuFilter{}, utils.NewPagination(1, 20))
	expectKind(t, err, ErrNotFound)

	if err := db.Model(restaurant).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = svc.GetMenu(ctx, restaurant.ID.String(), MenuFilter{}, utils.NewPagination(1, 20))
	expectKind(t, err, ErrNotFound)
	_, err = svc.GetRestaurant(ctx, restaurant.ID.String())
	expectKind(t, err, ErrNotFound)
}

func TestCatalogAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	_, err := svc.CreateRestaurant(ctx, RestaurantInput{Name: "Taco Town", Category: "tex-mex", DeliveryTime: "20 min"})
	se := expectKind(t, err, ErrValidation)
	if se.Field != "category" {
		t.Fatalf("field = %q, want category", se.Field)
	}

	_, err = svc.CreateRestaurant(ctx, RestaurantInput{Name: "Taco Town", Category: "mexican", DeliveryTime: "20 min", Features: []string{"free_wifi"}})
	se = expectKind(t, err, ErrValidation)
	if se.Field != "features[0]" {
		t.Fatalf("field = %q, want features[0]", se.Field)
	}

	in := RestaurantInput{
		Name:           "Taco Town",
		Category:       "mexican",
		DeliveryTime:   "20-30 min",
		DeliveryFee:    25,
		MinimumOrder:   150,
		OperatingHours: []models.OperatingHours{{Day: "monday", Open: "10:00", Close: "22:00"}},
		Features:       []string{"offers"},
	}
	restaurant, err := svc.CreateRestaurant(ctx, in)
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	if !restaurant.IsActive {
		t.Fatal("new restaurants are active by default")
	}

	item, err := svc.CreateMenuItem(ctx, restaurant.ID.String(), MenuItemInput{Name: "Burrito", Price: 220, Category: "main_course"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if !item.IsAvailable || item.PriceVersion != 1 || item.SpiceLevel != "mild" {
		t.Fatalf("unexpected defaults: %+v", item)
	}

	same, err := svc.UpdateMenuItem(ctx, item.ID.String(), MenuItemInput{Name: "Big Burrito", Price: 220, Category: "main_course"})
	if err != nil || same.PriceVersion != 1 {
		t.Fatalf("rename should keep the price version: %v, %v", same, err)
	}

	off := false
	in.IsActive = &off
	if _, err := svc.UpdateRestaurant(ctx, restaurant.ID.String(), in); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, total, _ := svc.ListRestaurants(ctx, RestaurantFilter{}, utils.NewPagination(1, 10))
	if total != 0 {
		t.Fatalf("deactivated restaurant still listed")
	}

	retired, err := svc.DeleteMenuItem(ctx, item.ID.String())
	if err != nil || retired {
		t.Fatalf("unreferenced items are deleted: retired=%v err=%v", retired, err)
	}
	_, err = svc.DeleteMenuItem(ctx, item.ID.String())
	expectKind(t, err, ErrNotFound)
}

func TestDeleteMenuItemRetiresOrderedItems(t *testing.T) {
	f := newOrderFixture(t)
	f.place(t)
	svc := NewCatalogService(f.db)

	retired, err := svc.DeleteMenuItem(context.Background(), f.items[0].ID.String())
	if err != nil || !retired {
		t.Fatalf("ordered items are retired: retired=%v err=%v", retired, err)
	}

	var item models.MenuItem
	if err := f.db.First(&item, "id = ?", f.items[0].ID).Error; err != nil {
		t.Fatalf("retired item should remain: %v", err)
	}
	if item.IsAvailable {
		t.Fatal("retired item should be unavailable")
	}
}
