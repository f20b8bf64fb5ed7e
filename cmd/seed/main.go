package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/database"
	"github.com/example/foodexpress/internal/models"
)

func main() {
	skipCatalog := flag.Bool("skip-catalog", false, "do not insert the demo restaurants")
	skipAdmin := flag.Bool("skip-admin", false, "do not create the super admin account")
	flag.Parse()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	ctx := context.Background()

	if !*skipCatalog {
		created, err := database.SeedCatalog(ctx, db)
		if err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		log.Printf("[Seed] created %d restaurants", created)
	}

	if !*skipAdmin {
		admin, ok := config.LoadSeedAdmin()
		if !ok {
			log.Println("[Seed] SEED_ADMIN_EMAIL, SEED_ADMIN_USERNAME, SEED_ADMIN_PASSWORD and SEED_ADMIN_MOBILE must all be set to create the super admin; skipping")
		} else {
			created, err := database.EnsureSuperAdmin(ctx, db, admin)
			if err != nil {
				log.Fatalf("seed super admin: %v", err)
			}
			if created {
				log.Printf("[Seed] created super admin %s", admin.Email)
			} else {
				log.Printf("[Seed] super admin %s already exists", admin.Email)
			}
		}
	}

	var restaurants []models.Restaurant
	if err := db.WithContext(ctx).Preload("MenuItems").Order("name").Find(&restaurants).Error; err != nil {
		log.Fatalf("load restaurants: %v", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Restaurant", "Category", "Rating", "Delivery Fee", "Menu Items", "Active")
	for _, r := range restaurants {
		table.Append([]string{
			r.Name,
			r.Category,
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			strconv.FormatFloat(r.DeliveryFee, 'f', 2, 64),
			strconv.Itoa(len(r.MenuItems)),
			strconv.FormatBool(r.IsActive),
		})
	}
	if err := table.Render(); err != nil {
		log.Fatalf("render summary: %v", err)
	}
}
