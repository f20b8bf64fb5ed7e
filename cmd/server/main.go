package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/foodexpress/internal/config"
	"github.com/example/foodexpress/internal/database"
	"github.com/example/foodexpress/internal/events"
	"github.com/example/foodexpress/internal/handlers"
	"github.com/example/foodexpress/internal/routes"
	"github.com/example/foodexpress/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "FoodExpress Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := events.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQExchange)
	defer publisher.Close()

	routes.Register(app, db, cfg, routes.Dependencies{
		Notifier: services.NewNotifier(cfg),
		Events:   publisher,
		Telegram: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
	})

	purgeDone := services.StartPendingSignupPurge(ctx, db, cfg.PurgeInterval, cfg.PendingSignupRetention)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("fiber shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}

	stop()
	<-purgeDone
}
