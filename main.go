package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shop/internal/handlers"
	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"
	"shop/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "shop.db")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("SEED_DEMO_DATA", false)
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Database ---
	var dialector gorm.Dialector
	switch driver := viper.GetString("DB_DRIVER"); driver {
	case "postgres":
		dialector = postgres.Open(viper.GetString("DB_DSN"))
	case "sqlite":
		dialector = sqlite.Open(viper.GetString("DB_DSN"))
	default:
		log.Fatalf("Unsupported DB_DRIVER: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Event publisher (optional) ---
	// The catalog runs fine without a broker; events are only published
	// when RABBITMQ_URL is configured.
	var events services.EventPublisher
	if rabbitMQURL := viper.GetString("RABBITMQ_URL"); rabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		events = mqClient
	} else {
		log.Println("RABBITMQ_URL not set, product events disabled")
	}

	// --- Repositories, services, handlers ---
	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, events)
	productHandler := handlers.NewProductHandler(productService)

	if viper.GetBool("SEED_DEMO_DATA") {
		seedProducts(productService)
	}

	// --- Fiber app ---
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: viper.GetString("CORS_ORIGINS"),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// --- API Routes ---
	api := app.Group("/api")
	productHandler.RegisterRoutes(api)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "UP",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "Simple Shop Backend",
			"version":   "1.0.0",
		})
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Simple Shop Backend is running!",
			"status":  "OK",
		})
	})

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// seedProducts populates the catalog with a few demo records. Conflicts
// are expected on restart and only logged.
func seedProducts(service *services.ProductService) {
	describe := func(s string) *string { return &s }
	candidates := []models.CandidateProduct{
		{Name: "Laptop", Description: describe("High performance laptop"), Price: ptrMoney(models.NewMoney(1200, 0))},
		{Name: "Keyboard", Description: describe("Mechanical keyboard"), Price: ptrMoney(models.NewMoney(75, 0))},
		{Name: "Mouse", Description: describe("Ergonomic wireless mouse"), Price: ptrMoney(models.NewMoney(25, 0))},
	}

	for _, candidate := range candidates {
		product, err := service.CreateProduct(candidate)
		if err != nil {
			var conflict *services.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			log.Printf("Error seeding product %s: %v", candidate.Name, err)
			continue
		}
		log.Printf("Seeded product: %s (ID: %d)", product.Name, product.ID)
	}
}

func ptrMoney(m models.Money) *models.Money {
	return &m
}
