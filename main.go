package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"servicestation/internal/handlers"
	"servicestation/internal/logger"
	"servicestation/internal/mailer"
	"servicestation/internal/models"
	"servicestation/internal/repositories"
	"servicestation/internal/services"
	"servicestation/internal/session"
	"servicestation/pkg/rabbitmq"
)

func main() {
	log := logger.New()

	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "file:servicestation.sqlite?cache=shared")
	viper.SetDefault("SECRET_KEY", "")
	viper.SetDefault("RESET_TOKEN_TTL", 600)
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("DEFAULT_GROUP_ID", 2)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("STORAGE_DAY_RATE", 10)
	viper.AutomaticEnv()

	secret := viper.GetString("SECRET_KEY")
	if secret == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	// --- Database ---
	db, err := openDatabase(viper.GetString("DB_DRIVER"), viper.GetString("DB_DSN"))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := db.AutoMigrate(
		&models.UsersGroup{},
		&models.User{},
		&models.Size{},
		&models.Shelf{},
		&models.StorageOrder{},
	); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	if err := seed(db, viper.GetUint("DEFAULT_GROUP_ID")); err != nil {
		log.WithError(err).Fatal("Failed to seed database")
	}

	// --- RabbitMQ (optional) ---
	// With no broker configured, reset emails fall back to log delivery and
	// storage order events are skipped.
	var (
		mqClient  *rabbitmq.Client
		resetMail services.Mailer = mailer.NewLog(log.WithField("component", "mailer"))
		events    services.EventPublisher
	)
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		resetMail = mailer.NewAMQP(mqClient, log.WithField("component", "mailer"))
		events = mqClient
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	shelfRepo := repositories.NewGORMShelfRepository(db)
	orderRepo := repositories.NewGORMStorageOrderRepository(db)

	// --- Services ---
	sessions := session.NewManager(secret)
	hasher := services.NewPasswordHasher(viper.GetInt("BCRYPT_COST"))
	tokens := services.NewResetTokenIssuer(secret, time.Duration(viper.GetInt("RESET_TOKEN_TTL"))*time.Second)
	authService := services.NewAuthService(
		userRepo, hasher, tokens, resetMail,
		viper.GetUint("DEFAULT_GROUP_ID"),
		log.WithField("component", "auth"),
	)
	storageService := services.NewStorageService(
		orderRepo, shelfRepo, events,
		viper.GetInt("STORAGE_DAY_RATE"),
		log.WithField("component", "storage"),
	)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, sessions, log.WithField("component", "http"))
	profileHandler := handlers.NewProfileHandler(userRepo, storageService, sessions, log.WithField("component", "http"))
	storageHandler := handlers.NewStorageHandler(storageService, sessions, log.WithField("component", "http"))

	// --- Fiber App ---
	app := fiber.New()
	app.Use(fiberlogger.New())

	authHandler.RegisterRoutes(app)
	profileHandler.RegisterRoutes(app)
	storageHandler.RegisterRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Mail consumer ---
	// SMTP delivery is out of scope here; the consumer drains the mail queue
	// and records each job so a real mail worker can replace it later.
	if mqClient != nil {
		go func() {
			mailLog := log.WithField("component", "mail-consumer")
			mailLog.Info("Starting mail queue consumer")
			err := mqClient.Consume(rabbitmq.MailQueue, func(msg amqp.Delivery) error {
				mailLog.WithField("body", string(msg.Body)).Info("Reset mail job received")
				return nil
			})
			if err != nil {
				mailLog.WithError(err).Error("Mail consumer stopped")
			}
		}()
	}

	// --- Start HTTP Server ---
	appPort := viper.GetString("APP_PORT")
	log.WithField("port", appPort).Info("Starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-quit
	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	log.Info("Server gracefully stopped")
}

// openDatabase opens the configured database. TranslateError maps driver
// duplicate-key errors to gorm.ErrDuplicatedKey, which the user repository
// relies on for the email uniqueness guard.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
}

// seed inserts the default user group and a starter set of shelf sizes and
// shelves when the tables are empty.
func seed(db *gorm.DB, defaultGroupID uint) error {
	group := models.UsersGroup{ID: defaultGroupID, Name: "users"}
	if err := db.FirstOrCreate(&group, "group_id = ?", defaultGroupID).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Size{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	sizes := []models.Size{{Name: 1}, {Name: 2}, {Name: 3}}
	if err := db.Create(&sizes).Error; err != nil {
		return err
	}
	shelves := []models.Shelf{
		{Active: true, SizeID: sizes[0].ID},
		{Active: true, SizeID: sizes[1].ID},
		{Active: true, SizeID: sizes[2].ID},
		{Active: false, SizeID: sizes[0].ID},
	}
	return db.Create(&shelves).Error
}
