package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/mpetrashov/user-geo-service/internal/facades"
	"github.com/mpetrashov/user-geo-service/internal/handlers"
	"github.com/mpetrashov/user-geo-service/internal/logger"
	"github.com/mpetrashov/user-geo-service/internal/middlewares"
	"github.com/mpetrashov/user-geo-service/internal/repositories"
	"github.com/mpetrashov/user-geo-service/internal/services"
	"github.com/mpetrashov/user-geo-service/internal/ws"
	"github.com/mpetrashov/user-geo-service/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title user-geo-service API
// @version 1.0.0
// @description CRUD service for user records enriched with geolocation and timezone data, with realtime change notifications over websocket
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		openWeatherAPIKey, rateLimitPerMinute,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns,
		redisHost, redisPort, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		openWeatherAPIKey, rateLimitPerMinute,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, Redis, Kafka, geocoding, and rate limit
// configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	kafkaAddr, kafkaTopic string,
	openWeatherAPIKey string, rateLimitPerMinute int,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "database")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config
	redisHost = getEnv("REDIS_HOST", "localhost")
	if redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")

	// Kafka config, optional: an empty address disables audit publishing
	kafkaAddr = getEnv("KAFKA_ADDR", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "user_events")

	// Geocoding config
	openWeatherAPIKey = getEnv("OPENWEATHER_API_KEY", "")

	// Rate limit config
	if rateLimitPerMinute, err = strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120")); err != nil {
		return
	}

	return
}

// run initializes the logger, database, Redis, Kafka, and HTTP server. It
// sets up routes, applies middleware, starts the change feed and websocket
// hub, and handles graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int,
	redisHost string, redisPort, redisDB int, redisPassword string,
	kafkaAddr, kafkaTopic string,
	openWeatherAPIKey string, rateLimitPerMinute int,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// The geocoding credential is required: fail fast instead of failing
	// every create request later.
	if openWeatherAPIKey == "" {
		return fmt.Errorf("OPENWEATHER_API_KEY is not set")
	}

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL: %s:%d/%s", pgHost, pgPort, pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Fatal("PostgreSQL connection error:", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Log.Fatal("PostgreSQL ping failed:", err)
	}

	// Run migrations
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		logger.Log.Fatal("migrations failed:", err)
	}

	// Dedicated connection for the change feed: LISTEN ties notifications
	// to a single connection.
	feedConn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		logger.Log.Fatal("change feed connection error:", err)
	}
	defer feedConn.Close(context.Background())

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", redisHost, redisPort),
		Password: redisPassword,
		DB:       redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Fatal("Redis connection error:", err)
	}
	defer rdb.Close()

	// Kafka audit writer, optional
	var kafkaWriter services.KafkaWriter
	if kafkaAddr != "" {
		w := &kafka.Writer{
			Addr:     kafka.TCP(kafkaAddr),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
	}

	// Initialize repositories and facades
	userRepo := repositories.NewUserRepository(db)
	feed := repositories.NewUserFeed(feedConn)
	rateLimitRepo := repositories.NewRateLimitRepository(rdb, time.Minute)
	geocoder := facades.NewOpenWeatherFacade(openWeatherAPIKey)

	// Initialize services
	userService := services.NewUserService(userRepo, userRepo, geocoder, kafkaWriter)

	// Initialize handlers
	listHandler := handlers.NewListUsersHandler(userService)
	getHandler := handlers.NewGetUserHandler(userService)
	createHandler := handlers.NewCreateUserHandler(userService)
	updateHandler := handlers.NewUpdateUserHandler(userService)
	deleteHandler := handlers.NewDeleteUserHandler(userService)
	healthHandler := handlers.NewHealthHandler()

	// Websocket hub wired to the store change feed
	hub := ws.NewHub(userRepo)
	unsubscribe := feed.Subscribe(hub.OnUserAdded, hub.OnUserChanged, hub.OnUserRemoved)
	defer unsubscribe()

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(middlewares.RateLimitMiddleware(rateLimitRepo, int64(rateLimitPerMinute)))

	r.Get("/health", healthHandler)
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", listHandler)
		r.Post("/", createHandler)
		r.Get("/{id}", getHandler)
		r.Patch("/{id}", updateHandler)
		r.Delete("/{id}", deleteHandler)
	})
	r.Get("/ws", hub.ServeWS)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 2)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go hub.Run(ctxShutdown)

	go func() {
		if err := feed.Run(ctxShutdown); err != nil {
			errChan <- fmt.Errorf("change feed failed: %w", err)
		}
	}()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
