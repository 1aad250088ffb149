package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kazka/kazka-bot/internal/api"
	"github.com/kazka/kazka-bot/internal/config"
	"github.com/kazka/kazka-bot/internal/dialog"
	"github.com/kazka/kazka-bot/internal/invite"
	"github.com/kazka/kazka-bot/internal/limiter"
	"github.com/kazka/kazka-bot/internal/payment"
	"github.com/kazka/kazka-bot/internal/providers/elevenlabs"
	"github.com/kazka/kazka-bot/internal/providers/openai"
	"github.com/kazka/kazka-bot/internal/providers/stability"
	"github.com/kazka/kazka-bot/internal/session"
)

// AppState holds all application services
type AppState struct {
	Controller *dialog.Controller
	Handlers   *api.Handlers
	Logger     *zap.Logger
	DB         *bun.DB
}

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	config.Load()

	logger := initLogger()
	defer logger.Sync()

	as, err := newAppState(logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	router := setupRouter(as)

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	done := setupSignalHandler(as, server, logger)

	logger.Info("Starting kazka server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState creates and initializes the application state
func newAppState(logger *zap.Logger) (*AppState, error) {
	var (
		db            *bun.DB
		sessionStore  session.Store
		usageStore    limiter.UsageStore
		referralStore invite.ReferralStore
	)

	if pgConfig := config.Postgres(); pgConfig.Enabled {
		logger.Info("Database configuration",
			zap.String("host", pgConfig.Host),
			zap.Int("port", pgConfig.Port),
			zap.String("database", pgConfig.Database),
			zap.String("user", pgConfig.User))

		var err error
		db, err = initializeDatabase(pgConfig.DSN(), pgConfig.MaxOpenConnections)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := createTables(db); err != nil {
			return nil, err
		}

		sessionStore = session.NewPostgresStore(db)
		usageStore = limiter.NewPostgresStore(db)
		referralStore = invite.NewPostgresStore(db)
	} else {
		logger.Info("Postgres disabled, using in-memory stores")
		sessionStore = session.NewInMemoryStore()
		usageStore = limiter.NewInMemoryStore()
		referralStore = invite.NewInMemoryStore()
	}

	limits, err := limiter.NewService(usageStore, config.Limits().FreeGenerations, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage limiter: %w", err)
	}

	textProvider, err := openai.NewClient(openai.Config{
		APIKey:        config.OpenAI().APIKey,
		Model:         config.OpenAI().Model,
		StoryMinChars: config.OpenAI().StoryMinChars,
		StoryMaxChars: config.OpenAI().StoryMaxChars,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create text provider: %w", err)
	}

	imageProvider, err := stability.NewClient(stability.Config{
		APIKey: config.Stability().APIKey,
		Model:  config.Stability().Model,
	}, textProvider, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create image provider: %w", err)
	}

	speechProvider, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:  config.ElevenLabs().APIKey,
		ModelID: config.ElevenLabs().ModelID,
		Voices:  config.ElevenLabs().Voices,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech provider: %w", err)
	}

	payments, err := initializePayments(logger)
	if err != nil {
		return nil, err
	}

	invites, err := invite.NewService(referralStore, limits, config.Bot().Username, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite service: %w", err)
	}

	controller, err := dialog.NewController(
		sessionStore,
		textProvider,
		imageProvider,
		speechProvider,
		limits,
		payments,
		invites,
		session.Language(config.Bot().DefaultLanguage),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	handlers, err := api.NewHandlers(controller, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create handlers: %w", err)
	}

	return &AppState{
		Controller: controller,
		Handlers:   handlers,
		Logger:     logger,
		DB:         db,
	}, nil
}

func initializePayments(logger *zap.Logger) (dialog.PaymentLinks, error) {
	payConfig := config.Payment()
	if payConfig.StripeSecretKey == "" {
		return payment.NewStaticProvider(payConfig.StaticLink), nil
	}

	client, err := payment.NewStripeClient(payment.Config{
		SecretKey:  payConfig.StripeSecretKey,
		Amount:     payConfig.Amount,
		Currency:   payConfig.Currency,
		SuccessURL: payConfig.SuccessURL,
		CancelURL:  payConfig.CancelURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment client: %w", err)
	}
	return client, nil
}

func initializeDatabase(databaseURL string, maxConnections int) (*bun.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	if maxConnections <= 0 {
		maxConnections = 10
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func createTables(db *bun.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := session.CreateTables(ctx, db); err != nil {
		return err
	}
	if err := limiter.CreateTables(ctx, db); err != nil {
		return err
	}
	if err := invite.CreateTables(ctx, db); err != nil {
		return err
	}
	return nil
}

func setupRouter(as *AppState) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(cors.Default())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", api.HealthCheck)

	v1 := router.Group("/v1")
	as.Handlers.RegisterRoutes(v1)

	return router
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		if as.DB != nil {
			if err := as.DB.Close(); err != nil {
				logger.Error("Error closing database", zap.Error(err))
			}
		}

		done <- struct{}{}
	}()

	return done
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var cfg zap.Config
	if logConfig.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}
