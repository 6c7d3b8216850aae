package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-booking/config"
	deliveryHttp "clinic-booking/internal/delivery/http"
	"clinic-booking/internal/delivery/http/handler"
	"clinic-booking/internal/delivery/http/middleware"
	"clinic-booking/internal/infrastructure/cache"
	"clinic-booking/internal/infrastructure/database"
	"clinic-booking/internal/repository"
	"clinic-booking/internal/service"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/jwt"
	"clinic-booking/pkg/metrics"
	"clinic-booking/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const metricsNamespace = "clinic"

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app, err := NewWithDatabase()
	if err != nil {
		return nil, err
	}
	cfg := app.Config

	if cfg.DB.AutoMigrate {
		if err := database.MigrateUp(app.DB, app.Log); err != nil {
			app.Close()
			return nil, err
		}
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis, app.Log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	if err := EnsureAdmin(context.Background(), app); err != nil {
		app.Close()
		return nil, err
	}

	httpHandler, err := NewHTTPHandler(cfg, app.DB, redisClient, app.Log, metrics.NewMetrics(metricsNamespace))
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

// NewWithDatabase loads configuration and opens the database only. Used by
// the migrate and seed commands which do not need Redis or the HTTP server.
func NewWithDatabase() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	app.Log = setupLogger(cfg.App.LogLevel)
	app.Log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(context.Background(), cfg.DB, cfg.App.Env, app.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// EnsureAdmin creates the configured admin account when it does not exist yet.
func EnsureAdmin(ctx context.Context, app *App) error {
	if app.Config.Admin.Password == "" {
		app.Log.Warn("ADMIN_PASSWORD is not set, skipping admin account creation")
		return nil
	}

	auditService := service.NewAuditService(app.Log, repository.NewAuditLogRepository())
	authUsecase := usecase.NewAuthUsecase(app.DB, app.Log, repository.NewAdminRepository(), auditService, nil, nil)
	if err := authUsecase.EnsureAdmin(ctx, app.Config.Admin.Username, app.Config.Admin.Password); err != nil {
		return fmt.Errorf("failed to ensure admin account: %w", err)
	}
	return nil
}

// NewHTTPHandler wires repositories, services, usecases and handlers into the router.
func NewHTTPHandler(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger, m *metrics.Metrics) (http.Handler, error) {
	hours, err := service.ParseWorkingHours(cfg.Schedule.WorkStart, cfg.Schedule.WorkEnd, cfg.Schedule.SlotMinutes, cfg.Schedule.WeekendDays)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule config: %w", err)
	}
	generator, err := service.NewSlotGenerator(hours)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule config: %w", err)
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	adminRepo := repository.NewAdminRepository()
	patientRepo := repository.NewPatientRepository()
	doctorRepo := repository.NewDoctorRepository()
	serviceRepo := repository.NewServiceRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	slotLocker := service.NewRedisSlotLocker(redisClient, log, cfg.Booking.LockTTL)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, adminRepo, auditService, jwtService, redisClient)
	doctorUsecase := usecase.NewDoctorUsecase(db, log, doctorRepo, auditService)
	serviceUsecase := usecase.NewServiceUsecase(db, log, serviceRepo, auditService)
	patientUsecase := usecase.NewPatientUsecase(db, log, patientRepo)
	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log, appointmentRepo, patientRepo, doctorRepo, serviceRepo,
		auditService, slotLocker, m, cfg.Booking.StrictTransitions,
	)
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, appointmentRepo, generator, m, cfg.Schedule.DefaultRangeDays)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorUsecase, customValidator)
	serviceHandler := handler.NewServiceHandler(serviceUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(patientUsecase)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowedOrigins)
	requestLogger := middleware.NewRequestLogger(log, m)
	loginLimiter, err := middleware.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst, cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("failed to configure login rate limit: %w", err)
	}

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler, doctorHandler, serviceHandler, patientHandler,
		appointmentHandler, availabilityHandler, auditLogHandler,
		authMiddleware, corsMiddleware, requestLogger, loginLimiter, m,
	)
	return router.Setup(), nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() error {
	errCh := make(chan error, 1)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	return app.waitForShutdown(errCh)
}

// waitForShutdown blocks until an interrupt signal is received or the server fails
func (app *App) waitForShutdown(errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		app.Close()
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
	return nil
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
