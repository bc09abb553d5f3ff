package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/schoolhub/school-directory-service/internal/app"
	"github.com/schoolhub/school-directory-service/internal/config"
	"github.com/schoolhub/school-directory-service/internal/database"
	"github.com/schoolhub/school-directory-service/internal/health"
	"github.com/schoolhub/school-directory-service/internal/http/handler"
	"github.com/schoolhub/school-directory-service/internal/http/middleware"
	"github.com/schoolhub/school-directory-service/internal/http/router"
	"github.com/schoolhub/school-directory-service/internal/observability"
	"github.com/schoolhub/school-directory-service/internal/repository"
	"github.com/schoolhub/school-directory-service/internal/security"
	"github.com/schoolhub/school-directory-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewCodeRepository,
	repository.NewSchoolRepository,
)

var SecuritySet = wire.NewSet(
	provideSessionManager,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	service.NewMailer,
	provideStorageService,
	service.NewAuthService,
	service.NewSchoolService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.SchoolServiceInterface), new(*service.SchoolService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewSchoolHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

// MigrationRunner drives migrate and seed for the CLI; the API server runs
// the same steps inline on startup.
type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	report, err := database.Seed(m.db)
	if err != nil {
		return err
	}
	fmt.Printf("migration complete, seeded %d schools\n", report.CreatedSchools)
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideSessionManager(cfg *config.Config) *security.SessionManager {
	return security.NewSessionManager(cfg.SessionIssuer, cfg.SessionSecret, cfg.SessionTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.SessionCookieName, cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	return service.NewMinIOStorageService(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return GlobalRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware())
	}
	return GlobalRateLimiterFunc(middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute).Middleware())
}

// The auth limiter keys on the verified session when one is present, so a
// signed-in user behind a shared NAT gets their own budget. It fails closed:
// when Redis is down nobody gets to hammer the OTP endpoints.
func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, sessions *security.SessionManager) AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return AuthRateLimiterFunc(middleware.NewDistributedRateLimiterWithKey(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
			middleware.SessionOrIPKeyFunc(sessions, cfg.SessionCookieName),
		).Middleware())
	}
	return AuthRateLimiterFunc(middleware.NewDistributedRateLimiterWithKey(
		middleware.NewLocalFixedWindowLimiter(),
		cfg.AuthRateLimitPerMin,
		time.Minute,
		middleware.FailClosed,
		"auth",
		middleware.SessionOrIPKeyFunc(sessions, cfg.SessionCookieName),
	).Middleware())
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	schoolHandler *handler.SchoolHandler,
	sessions *security.SessionManager,
	globalRateLimiter GlobalRateLimiterFunc,
	authRateLimiter AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		SchoolHandler:     schoolHandler,
		Sessions:          sessions,
		SessionCookieName: cfg.SessionCookieName,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, storage service.StorageService) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 3)
	checkers = append(checkers, health.NewDBChecker(db))
	if cfg.RateLimitRedisEnabled {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	if prober, ok := storage.(health.BucketProber); ok {
		checkers = append(checkers, health.NewStorageChecker(prober, cfg.StorageBucket))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}
