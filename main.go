package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sjsage522/profilewatch/config"
	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal"
	"sjsage522/profilewatch/internal/browser"
	"sjsage522/profilewatch/internal/classifier"
	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/internal/server"
	"sjsage522/profilewatch/logger"
	"sjsage522/profilewatch/services/cache"
	"sjsage522/profilewatch/services/monitor"
	"sjsage522/profilewatch/services/publisher"
	"sjsage522/profilewatch/services/store"
)

const cooldownKey = "profilewatch:monitor_cooldown"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// The scoring artifact is loaded once and shared read-only by every batch
	booster, err := classifier.LoadModel(cfg.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("Failed to load model")
	}
	clf, err := classifier.New(booster, cfg.Threshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create classifier")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("model_version", booster.Version()).
		Int("trees", booster.NumTrees()).
		Float64("threshold", clf.Threshold()).
		Str("locator_set", cfg.LocatorSet).
		Str("browser_mode", cfg.BrowserMode).
		Msg("Starting application")

	// Set up context cancelled by shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := monitor.NewMonitor(
		services.Dependencies,
		newExtractor(cfg, clf),
		helpers.UniformDelay(cfg.ProfileDelayMin, cfg.ProfileDelayMax),
		monitor.NewMetrics(registry),
	)

	var cooldown *cache.Cooldown
	if services.Cache != nil {
		cooldown = cache.NewCooldown(services.Cache, cooldownKey, cfg.BatchCooldown)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.NewServer(m, cooldown, registry)
	if err := srv.Run(ctx, cfg.ServerAddr); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// newExtractor builds the extraction pipeline from configuration
func newExtractor(cfg *config.Config, labeler profile.Labeler) *profile.Extractor {
	resolver := profile.NewResolver(cfg.LocatorAttempts, cfg.LocatorTimeout, helpers.FixedDelay(cfg.LocatorRetryPause))

	fields := profile.DefaultFieldLocators()
	if cfg.LocatorSet == config.LocatorSetLegacy {
		fields = profile.LegacyFieldLocators()
	}
	popup := profile.DefaultPopupDismisser(resolver.WithLogger(logger.ForComponent("popup")))

	return profile.NewExtractor(profile.ExtractorConfig{
		ProfileURLTemplate: cfg.ProfileURLTemplate,
		PageReadyTimeout:   cfg.PageReadyTimeout,
		SettlePause:        helpers.FixedDelay(cfg.SettlePause),
		Fields:             fields,
	}, resolver, popup, labeler)
}

// Services holds all the initialized services
type Services struct {
	internal.Dependencies
	redis *publisher.RedisPublisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.redis != nil {
		s.redis.Close()
	}
}

// initializeServices initializes all required services. Redis and memcache
// are optional and only created when an address is configured.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	log := logger.Default
	services := &Services{}

	if cfg.BrowserMode == config.BrowserModeStatic {
		services.Launcher = browser.NewStaticLauncher(nil)
	} else {
		services.Launcher = browser.NewChromeLauncher(browser.ChromeConfig{
			ExecPath: cfg.ChromePath,
			Headless: cfg.Headless,
		})
	}

	services.Store = store.NewSQLiteOpener(cfg.DatabasePath)
	services.Failures = helpers.NewFailureLog(cfg.FailureLogPath)

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable, snapshots may not be published")
		}
		services.Publisher = redisPublisher
		services.redis = redisPublisher

		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.MemcacheAddr != "" && cfg.BatchCooldown > 0 {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache is not reachable, cooldown checks will fail open")
		}
		services.Cache = memcacheService

		logger.Info("Batch cooldown of %s stored in Memcache at %s", cfg.BatchCooldown, cfg.MemcacheAddr)
	}

	return services
}
