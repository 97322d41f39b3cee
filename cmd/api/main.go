package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joblet/internal/api"
	"joblet/internal/config"
	"joblet/internal/database"
	"joblet/internal/domain"
	"joblet/internal/events"
	"joblet/internal/export"
	"joblet/internal/google"
	"joblet/internal/logging"
	"joblet/internal/metrics"
	"joblet/internal/models"
	"joblet/internal/repository"
	"joblet/internal/service"
	"joblet/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if err := applySeed(cfg, db, &logger); err != nil {
		return err
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	cache := initCache(redisClient, &logger)
	sheetsService := initGoogleSheets(cfg, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ledgerWorker domain.SyncWorker
	if sheetsService != nil {
		w := worker.NewLedgerWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, logger)
		go w.Start(ctx)
		ledgerWorker = w
	}

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeEventLog(eventBus, &logger)

	cacheTTL := time.Duration(cfg.Booking.CatalogCacheTTL) * time.Second
	svcs := api.Services{
		Bookings:      service.NewBookingService(db, eventBus, ledgerWorker, cfg.Booking.MaxAdvanceDays, &logger),
		Catalog:       service.NewCatalogService(db, cache, cacheTTL, &logger),
		Chats:         service.NewChatService(db, cache, eventBus, cfg.Chat.RateLimitMessages, cfg.Chat.RateLimitWindow, &logger),
		Notifications: service.NewNotificationService(db, &logger),
		Accounts:      service.NewAccountService(db, &logger),
		Exporter:      export.NewExporter(db, cfg.Exports.Path, &logger),
	}

	httpServer := api.NewHTTPServer(cfg.API, db, svcs, logger)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

type seedFile struct {
	Accounts []struct {
		Email        string `yaml:"email"`
		FullName     string `yaml:"full_name"`
		Phone        string `yaml:"phone"`
		Location     string `yaml:"location"`
		BalanceCents int64  `yaml:"balance_cents"`
		IsProvider   bool   `yaml:"is_provider"`
		IsAdmin      bool   `yaml:"is_admin"`
	} `yaml:"accounts"`
	Services []struct {
		ProviderEmail   string `yaml:"provider_email"`
		Title           string `yaml:"title"`
		Description     string `yaml:"description"`
		PriceCents      int64  `yaml:"price_cents"`
		DurationMinutes int64  `yaml:"duration_minutes"`
		Approved        bool   `yaml:"approved"`
	} `yaml:"services"`
}

// applySeed loads the optional seed file and creates any accounts and
// listings that are not present yet. Existing rows are left untouched so the
// seed is safe to re-apply on every start.
func applySeed(cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	path := cfg.SeedFile
	if env := os.Getenv("SEED_PATH"); env != "" {
		path = env
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("seed_path", path).Msg("seed file not found, skipping")
			return nil
		}
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	ctx := context.Background()
	byEmail := make(map[string]*models.Account, len(seed.Accounts))

	for _, a := range seed.Accounts {
		existing, err := db.GetAccountByEmail(ctx, a.Email)
		if err == nil {
			byEmail[a.Email] = existing
			continue
		}
		account := &models.Account{
			Email:        a.Email,
			FullName:     a.FullName,
			Phone:        a.Phone,
			Location:     a.Location,
			BalanceCents: a.BalanceCents,
			IsProvider:   a.IsProvider,
			IsAdmin:      a.IsAdmin,
		}
		if err := db.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("seed account %s: %w", a.Email, err)
		}
		byEmail[a.Email] = account
		logger.Info().Str("email", a.Email).Msg("seeded account")
	}

	for _, s := range seed.Services {
		provider, ok := byEmail[s.ProviderEmail]
		if !ok {
			existing, err := db.GetAccountByEmail(ctx, s.ProviderEmail)
			if err != nil {
				logger.Warn().Str("email", s.ProviderEmail).Msg("seed service skipped, unknown provider")
				continue
			}
			provider = existing
		}

		owned, err := db.ListServicesByProvider(ctx, provider.ID)
		if err != nil {
			return fmt.Errorf("seed services for %s: %w", s.ProviderEmail, err)
		}
		exists := false
		for _, o := range owned {
			if o.Title == s.Title {
				exists = true
				break
			}
		}
		if exists {
			continue
		}

		approval := models.ApprovalPending
		if s.Approved {
			approval = models.ApprovalApproved
		}
		svc := &models.Service{
			ProviderID:      provider.ID,
			Title:           s.Title,
			Description:     s.Description,
			PriceCents:      s.PriceCents,
			DurationMinutes: s.DurationMinutes,
			IsActive:        true,
			Approval:        approval,
		}
		if err := db.CreateService(ctx, svc); err != nil {
			return fmt.Errorf("seed service %q: %w", s.Title, err)
		}
		logger.Info().Str("title", s.Title).Msg("seeded service")
	}

	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initCache(redisClient *redis.Client, logger *zerolog.Logger) domain.CacheRepository {
	memory := repository.NewMemoryCacheRepository()
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisCacheRepository(redisClient)
	return repository.NewFailoverCacheRepository(primary, memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.LedgerSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.LedgerSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

// subscribeEventLog keeps an audit trail of booking activity in the logs.
func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	eventLogger := logger.With().Str("component", "events").Logger()
	handler := func(event *events.Event) error {
		eventLogger.Info().
			Str("type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingRequested,
		events.EventBookingAccepted,
		events.EventBookingRejected,
		events.EventBookingCompleted,
		events.EventChatMessage,
	} {
		bus.Subscribe(eventType, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
