package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/org_funding_app/internal/adapters/database/pgsql"
	"github.com/SscSPs/org_funding_app/internal/adapters/export"
	"github.com/SscSPs/org_funding_app/internal/adapters/lock"
	"github.com/SscSPs/org_funding_app/internal/adapters/memory"
	"github.com/SscSPs/org_funding_app/internal/adapters/notify"
	redisadapter "github.com/SscSPs/org_funding_app/internal/adapters/redis"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/core/services"
	"github.com/SscSPs/org_funding_app/internal/handlers"
	"github.com/SscSPs/org_funding_app/internal/middleware"
	"github.com/SscSPs/org_funding_app/internal/platform/config"
	"github.com/SscSPs/org_funding_app/internal/utils"
	"github.com/SscSPs/org_funding_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	repos, storeCleanup, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, storeCleanup)

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		redisClient = goredis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return err
		}
		logger.Info("Connected to redis", slog.String("addr", opts.Addr))
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
	}

	infra := services.Infrastructure{
		Renderer: export.NewXLSXRenderer(),
		Logger:   logger,
	}
	if redisClient != nil {
		infra.Locker = redisadapter.NewLocker(redisClient, cfg.ApprovalLockTTL, logger)
	} else {
		infra.Locker = lock.NewLocalLocker()
	}

	if cfg.ChangeFeed == config.ChangeFeedRedis {
		feed := redisadapter.NewChangeFeed(redisClient, "", logger)
		if err := feed.Start(ctx, repos.ChangeFeed); err != nil {
			return err
		}
		infra.ExtraFeeds = append(infra.ExtraFeeds, feed)
		cleanups = append(cleanups, func() { _ = feed.Close() })
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	cleanups = append(cleanups, posthogClient.Close)

	dispatcher := services.NewNotificationDispatcher(logger, cfg.NotificationBuffer, setupNotifiers(cfg, posthogClient, logger)...)
	dispatcher.Start()
	cleanups = append(cleanups, dispatcher.Shutdown)
	infra.Notices = dispatcher

	container, projection := services.NewServiceContainer(cfg, repos, infra)
	if err := projection.Attach(ctx); err != nil {
		return err
	}
	cleanups = append(cleanups, projection.Detach)

	rateLimiter, err := setupRateLimiter(cfg, redisClient)
	if err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendBaseURL},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	if err := handlers.RegisterRoutes(r, cfg, container, handlers.RouteDeps{
		RateLimiter: rateLimiter,
		Posthog:     posthogClient,
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Open event streams end when the projection detaches, so detach before waiting on them.
	projection.Detach()
	return srv.Shutdown(shutdownCtx)
}

// setupStorage opens the configured store and returns the repositories plus a cleanup func.
func setupStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, logger)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	var feed *pgsql.PgChangeFeed
	if cfg.ChangeFeed == config.ChangeFeedStore {
		feed = pgsql.NewPgChangeFeed(dbPool, logger)
		feed.Start(ctx)
	}

	cleanup := func() {
		if feed != nil {
			feed.Close()
		}
		database.ClosePgxPool(dbPool, logger)
	}
	return pgsql.NewRepositoryProvider(dbPool, feed), cleanup, nil
}

func setupNotifiers(cfg *config.Config, posthogClient *utils.PosthogClientWrapper, logger *slog.Logger) []portssvc.Notifier {
	notifiers := []portssvc.Notifier{notify.NewLogNotifier(logger)}
	if cfg.DiscordBotToken != "" {
		discord, err := notify.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			logger.Warn("Discord notifications disabled", slog.String("error", err.Error()))
		} else {
			notifiers = append(notifiers, discord)
		}
	}
	if posthogClient.IsInitialized() {
		notifiers = append(notifiers, notify.NewPosthogNotifier(posthogClient))
	}
	return notifiers
}

// setupRateLimiter shares counters through redis when available, otherwise keeps them in memory.
func setupRateLimiter(cfg *config.Config, redisClient *goredis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	if redisClient == nil {
		return limiter.New(limitermemory.NewStore(), rate), nil
	}
	store, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "funding_rate_limit"})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}
