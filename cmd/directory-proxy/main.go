// Command directory-proxy serves the paginated, filterable directory list
// over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/directory-client/internal/api"
	"github.com/Sternrassler/directory-client/internal/config"
	"github.com/Sternrassler/directory-client/pkg/client"
	"github.com/Sternrassler/directory-client/pkg/httpcache"
	"github.com/Sternrassler/directory-client/pkg/listing"
	"github.com/Sternrassler/directory-client/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", "."))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:      logging.LogLevel(cfg.Logger.Level),
		Pretty:     cfg.Logger.Pretty,
		Output:     os.Stderr,
		FilePath:   cfg.Logger.File,
		MaxSizeMB:  logging.DefaultConfig().MaxSizeMB,
		MaxBackups: logging.DefaultConfig().MaxBackups,
		MaxAgeDays: logging.DefaultConfig().MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	// Warm the list; requests arriving before it resolves see Loading.
	a.orchestrator.Load()

	go func() {
		logger.Info().
			Str("addr", a.server.Addr).
			Str("upstream", a.client.URL()).
			Bool("conditional_requests", a.redis != nil).
			Msg("Starting directory proxy")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// app bundles the components wired from a Config.
type app struct {
	server       *http.Server
	client       *client.Client
	orchestrator *listing.Orchestrator
	redis        *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	clientCfg := client.DefaultConfig(cfg.Directory.BaseURL, cfg.Directory.UserAgent)
	clientCfg.Endpoint = cfg.Directory.Endpoint
	clientCfg.Timeout = cfg.Directory.FetchTimeout
	clientCfg.Retry.MaxAttempts = cfg.Directory.MaxRetries + 1

	if cfg.Redis.Enabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		clientCfg.Store = httpcache.NewStore(a.redis, cfg.Redis.Retention)
	}

	c, err := client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create directory client: %w", err)
	}
	a.client = c

	listCfg := listing.DefaultConfig()
	listCfg.ItemsPerPage = cfg.Cache.ItemsPerPage
	listCfg.Cache.StaleAfter = cfg.Cache.StaleAfter
	// The client applies its own per-request timeout and retries; the cache
	// bounds the whole fetch including backoff.
	listCfg.Cache.FetchTimeout = fetchBudget(cfg.Directory.FetchTimeout, clientCfg.Retry)
	a.orchestrator = listing.New(c.FetchEntities, listCfg)

	router := api.SetupRouter(api.NewViewHandler(a.orchestrator, logger), logger)
	router.GET("/ready", readyHandler(a.redis, a.orchestrator))

	a.server = &http.Server{
		Addr:              ":" + cfg.App.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// fetchBudget is the longest a fetch may take: every attempt timing out
// plus the maximum backoff between attempts.
func fetchBudget(perRequest time.Duration, retry client.RetryConfig) time.Duration {
	attempts := max(1, retry.MaxAttempts)
	return time.Duration(attempts)*perRequest + time.Duration(attempts-1)*retry.MaxBackoff
}

// Close releases the orchestrator, client and Redis connection.
func (a *app) Close() {
	if a.orchestrator != nil {
		a.orchestrator.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// readyHandler reports 200 once the list holds data and Redis, when
// configured, answers.
func readyHandler(redisClient *redis.Client, lister *listing.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{
					Error:   "not_ready",
					Message: "redis unavailable",
				})
				return
			}
		}

		v := lister.View()
		if v.FetchedAt.IsZero() {
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{
				Error:   "not_ready",
				Message: fmt.Sprintf("list is %s", v.Status),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready", "list_status": v.Status})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
