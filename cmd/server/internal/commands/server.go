package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shiftwise/marketd/internal/auth"
	"github.com/shiftwise/marketd/internal/logger"
	"github.com/shiftwise/marketd/internal/market"
	"github.com/shiftwise/marketd/internal/notify"
	"github.com/shiftwise/marketd/internal/server"
	"github.com/shiftwise/marketd/internal/store"
	memorystore "github.com/shiftwise/marketd/internal/store/memory"
	postgresstore "github.com/shiftwise/marketd/internal/store/postgres"
)

type ServerCmd struct {
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"MARKETD_LISTEN"`

	// Auth configuration
	JWTSecret string `help:"HMAC secret for verifying bearer tokens" env:"MARKETD_JWT_SECRET"`
	NoAuth    bool   `help:"resolve identity from plain headers instead of JWTs (development only)" default:"false" env:"MARKETD_NO_AUTH"`

	// Manager directory, used to fan out marketplace notifications.
	// Entries are tenantID:userID pairs; repeat the flag per manager.
	Managers []string `help:"static manager directory entries (tenantID:userID)" env:"MARKETD_MANAGERS"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"MARKETD_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Optional redis-backed notification dedupe cache
	RedisAddr string `help:"redis address for the notification dedupe cache (empty disables it)" default:"" env:"MARKETD_REDIS_ADDR"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"MARKETD_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	var stores *store.Stores
	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return err
		}

		pool, err := connectPostgres(ctx, &c.PostgresStore)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()

		stores = postgresstore.NewStores(pool)
		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		stores = memorystore.NewStores()
		log.Info().Msg("Using in-memory stores")
	}

	var cache notify.DedupeCache
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer client.Close()

		cache = notify.NewRedisDedupeCache(client)
		log.Info().Str("addr", c.RedisAddr).Msg("Notification dedupe cache enabled")
	}

	managers, err := parseManagers(c.Managers)
	if err != nil {
		return err
	}

	notifier := notify.NewNotifier(stores.Notifications, notify.NopSender, cache)
	service := market.NewService(stores, notifier, managers)

	var authMiddleware func(http.Handler) http.Handler
	switch {
	case c.NoAuth:
		log.Warn().Msg("Authentication disabled, resolving identity from headers")
		authMiddleware = auth.InsecureHeaderMiddleware()
	case c.JWTSecret == "":
		return errors.New("a JWT secret is required unless --no-auth is set")
	case len(c.JWTSecret) < 32:
		return errors.New("JWT secret must be at least 32 bytes for HMAC-SHA256")
	default:
		authMiddleware = auth.Middleware([]byte(c.JWTSecret))
	}

	srv := server.NewServer(service, authMiddleware)
	httpServer := configureHTTPServer(c.Listen, srv.Handler(log))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", c.Listen).Msg("Listening for HTTP connections")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// connectPostgres retries the initial connection so the server survives the
// database coming up after it, as happens under compose.
func connectPostgres(ctx context.Context, flags *PostgresStoreFlags) (*pgxpool.Pool, error) {
	cfg := &postgresstore.PoolConfig{
		ConnString:      flags.ConnString,
		MaxConns:        flags.MaxConns,
		MinConns:        flags.MinConns,
		MaxConnLifetime: flags.MaxConnLifetime,
		MaxConnIdleTime: flags.MaxConnIdleTime,
		AutoMigrate:     flags.AutoMigrate,
	}

	return backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		return postgresstore.NewPool(ctx, cfg)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(time.Minute),
	)
}

func parseManagers(entries []string) (market.StaticManagers, error) {
	managers := market.StaticManagers{}
	for _, entry := range entries {
		tenantPart, userPart, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid manager entry %q, expected tenantID:userID", entry)
		}

		tenantID, err := uuid.Parse(tenantPart)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant ID in manager entry %q: %w", entry, err)
		}
		userID, err := uuid.Parse(userPart)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in manager entry %q: %w", entry, err)
		}

		managers[tenantID] = append(managers[tenantID], userID)
	}
	return managers, nil
}
