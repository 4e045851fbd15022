// Package server wires the API server together: storage, password hashing,
// token codec, rate limiting and the HTTP and gRPC transports, and runs
// them until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/auth"
	"github.com/dmitrijs2005/qaapi/internal/server/config"
	"github.com/dmitrijs2005/qaapi/internal/server/httpapi"
	"github.com/dmitrijs2005/qaapi/internal/server/ratelimit"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/qaapi/internal/server/services"

	gs "github.com/dmitrijs2005/qaapi/internal/server/grpc"
)

// Seams for tests.
var (
	logOutput      io.Writer = os.Stdout
	openPostgres             = repomanager.OpenPostgres
	newRedisClient           = ratelimit.NewRedisClient
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	authService *services.AuthService
	userService *services.UserService
	httpServer  *httpapi.HTTPServer
	grpcServer  *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(logOutput, c.LogFormat, c.LogLevel)

	if c.InsecureSecret() {
		logger.Warn(ctx, "using the built-in development secret key; set SECRET_KEY outside local development")
	}

	app := &App{config: c, logger: logger}

	if err := app.initStorage(ctx); err != nil {
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(auth.HasherConfig{
		Algorithm:     auth.HashAlgorithm(c.PasswordHashAlgorithm),
		BcryptCost:    c.BcryptCost,
		MaxConcurrent: int64(c.MaxConcurrentHashes),
	}, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("password hasher init error: %w", err)
	}

	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		Secret:     []byte(c.SecretKey),
		AccessTTL:  c.AccessTokenValidityDuration,
		RefreshTTL: c.RefreshTokenValidityDuration,
		Issuer:     c.TokenIssuer,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	app.authService = services.NewAuthService(app.repomanager, hasher, codec, logger)
	app.userService = services.NewUserService(app.repomanager, hasher, logger)

	if c.SeedUsers {
		if _, err := app.authService.Seed(ctx, services.DefaultSeedUsers); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed users error: %w", err)
		}
	}

	limiter, err := app.initLimiter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if c.EndpointAddrHTTP != "" {
		api := httpapi.NewAPI(httpapi.Deps{
			Auth:        app.authService,
			Users:       app.userService,
			APIKeys:     auth.NewAPIKeyRegistry(c.APIKeys),
			Limiter:     limiter,
			CORSOrigins: c.CORSAllowedOrigins,
			Store:       app.repomanager.Name(),
			Logger:      logger,
		})
		app.httpServer = httpapi.NewHTTPServer(c.EndpointAddrHTTP, api.Handler(), logger)
	}
	if c.EndpointAddrGRPC != "" {
		app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, app.authService)
	}

	return app, nil
}

// initStorage selects Postgres when a DSN is configured and the in-memory
// store otherwise.
func (app *App) initStorage(ctx context.Context) error {
	if app.config.DatabaseDSN == "" {
		app.logger.Info(ctx, "no database DSN configured, using in-memory store")
		app.repomanager = repomanager.NewMemoryRepositoryManager()
		return nil
	}

	db, err := openPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return fmt.Errorf("db migration error: %w", err)
	}
	app.repomanager = m
	return nil
}

// initLimiter returns nil when rate limiting is switched off.
func (app *App) initLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	c := app.config
	if c.RateLimit <= 0 {
		return nil, nil
	}
	if c.RedisAddr == "" {
		return ratelimit.NewMemoryLimiter(c.RateLimit, c.RateLimitPeriod), nil
	}

	rdb, err := newRedisClient(ctx, c.RedisAddr, c.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.redis = rdb
	return ratelimit.NewRedisLimiter(rdb, c.RateLimit, c.RateLimitPeriod), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then releases storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.repomanager.Name())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	if app.httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "shutdown", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

// Close releases the store and the Redis client.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
		app.redis = nil
	}
	if app.repomanager != nil {
		errs = append(errs, app.repomanager.Close())
		app.repomanager = nil
	}
	return errors.Join(errs...)
}
