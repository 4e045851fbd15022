package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/qaapi/internal/client/client"
	"github.com/dmitrijs2005/qaapi/internal/client/config"
	"github.com/dmitrijs2005/qaapi/internal/client/models"
	"github.com/dmitrijs2005/qaapi/internal/client/services"
	"github.com/dmitrijs2005/qaapi/internal/filex"
	"github.com/dmitrijs2005/qaapi/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	api         client.Client
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	mu   sync.RWMutex
	Mode Mode
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", "warn").With("module", "cli")

	if _, err := filex.EnsureParentDir(c.SessionDBPath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.SessionDBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.SessionDBPath, "error", err)
		return nil, err
	}

	var as services.AuthService
	api := client.NewAPIClient(c.ServerBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithRetry(c.MaxRetries, c.RetryBaseDelay),
		client.WithTokenObserver(func(p models.TokenPair) {
			if as == nil {
				return
			}
			if err := as.SaveTokens(context.Background(), p); err != nil {
				logger.Warn(context.Background(), "saving session failed", "error", err)
			}
		}),
	)
	as = services.NewAuthService(api, db)

	return &App{
		config:      c,
		authService: as,
		api:         api,
		logger:      logger,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

func (a *App) mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.authService.Username() != ""
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// checkOnline pings the server once and records the resulting mode.
func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the server every interval until ctx is
// done. A non-positive interval disables it.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
