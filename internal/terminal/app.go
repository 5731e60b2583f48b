// Package terminal assembles the POS terminal: local store, server client,
// image cache, sync engine, and the UI-facing services.
package terminal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/terminal/api"
	"github.com/dmitrijs2005/possync/internal/terminal/config"
	"github.com/dmitrijs2005/possync/internal/terminal/imagecache"
	"github.com/dmitrijs2005/possync/internal/terminal/services"
	"github.com/dmitrijs2005/possync/internal/terminal/store"
	enginesync "github.com/dmitrijs2005/possync/internal/terminal/sync"

	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	Engine  *enginesync.Engine
	Sales   *services.SalesService
	Reg     *services.RegisterService
	Catalog *services.CatalogService
	Images  *imagecache.Cache
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	repos, db, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	// Seed the identifier generator past everything already in the store, so
	// a restart never reissues an id.
	catalogMax, err := repos.Catalog.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("id seed error: %w", err)
	}
	registerMax, err := repos.Register.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("id seed error: %w", err)
	}
	seed := catalogMax
	if registerMax > seed {
		seed = registerMax
	}
	ids := store.NewIDGenerator(seed)

	apiClient := api.NewClient(c.ServerBaseURL, c.TerminalName, c.ProvisioningSecret)
	images := imagecache.New(c.ImageCacheDir, apiClient)

	engine := enginesync.NewEngine(
		enginesync.Config{
			Interval:     c.SyncInterval,
			ProbeTimeout: c.ProbeTimeout,
			PushTimeout:  c.PushTimeout,
			PullTimeout:  c.PullTimeout,
			BackoffBase:  c.BackoffBase,
		},
		apiClient,
		repos.Queue,
		repos.Cursor,
		repos.SyncLog,
		enginesync.Mergers(repos.Catalog, ids),
		images,
		logger,
	)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		Engine:  engine,
		Sales:   services.NewSalesService(repos.Register, repos.Catalog, repos.Queue, ids),
		Reg:     services.NewRegisterService(repos.Register, repos.Catalog, repos.Queue, ids),
		Catalog: services.NewCatalogService(repos.Catalog, repos.Queue, ids),
		Images:  images,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the sync engine and blocks until the context is cancelled or a
// termination signal arrives. The terminal keeps working when the initial
// login fails; the engine retries reachability on its own schedule.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting terminal", "server", app.config.ServerBaseURL, "terminal", app.config.TerminalName)

	app.initSignalHandler(cancelFunc)

	app.Engine.Run(ctx)

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
