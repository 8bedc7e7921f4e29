// Package app wires the sync daemon: stores, connectivity monitor, sync
// engine, entitlement coordinator, scheduler and health endpoint.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/liftsync/internal/auth"
	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/config"
	"github.com/dmitrijs2005/liftsync/internal/connectivity"
	"github.com/dmitrijs2005/liftsync/internal/engine"
	"github.com/dmitrijs2005/liftsync/internal/entitlement"
	"github.com/dmitrijs2005/liftsync/internal/filex"
	"github.com/dmitrijs2005/liftsync/internal/health"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/repositories/local"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
	"github.com/dmitrijs2005/liftsync/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// runRemoteMigrations is a seam for tests.
var runRemoteMigrations = remote.RunMigrations

type App struct {
	config *config.Config
	logger logging.Logger

	local    *local.Store
	remoteDB *sql.DB

	conn         *connectivity.Monitor
	engine       *engine.Engine
	entitlements *entitlement.Coordinator
	scheduler    *scheduler.Scheduler

	userID string
}

// NewApp opens the stores and builds every component. The remote store is
// optional: without RemoteDSN the engine runs in local-only mode, and
// remote.MemoryDSN selects an in-process remote for development. A missing
// user is not an error; syncing simply waits for a sign-in.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	dbPath, err := filex.EnsureParentDir(c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local db init error: %w", err)
	}
	ls, err := local.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("local db init error: %w", err)
	}

	app := &App{config: c, logger: l, local: ls}

	// goose keeps its dialect globally, so remote migrations run after the
	// local ones, never concurrently
	var rs remote.Store
	var pinger connectivity.Pinger
	switch {
	case c.RemoteDSN == remote.MemoryDSN:
		l.Warn(ctx, "using in-process remote store, data is not shared")
		store := remote.NewMemoryStore()
		rs, pinger = store, store
	case c.RemoteConfigured():
		db, err := remote.Open(c.RemoteDSN)
		if err != nil {
			_ = ls.Close()
			return nil, fmt.Errorf("remote db init error: %w", err)
		}
		if err := runRemoteMigrations(ctx, db); err != nil {
			// an unreachable remote is normal for a local-first app
			if !remote.IsNetwork(err) {
				_ = db.Close()
				_ = ls.Close()
				return nil, fmt.Errorf("remote db init error: %w", err)
			}
			l.Warn(ctx, "remote migrations skipped, remote unreachable", "error", err)
		}
		app.remoteDB = db
		store := remote.NewPostgresStore(db)
		rs, pinger = store, store
	default:
		l.Info(ctx, "remote store not configured, running local-only")
	}

	app.conn = connectivity.NewMonitor(pinger, l)
	app.engine = engine.New(ls, rs, app.conn, nil, l)
	cache := entitlement.NewCache(ls, l, nil)
	app.entitlements = entitlement.NewCoordinator(rs, app.conn, cache, l, nil)
	app.scheduler = scheduler.New(app.engine, app.conn, c.SyncInterval, l)

	userID, err := auth.ResolveUserID(c.UserID, c.AccessToken, []byte(c.JWTSecret))
	switch {
	case err == nil:
		app.userID = userID
	case errors.Is(err, common.ErrNoUserID) && c.AccessToken == "":
		l.Info(ctx, "no signed-in user")
	default:
		_ = app.Close()
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if err := app.engine.Init(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("engine init error: %w", err)
	}

	return app, nil
}

func (app *App) Engine() *engine.Engine { return app.engine }
func (app *App) Entitlements() *entitlement.Coordinator { return app.entitlements }
func (app *App) Scheduler() *scheduler.Scheduler { return app.scheduler }
func (app *App) Connectivity() *connectivity.Monitor { return app.conn }
func (app *App) UserID() string { return app.userID }
func (app *App) Local() *local.Store { return app.local }

// CheckConnectivity probes the remote once.
func (app *App) CheckConnectivity(ctx context.Context) bool {
	return app.conn.Check(ctx)
}

// Close releases both databases.
func (app *App) Close() error {
	var errs []error
	if app.remoteDB != nil {
		errs = append(errs, app.remoteDB.Close())
	}
	if app.local != nil {
		errs = append(errs, app.local.Close())
	}
	return errors.Join(errs...)
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

// Run starts the background components and blocks until ctx is done or a
// signal arrives. It closes the stores on return.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	app.conn.Check(ctx)
	if app.userID != "" {
		app.scheduler.SignIn(app.userID)
	}

	g, ctx := errgroup.WithContext(ctx)

	if app.config.ConnectivityCheckInterval > 0 {
		g.Go(func() error {
			app.conn.Run(ctx, app.config.ConnectivityCheckInterval)
			return nil
		})
	}

	g.Go(func() error {
		app.scheduler.Run(ctx)
		return nil
	})

	if app.config.HealthAddr != "" {
		g.Go(func() error {
			hs := health.NewServer(app.config.HealthAddr, app.engine, app.logger)
			if err := hs.Run(ctx); err != nil {
				app.logger.Error(ctx, "health server failed", "error", err)
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	app.logger.Info(context.Background(), "Stopping app...")

	if cerr := app.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}
