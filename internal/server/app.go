// Package server wires configuration, storage, key custody backends and the
// gRPC transport into a running custody server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/custodykeeper/internal/cryptox"
	"github.com/dmitrijs2005/custodykeeper/internal/logging"
	"github.com/dmitrijs2005/custodykeeper/internal/server/audit"
	"github.com/dmitrijs2005/custodykeeper/internal/server/awsx"
	"github.com/dmitrijs2005/custodykeeper/internal/server/config"
	"github.com/dmitrijs2005/custodykeeper/internal/server/escrow"
	"github.com/dmitrijs2005/custodykeeper/internal/server/locks"
	"github.com/dmitrijs2005/custodykeeper/internal/server/maintenance"
	"github.com/dmitrijs2005/custodykeeper/internal/server/migrations"
	"github.com/dmitrijs2005/custodykeeper/internal/server/notify"
	"github.com/dmitrijs2005/custodykeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/custodykeeper/internal/server/services"
	"github.com/dmitrijs2005/custodykeeper/internal/server/store"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/custodykeeper/internal/server/grpc"
)

// lockTTL bounds how long a crashed instance can hold a wallet lock.
const lockTTL = 30 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	store    store.Store
	wallets  *services.WalletService
	recovery *services.RecoveryService
	closers  []func()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(c.LogFormat, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	db, err := store.Open(c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.closers = append(app.closers, func() { db.Close() })

	if err := migrations.Check(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("db schema error: %w", err)
	}
	app.store = store.NewPostgresStore(db, repomanager.NewPostgresRepositoryManager())

	deriver, err := cryptox.NewDeriver(c.KDFParams())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("kdf init error: %w", err)
	}

	esc, sinks, err := app.initCustody(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	locker := app.initLocker()

	notifier, err := app.initNotifier()
	if err != nil {
		app.Close()
		return nil, err
	}

	ss := services.NewSessionService(app.store, c.SessionValidityDuration, logger)
	app.wallets = services.NewWalletService(app.store, deriver, esc, ss, locker, sinks, logger)
	app.recovery = services.NewRecoveryService(app.store, deriver, esc, locker, sinks, notifier, c.RecoveryTokenValidityDuration, logger)

	return app, nil
}

// initCustody selects the escrow backend and the audit sinks. Both AWS
// backends share one aws.Config.
func (app *App) initCustody(ctx context.Context) (escrow.Escrow, audit.Sink, error) {
	c := app.config
	sinks := audit.Multi{audit.NewLogSink(app.logger)}

	needAWS := c.EscrowMode == "kms" || c.S3AuditBucket != ""
	if !needAWS {
		esc, err := escrow.NewLocal(c.EscrowLocalKey)
		if err != nil {
			return nil, nil, fmt.Errorf("escrow init error: %w", err)
		}
		return esc, sinks, nil
	}

	awsCfg, err := awsx.Load(ctx, awsx.Options{
		Region:          c.AWSRegion,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("aws config error: %w", err)
	}

	if c.S3AuditBucket != "" {
		sinks = append(sinks, audit.NewS3Sink(awsCfg, c.S3AuditBucket, c.S3BaseEndpoint))
	}

	if c.EscrowMode == "kms" {
		return escrow.NewKMS(awsCfg, c.KMSKeyID, c.KMSBaseEndpoint), sinks, nil
	}
	esc, err := escrow.NewLocal(c.EscrowLocalKey)
	if err != nil {
		return nil, nil, fmt.Errorf("escrow init error: %w", err)
	}
	return esc, sinks, nil
}

func (app *App) initLocker() locks.Locker {
	if app.config.RedisAddr == "" {
		return locks.NewLocal()
	}
	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	app.closers = append(app.closers, func() { client.Close() })
	return locks.NewRedis(client, lockTTL, app.logger)
}

func (app *App) initNotifier() (notify.Notifier, error) {
	if app.config.NATSURL == "" {
		return notify.NewLogNotifier(app.logger), nil
	}
	nc, err := notify.ConnectNATS(app.config.NATSURL, app.logger)
	if err != nil {
		return nil, fmt.Errorf("nats connect error: %w", err)
	}
	app.closers = append(app.closers, func() { drain(nc) })
	return notify.NewNATSNotifier(nc, app.config.RecoverySubject, app.logger), nil
}

func drain(nc *nats.Conn) {
	if err := nc.Drain(); err != nil {
		nc.Close()
	}
}

// Close releases external connections in reverse order of acquisition.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.wallets, app.recovery, app.store.Ping, app.config.SecretKey,
		gs.WithOperatorTokenTTL(app.config.OperatorTokenValidityDuration))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server stopped", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting custody server...", "addr", app.config.EndpointAddrGRPC)

	app.initSignalHandler(cancelFunc)

	scheduler, err := maintenance.Schedule(ctx, maintenance.NewPurger(app.store, app.logger), app.config.PurgeInterval)
	if err != nil {
		app.logger.Error(ctx, "purge scheduler init failed", "error", err)
		return
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			app.logger.Warn(ctx, "purge scheduler shutdown", "error", err)
		}
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(ctx, "custody server stopped")
}
