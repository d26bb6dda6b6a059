// Package bootstrap builds the shared dependency graph for the API server and bookctl.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go-bookstore-ws/internal/config"
	"go-bookstore-ws/internal/events"
	"go-bookstore-ws/internal/idgen"
	"go-bookstore-ws/internal/lock"
	"go-bookstore-ws/internal/reconcile"
	"go-bookstore-ws/internal/service"
	"go-bookstore-ws/internal/storage"
	"go-bookstore-ws/internal/ws"
	"go-bookstore-ws/pkg/database"
	"go-bookstore-ws/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RedisChannel carries committed events between instances.
const RedisChannel = "bookstore:events"

type Services struct {
	Auth           service.AuthService
	Inventory      service.InventoryService
	Customers      service.CustomerService
	Invoices       service.InvoiceService
	Reconciliation service.ReconciliationService
	Ledger         service.LedgerService
	Dashboard      service.DashboardService
}

// App is everything a process needs after startup.
type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	DB        *gorm.DB
	Store     *service.Store
	Redis     *redis.Client
	Publisher events.Publisher
	Blobs     storage.BlobStore
	Services  Services

	closers []io.Closer
}

// Options picks what a process wires beyond the database.
type Options struct {
	// Hub receives live events; nil for processes without websocket clients.
	Hub *ws.Hub
}

// New connects storage and builds every service. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if cfg.JWTSecret != "" {
		jwt.SetSecret(cfg.JWTSecret)
	}

	// 1. Database
	var err error
	switch cfg.DBDriver {
	case config.DriverSQLite:
		a.DB, err = database.ConnectSQLite(cfg.SQLitePath, log)
	default:
		a.DB, err = database.ConnectPostgres(cfg.PostgresDSN(), log)
	}
	if err != nil {
		return nil, err
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		a.closers = append(a.closers, sqlDB)
	}
	if err := database.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	// 2. Redis (lock + fan-out), opsional
	locker := lock.NewNoop()
	if cfg.RedisAddress != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		a.closers = append(a.closers, a.Redis)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis not reachable, continuing with version checks only")
		}
		locker = lock.NewRedis(a.Redis, log)
	}

	// 3. Event bus
	if a.Publisher, err = a.publisher(ctx, opts.Hub); err != nil {
		return nil, err
	}

	// 4. Bukti pembayaran / retur
	switch cfg.StorageProvider {
	case config.StorageGCS:
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCPCredentialsJSON)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs)
		a.Blobs = gcs
	default:
		local, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		a.Blobs = local
	}

	// 5. Services
	ids, err := idgen.New(cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}
	policy, err := reconcile.ParseOutflowPolicy(cfg.ReturnOutflowPolicy)
	if err != nil {
		return nil, err
	}

	a.Store = service.NewStore(a.DB)
	committer := service.NewCommitter(a.Store, locker, cfg.ReconcileMaxRetries)
	a.Services = Services{
		Auth:           service.NewAuthService(a.Store.Users, a.Publisher),
		Inventory:      service.NewInventoryService(a.Store, committer, ids, a.Publisher),
		Customers:      service.NewCustomerService(a.Store, cfg.PhoneRegion),
		Invoices:       service.NewInvoiceService(a.Store, committer, ids, a.Publisher),
		Reconciliation: service.NewReconciliationService(a.Store, committer, ids, a.Publisher, a.Blobs, policy),
		Ledger:         service.NewLedgerService(a.Store, committer, ids, a.Publisher),
		Dashboard:      service.NewDashboardService(a.Store),
	}

	ok = true
	return a, nil
}

func (a *App) publisher(ctx context.Context, hub *ws.Hub) (events.Publisher, error) {
	var local events.Publisher = events.Discard{}
	if hub != nil {
		local = events.NewHubPublisher(hub)
	}

	switch a.Config.EventBus {
	case config.BusRedis:
		if a.Redis == nil {
			return nil, errors.New("EVENT_BUS=redis needs REDIS_ADDRESS")
		}
		// Hub lokal diisi lewat Relay, bukan langsung
		if hub != nil {
			go events.Relay(ctx, a.Redis, RedisChannel, hub, a.Log)
		}
		return events.NewRedisPublisher(a.Redis, RedisChannel), nil

	case config.BusPubSub:
		ps, err := events.NewPubSubPublisher(ctx, a.Config.GCPProject, a.Config.PubSubTopic, a.Config.GCPCredentialsJSON)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ps)
		return events.Multi{local, ps}, nil
	}
	return local, nil
}

// LocalUploadDir is the directory to serve at /uploads, empty when proofs live in GCS.
func (a *App) LocalUploadDir() string {
	if local, ok := a.Blobs.(*storage.LocalStore); ok {
		return local.Dir()
	}
	return ""
}

// SeedOwner creates the first OWNER account from config.
func (a *App) SeedOwner() {
	created, err := a.Services.Auth.EnsureOwner(a.Config.OwnerEmail, a.Config.OwnerPassword, "Owner")
	if err != nil {
		a.Log.WithError(err).Warn("failed to seed owner account")
		return
	}
	if created {
		a.Log.WithField("email", a.Config.OwnerEmail).Info("owner account created, change the password after first login")
	}
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}
