package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/clients"
	"github.com/watchhill101/smartCharging-sub004/internal/config"
	"github.com/watchhill101/smartCharging-sub004/internal/events"
	httpserver "github.com/watchhill101/smartCharging-sub004/internal/http"
	"github.com/watchhill101/smartCharging-sub004/internal/http/handlers"
	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/registry"
	"github.com/watchhill101/smartCharging-sub004/internal/repository"
	"github.com/watchhill101/smartCharging-sub004/internal/service"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
	"github.com/watchhill101/smartCharging-sub004/internal/ws"
	libdb "github.com/watchhill101/smartCharging-sub004/libs/db"
	libredis "github.com/watchhill101/smartCharging-sub004/libs/redis"
)

// App wires charging-service dependencies.
type App struct {
	server      *httpserver.Server
	registry    *registry.Registry
	sessions    *service.SessionsService
	publisher   events.Publisher
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph. Redis, Postgres and NATS are
// attached only when configured; without them the engine runs on the
// in-memory store with no archive and no event stream.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	var (
		redisClient *redis.Client
		store       storage.Store
	)
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		redisClient = client
		store = storage.NewRedisStore(client, cfg.SessionTTL())
	} else {
		store = storage.NewMemoryStore()
		logger.Info("redis not configured, using in-memory session store")
	}

	var (
		sqlDB       *sql.DB
		archiveRepo *repository.ArchiveRepository
	)
	if cfg.Postgres.DSN != "" {
		db, err := libdb.NewPostgresDB(cfg.Postgres.DSN)
		if err != nil {
			closeQuietly(redisClient)
			return nil, err
		}
		sqlDB = db
		archiveRepo = repository.NewArchiveRepository(db)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.Addr != "" {
		p, err := events.NewNATSPublisher(cfg.NATS.Addr, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			closeQuietly(redisClient)
			if sqlDB != nil {
				sqlDB.Close()
			}
			return nil, err
		}
		publisher = p
	}

	httpClient := clients.NewDefaultHTTPClient(cfg.ClientTimeout())
	var discounts service.DiscountProvider
	if cfg.Clients.CouponURL != "" {
		discounts = clients.NewCouponClient(cfg.Clients.CouponURL, httpClient, logger)
	}
	var delivery service.DeliverySender
	if cfg.Clients.NotifierURL != "" {
		delivery = clients.NewNotifierClient(cfg.Clients.NotifierURL, httpClient, logger)
	}

	reg := registry.New(seedPiles(cfg.Piles), cfg.HeartbeatCheckInterval(), cfg.HeartbeatTimeout(), logger, nil)

	hub := ws.NewHub(logger)
	wsServer := ws.NewServer(hub, 10*time.Second, logger)

	notifier := service.NewNotificationsService(store, hub, delivery,
		int64(cfg.Charging.NotificationHistoryLimit), logger, nil)
	orders := service.NewOrdersService(store, discounts, notifier, cfg.SessionTTL(), logger, nil)

	var archive service.SessionArchive
	if archiveRepo != nil {
		archive = archiveRepo
	}
	sessions := service.NewSessionsService(service.Deps{
		Store:     store,
		Piles:     reg,
		Orders:    orders,
		Notifier:  notifier,
		Broadcast: hub,
		Events:    publisher,
		Archive:   archive,
		Logger:    logger,
	}, service.Config{
		TickInterval:             cfg.TickInterval(),
		AnomalyInterval:          cfg.AnomalyInterval(),
		GraceDelay:               cfg.GraceDelay(),
		SessionTTL:               cfg.SessionTTL(),
		AnomalyHistoryLimit:      int64(cfg.Charging.AnomalyHistoryLimit),
		NotificationHistoryLimit: int64(cfg.Charging.NotificationHistoryLimit),
		AutoStopOnCritical:       cfg.Charging.AutoStopOnCritical,
	})

	routes := httpserver.RouterDeps{
		Charging:      handlers.NewChargingHandlers(sessions, logger),
		Sessions:      handlers.NewSessionsHandlers(sessions, orders, logger),
		Piles:         handlers.NewPilesHandlers(reg, logger),
		Notifications: handlers.NewNotificationsHandlers(notifier, logger),
		Stats:         handlers.NewStatsHandlers(sessions, reg, hub, logger),
		WS:            wsServer.HandleWS,
		Metrics:       promhttp.Handler(),
		Health:        handlers.NewHealthHandler(),
	}
	if archiveRepo != nil {
		routes.History = handlers.NewHistoryHandlers(archiveRepo, logger)
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		registry:    reg,
		sessions:    sessions,
		publisher:   publisher,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the heartbeat monitor and the HTTP server, blocking until
// ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	go a.registry.Start(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	a.sessions.Shutdown()
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("failed to close event publisher", zap.Error(err))
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}

func seedPiles(seeds []config.PileConfig) []models.Pile {
	piles := make([]models.Pile, 0, len(seeds))
	for _, seed := range seeds {
		piles = append(piles, models.Pile{
			ID:          seed.ID,
			Name:        seed.Name,
			StationID:   seed.StationID,
			StationName: seed.StationName,
			MaxPowerKW:  seed.MaxPowerKW,
			PricePerKwh: seed.PricePerKwh,
			Status:      models.PileAvailable,
		})
	}
	return piles
}

func closeQuietly(client *redis.Client) {
	if client != nil {
		client.Close()
	}
}
