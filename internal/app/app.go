package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mando246-ah/football-fantasy-sub000/internal/config"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/standings"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/account/anubis"
	cachedrepo "github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/repository/cache"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/repository/memory"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/repository/postgres"
	"github.com/mando246-ah/football-fantasy-sub000/internal/infrastructure/sportsdata"
	"github.com/mando246-ah/football-fantasy-sub000/internal/interfaces/httpapi"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/cache"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/id"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/logging"
	"github.com/mando246-ah/football-fantasy-sub000/internal/platform/resilience"
	"github.com/mando246-ah/football-fantasy-sub000/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// App wires the engine together: store backend, player catalog, services,
// HTTP surface and the background driver loop.
type App struct {
	Server *http.Server
	Driver *usecase.DriverService

	db     *sqlx.DB
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, playerRepo, db, err := buildStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		playerRepo = cachedrepo.NewPlayerRepository(playerRepo, cache.NewStore(cfg.CacheTTL))
	}

	standingsProvider, liveProvider := buildStatsProviders(cfg, logger)

	draftSvc := usecase.NewDraftService(store, playerRepo)
	marketSvc := usecase.NewMarketService(store, playerRepo, standingsProvider, liveProvider)
	tradeSvc := usecase.NewTradeService(store, id.NewRandomGenerator())
	lineupSvc := usecase.NewLineupService(store)
	driverSvc := usecase.NewDriverService(store, draftSvc, marketSvc, usecase.DriverConfig{
		TickInterval: cfg.DriverTickInterval,
		WorkerCount:  cfg.DriverWorkerCount,
	}, logger)

	anubisClient := anubis.NewClient(anubis.ClientConfig{
		HTTPClient:     &http.Client{Timeout: cfg.AnubisTimeout},
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectURL,
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
		},
	})

	handler := httpapi.NewHandler(draftSvc, marketSvc, tradeSvc, lineupSvc, driverSvc, logger)
	router := httpapi.NewRouter(handler, anubisClient, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server: server,
		Driver: driverSvc,
		db:     db,
		logger: logger,
	}, nil
}

// RunDriver blocks in the scheduler loop until ctx is cancelled.
func (a *App) RunDriver(ctx context.Context) {
	a.Driver.Run(ctx)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func buildStore(cfg config.Config, logger *logging.Logger) (engine.Store, player.Repository, *sqlx.DB, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		store := memory.NewStore()
		store.PutState(memory.SeedRoom(time.Now().UTC()))
		logger.Info("store backend ready", "backend", cfg.StoreBackend, "seed_room", memory.RoomIDDemo)
		return store, memory.NewPlayerRepository(memory.SeedPlayers(memory.RoomIDDemo)), nil, nil

	case config.StoreBackendPostgres:
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.AppEnv == config.EnvDev {
			if err := postgres.BootstrapSeed(context.Background(), db); err != nil {
				_ = db.Close()
				return nil, nil, nil, fmt.Errorf("bootstrap seed: %w", err)
			}
		}
		logger.Info("store backend ready", "backend", cfg.StoreBackend, "db_name", dbNameFromURL(cfg.DBURL))
		return postgres.NewStore(db), postgres.NewPlayerRepository(db), db, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func buildStatsProviders(cfg config.Config, logger *logging.Logger) (standings.Provider, standings.LiveStatusProvider) {
	if !cfg.StatsFeedEnabled {
		logger.Info("stats feed disabled, market resolution falls back to submission order")
		fallback := emptyStandings{}
		return fallback, fallback
	}

	client := sportsdata.NewClient(sportsdata.ClientConfig{
		BaseURL:      cfg.StatsFeedBaseURL,
		Token:        cfg.StatsFeedToken,
		Timeout:      cfg.StatsFeedTimeout,
		MaxRetries:   cfg.StatsFeedMaxRetries,
		StandingsTTL: cfg.StatsFeedStandingsTTL,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.StatsFeedCircuitEnabled,
			FailureThreshold: cfg.StatsFeedCircuitFailureCount,
			OpenTimeout:      cfg.StatsFeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.StatsFeedCircuitHalfOpenMaxReq,
		},
	})
	return client, client
}

// emptyStandings serves deployments without a stats feed. No standings means
// the resolution priority order degrades to the deterministic tiebreaker,
// and no live set means lineup saves are never blocked.
type emptyStandings struct{}

func (emptyStandings) ForRoom(context.Context, string) (map[string]standings.Entry, error) {
	return map[string]standings.Entry{}, nil
}

func (emptyStandings) LiveStarters(context.Context, string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
