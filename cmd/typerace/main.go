package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"typerace/internal/adapters"
	"typerace/internal/bootstrap"
	gameDelivery "typerace/internal/delivery/game"
	lobbyDelivery "typerace/internal/delivery/lobby"
	playerDelivery "typerace/internal/delivery/player"
	realtimeDelivery "typerace/internal/delivery/realtime"
	ownMiddleware "typerace/internal/middleware"
	repo "typerace/internal/repository"
	"typerace/internal/repository/memory"
	gameuc "typerace/internal/usecase/game"
	"typerace/internal/usecase/listener"
	lobbyuc "typerace/internal/usecase/lobby"
	"typerace/internal/usecase/optimistic"
	playeruc "typerace/internal/usecase/player"
)

type mainDeliveryHandler struct {
	player   *playerDelivery.PlayerHandler
	lobby    *lobbyDelivery.LobbyHandler
	game     *gameDelivery.GameHandler
	realtime *realtimeDelivery.RealtimeHandler
	log      *zap.SugaredLogger
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

type playerStore interface {
	playeruc.PlayerStore
	lobbyuc.PlayerStore
}

type tokenStore interface {
	lobbyuc.TokenIssuer
	realtimeDelivery.TokenRedeemer
}

// ports are the storage and event implementations selected by STORE_DRIVER.
type ports struct {
	players    playerStore
	lobbies    lobbyuc.LobbyStore
	statistics gameuc.StatisticsStore
	bus        realtimeDelivery.Bus
	tokens     tokenStore
	dedupe     gameuc.Deduper
}

func main() {
	logger := NewLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, closeStores, err := initPorts(ctx, logger, cfg)
	if err != nil {
		logger.Fatalw("Failed to initialize stores", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeStores()

	quotes, closeQuotes, err := initQuotes(ctx, logger, cfg)
	if err != nil {
		logger.Fatalw("Failed to initialize quote source", "source", cfg.QuoteSource, "error", err)
	}
	defer closeQuotes()

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(ctx, cfg, logger, p, quotes)
	handlers.Router(r, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("Server shutdown", "error", err)
		}
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("Failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, cfg *bootstrap.Config) {
	if cfg.IsLocalCors {
		r.Use(ownMiddleware.CORS(cfg.CorsOrigins...))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The socket authenticates with its disposable token instead of a bearer header.
	r.Get("/realtime", h.realtime.Serve)

	r.Group(func(r chi.Router) {
		r.Use(ownMiddleware.Identity([]byte(cfg.JwtSecret), h.log))
		h.player.Routes(r)
		h.lobby.Routes(r)
		h.game.Routes(r)
	})
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (*dataBaseAdapters, error) {
	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		return nil, err
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		_ = mongoAdapter.Close(ctx)
		return nil, err
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}, nil
}

func initPorts(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (ports, func(), error) {
	if cfg.StoreDriver == bootstrap.StoreDriverMemory {
		log.Warn("Using in-memory stores; state is lost on restart")
		return ports{
			players:    memory.NewPlayerStore(),
			lobbies:    memory.NewLobbyStore(),
			statistics: memory.NewStatisticsStore(),
			bus:        memory.NewEventBus(),
			tokens:     memory.NewTokenStore(),
			dedupe:     memory.NewDeduper(cfg.EventDedupTTL),
		}, func() {}, nil
	}

	db, err := initDatabaseAdapters(ctx, log, cfg)
	if err != nil {
		return ports{}, nil, err
	}
	closeAll := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.mongoAdapter.Close(closeCtx)
		_ = db.redisAdapter.Close(closeCtx)
	}

	players := repo.NewMongoPlayerStore(db.mongoAdapter.Database, log)
	lobbies := repo.NewMongoLobbyStore(db.mongoAdapter.Database, log)
	if err := players.EnsureIndexes(ctx); err != nil {
		closeAll()
		return ports{}, nil, err
	}
	if err := lobbies.EnsureIndexes(ctx); err != nil {
		closeAll()
		return ports{}, nil, err
	}

	client := db.redisAdapter.GetClient()
	return ports{
		players:    players,
		lobbies:    lobbies,
		statistics: repo.NewMongoStatisticsStore(db.mongoAdapter.Database, log),
		bus:        repo.NewRedisEventBus(client, log),
		tokens:     repo.NewRedisTokenStore(client, log),
		dedupe:     repo.NewRedisDeduper(client, cfg.EventDedupTTL),
	}, closeAll, nil
}

func initQuotes(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (gameuc.QuoteProvider, func(), error) {
	switch cfg.QuoteSource {
	case bootstrap.QuoteSourceHTTP:
		return repo.NewHTTPQuoteProvider(cfg.QuoteApiUrl, log), func() {}, nil
	case bootstrap.QuoteSourceGRPC:
		client := adapters.NewAdapterQuotes(cfg, log)
		if err := client.Init(ctx); err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close(context.Background()) }, nil
	default:
		return memory.NewQuoteProvider(nil), func() {}, nil
	}
}

func initializeDeliveryHandlers(
	ctx context.Context,
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	p ports,
	quotes gameuc.QuoteProvider,
) *mainDeliveryHandler {
	retry := optimistic.Policy{Attempts: cfg.WriteRetryAttempts, Interval: cfg.WriteRetryInterval}

	playerUC := playeruc.NewPlayerUseCase(p.players, log, retry)
	lobbyUC := lobbyuc.NewLobbyUseCase(p.players, p.lobbies, p.tokens, log, lobbyuc.Options{
		Retry:     retry,
		TokenTTL:  cfg.TokenTTL,
		PageLimit: cfg.PageLimitLobbies,
	})
	gameUC := gameuc.NewGameUseCase(p.players, p.lobbies, p.statistics, p.bus, quotes, p.dedupe, log,
		gameuc.Options{Retry: retry})
	gameListener := listener.NewListener(p.bus, cfg.GameDurationCeiling, log)

	var checkOrigin func(r *http.Request) bool
	if cfg.IsLocalCors {
		checkOrigin = ownMiddleware.OriginAllowed(cfg.CorsOrigins...)
	}

	return &mainDeliveryHandler{
		player:   playerDelivery.NewPlayerHandler(log, playerUC),
		lobby:    lobbyDelivery.NewLobbyHandler(log, lobbyUC),
		game:     gameDelivery.NewGameHandler(ctx, log, gameUC, gameListener),
		realtime: realtimeDelivery.NewRealtimeHandler(log, p.bus, p.tokens, checkOrigin),
		log:      log,
	}
}
