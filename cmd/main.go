package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"askgm/internal/adapters"
	"askgm/internal/bootstrap"
	chatDelivery "askgm/internal/delivery/chat"
	gameDelivery "askgm/internal/delivery/game"
	systemDelivery "askgm/internal/delivery/system"
	"askgm/internal/logger"
	ownMiddleware "askgm/internal/middleware"
	"askgm/internal/repository"
	"askgm/internal/usecase/analysis"
	chatuc "askgm/internal/usecase/chat"
	gameuc "askgm/internal/usecase/game"
)

type mainDeliveryHandler struct {
	game   *gameDelivery.GameHandler
	chat   *chatDelivery.ChatHandler
	system *systemDelivery.SystemHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	cfgPath := os.Getenv("ASKGM_CONFIG")
	if cfgPath == "" {
		cfgPath = ".env"
	}
	cfg, err := bootstrap.Setup(cfgPath)
	if err != nil {
		logger.New("info", false).Fatalw("failed to setup configuration", "error", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogDev)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseAdapters := initDatabaseAdapters(ctx, log, cfg)
	defer databaseAdapters.mongoAdapter.Close(context.Background())
	defer databaseAdapters.redisAdapter.Close(context.Background())

	coordinator := newCoordinator(log, cfg, databaseAdapters)
	defer func() {
		if err := coordinator.Close(); err != nil {
			log.Warnw("engine did not shut down cleanly", "error", err)
		}
	}()

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(log, cfg, coordinator, databaseAdapters)
	handlers.Router(r, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server is running on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "error", err)
	}
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, cfg *bootstrap.Config) {
	if cfg.IsLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(ownMiddleware.BetaGate(cfg.BetaPasscode))
		r.Get("/health", h.system.HandleHealth)
		h.game.Routes(r)
		r.Post("/chat", h.chat.HandleAsk)
	})
}

// initDatabaseAdapters connects what is configured. Missing or unreachable
// stores leave the adapter empty and the in-memory repositories take over.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if cfg.MongoUri != "" {
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Warnw("MongoDB unavailable, keeping games and chats in memory", "error", err)
		}
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if cfg.RedisUrl != "" {
		if err := redisAdapter.Init(ctx); err != nil {
			log.Warnw("Redis unavailable, evaluation cache disabled", "error", err)
		}
	}

	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func newCoordinator(log *zap.SugaredLogger, cfg *bootstrap.Config, db *dataBaseAdapters) *analysis.Coordinator {
	var fallback analysis.Evaluator = repository.NewCloudEvalClient(cfg.CloudEvalUrl, cfg.CloudEvalTimeout, log)
	if client := db.redisAdapter.GetClient(); client != nil {
		fallback = repository.NewCachedEvaluator(fallback, client, cfg.EvalCacheTTL, log)
	}

	var engine analysis.Engine
	if cfg.EnginePath != "" {
		engine = repository.NewEngineSession(
			repository.ExecStarter(cfg.EnginePath, cfg.EngineArgList()...),
			cfg.EngineInitTimeout,
			log,
		)
	} else {
		log.Info("no ENGINE_PATH configured, using cloud evaluation only")
	}
	return analysis.NewCoordinator(engine, fallback, cfg.EngineDepth, log)
}

func initializeDeliveryHandlers(
	log *zap.SugaredLogger,
	cfg *bootstrap.Config,
	coordinator *analysis.Coordinator,
	db *dataBaseAdapters,
) *mainDeliveryHandler {
	var games gameuc.TimelineStore = repository.NewMemoryGameRepository()
	if db.redisAdapter.GetClient() != nil || db.mongoAdapter.Database != nil {
		games = repository.NewGameRepository(log, db.redisAdapter.GetClient(), db.mongoAdapter.Database, cfg.TimelineTTL)
	}
	var chats chatuc.ChatStore = repository.NewMemoryChatRepository()
	if db.mongoAdapter.Database != nil {
		chats = repository.NewChatRepository(log, db.mongoAdapter.Database)
	}

	llmAdapter := adapters.NewLlmAdapter(cfg.LlmApiKey, cfg.LlmModel)
	if !llmAdapter.HasKey() {
		log.Warn("LLM_API_KEY is not set, persona chat will fail")
	}
	llm := repository.NewLlmRepository(llmAdapter, cfg.LlmMaxTokens, log)

	gameUC := gameuc.NewGameUseCase(repository.NewChessOracle(), games, coordinator, log)
	chatUC := chatuc.NewChatUseCase(llm, chats, gameUC, coordinator, log)

	return &mainDeliveryHandler{
		game:   gameDelivery.NewGameHandler(log, gameUC),
		chat:   chatDelivery.NewChatHandler(log, chatUC),
		system: systemDelivery.NewSystemHandler(llmAdapter.HasKey(), coordinator),
	}
}
