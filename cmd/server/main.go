package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/config"
	"github.com/iliyamo/mission-reveal/internal/database"
	"github.com/iliyamo/mission-reveal/internal/destination"
	"github.com/iliyamo/mission-reveal/internal/fieldcrypt"
	"github.com/iliyamo/mission-reveal/internal/guestbook"
	"github.com/iliyamo/mission-reveal/internal/handler"
	"github.com/iliyamo/mission-reveal/internal/hints"
	"github.com/iliyamo/mission-reveal/internal/kv"
	"github.com/iliyamo/mission-reveal/internal/llm"
	"github.com/iliyamo/mission-reveal/internal/logger"
	"github.com/iliyamo/mission-reveal/internal/middleware"
	"github.com/iliyamo/mission-reveal/internal/queue"
	"github.com/iliyamo/mission-reveal/internal/repository"
	"github.com/iliyamo/mission-reveal/internal/reveal"
	"github.com/iliyamo/mission-reveal/internal/router"
	queue_publisher "github.com/iliyamo/mission-reveal/internal/service"
	"github.com/iliyamo/mission-reveal/internal/storage"
)

const kvPrefix = "reveal:kv"

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		boot := logger.New("mission-reveal", "dev", "info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New("mission-reveal", cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBParams())
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
	}

	codec, err := fieldcrypt.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("init field codec")
	}

	// Without Redis the KV falls back to process memory and the response
	// cache and rate limiter switch themselves off.
	rdb := config.NewRedisClient()
	var store kv.Store
	if rdb != nil {
		defer rdb.Close()
		store = kv.NewRedisStore(rdb, kvPrefix)
	} else {
		log.Warn().Msg("redis unavailable, using in-memory store")
		store = kv.NewMemoryStore(nil)
	}

	var pub reveal.Publisher
	if cfg.EventsEnabled {
		pub = queue_publisher.NewPublisher(cfg.RabbitURL, log)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventLogPath, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	chatModel := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMChatModel, cfg.LLMTimeout)
	extractModel := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMExtractModel, cfg.LLMTimeout).WithTemperature(0)

	gazetteer, err := destination.LoadGazetteer(cfg.GazetteerPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.GazetteerPath).Msg("gazetteer not loaded")
	}

	presigner, err := storage.NewPresigner(ctx, cfg.StorageOptions())
	if err != nil && !errors.Is(err, storage.ErrNotConfigured) {
		log.Fatal().Err(err).Msg("init presigner")
	}

	revealSvc := reveal.NewService(repository.NewRevelationRepo(db, cfg.DBDriver), codec, pub, log)
	destSvc := destination.NewService(revealSvc, store, destination.NewLLMGeocoder(extractModel), gazetteer, log)
	hintSvc := hints.NewService(store, chatModel, log)
	guestSvc := guestbook.NewService(repository.NewGuestMessageRepo(db, cfg.DBDriver), log)

	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))

	revealH := handler.NewRevealHandler(revealSvc, reveal.NewExtractor(extractModel), destSvc, log)
	router.RegisterRoutes(e, handler.NewHealthHandler(db))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.AdminPasswordHash, cfg.JWTSecret, cfg.AccessTTL(), log))
	router.RegisterPublic(e, revealH, cfg.JWTSecret)
	router.RegisterChat(e, handler.NewChatHandler(hintSvc, revealSvc, log), rlCfg, rdb, log)
	guestH := handler.NewGuestbookHandler(guestSvc, log)
	router.RegisterGuestbook(e, guestH, cacheCfg, rlCfg, rdb, log)
	router.RegisterAdmin(e, router.AdminHandlers{
		Reveal:    revealH,
		Guestbook: guestH,
		Assets:    handler.NewAssetsHandler(presigner, log),
	}, cfg.JWTSecret, cacheCfg, rdb, log)

	go serve(e, ":"+cfg.Port, cfg.Env, log)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

func serve(e *echo.Echo, addr, env string, log zerolog.Logger) {
	log.Info().Str("addr", addr).Str("env", env).Msg("listening")
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server")
	}
}
