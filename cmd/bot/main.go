package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/cache"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/caption"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/config"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/database"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/eligibility"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/flow"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/handlers"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/jobs"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/log"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/moderation"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/openai"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/queue"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/relocate"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/repository"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/server"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/storage"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	creatorRepo := repository.NewCreatorRepository(dbPool)
	jobRepo := repository.NewJobRepository(dbPool)
	postRepo := repository.NewPostRepository(dbPool)

	aiClient := openai.NewClient(openai.Config{
		APIKey:          cfg.OpenAI.APIKey,
		BaseURL:         cfg.OpenAI.BaseURL,
		VideoModel:      cfg.OpenAI.VideoModel,
		ChatModel:       cfg.OpenAI.ChatModel,
		VideoSize:       cfg.OpenAI.VideoSize,
		RequestTimeout:  cfg.OpenAI.RequestTimeout,
		PollInterval:    cfg.OpenAI.PollInterval,
		MaxPollAttempts: cfg.OpenAI.MaxPollAttempts,
	}, logger)

	guard, err := eligibility.NewGuard(jobRepo, cfg.Campaign.Timezone, cfg.Campaign.MaxVideosPerDay)
	if err != nil {
		logger.Fatal().Err(err).Msg("eligibility guard init failed")
	}

	pipeline := flow.NewPipeline(flow.PipelineParams{
		Creators:        creatorRepo,
		Jobs:            jobRepo,
		Guard:           guard,
		Validator:       moderation.NewValidator(moderation.NewLLMClassifier(aiClient), logger),
		Generator:       aiClient,
		Persister:       relocate.NewRelocator(aiClient, objectStore, logger),
		Composer:        caption.NewComposer(aiClient, logger),
		DefaultDuration: cfg.Campaign.DefaultDuration,
		Logger:          logger,
	})

	publisher := queue.NewPublisher(redisClient, cfg.Redis.Stream)

	bot, err := telegram.NewBot(telegram.BotParams{
		Token:    cfg.Telegram.BotToken,
		Timeout:  cfg.Telegram.PollTimeout,
		Pipeline: pipeline,
		Creators: creatorRepo,
		Jobs:     jobRepo,
		Posts:    postRepo,
		Refresh:  publisher,
		Campaign: cfg.Campaign,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram bot init failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, publisher, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(publisher, cfg.Campaign.MetricsInterval, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	go func() {
		if err := bot.Run(runCtx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram bot stopped")
		}
	}()

	waitForShutdown(runCtx, logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(ctx context.Context, logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("bot exited cleanly")
}
