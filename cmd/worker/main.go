package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/cache"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/config"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/database"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/log"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/metrics"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/queue"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/repository"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/social"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/tasks"
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
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	refresher := metrics.NewRefresher(
		repository.NewPostRepository(dbPool),
		repository.NewCreatorRepository(dbPool),
		social.NewHTTPScraper(30*time.Second, logger),
		logger,
	)

	processor := tasks.NewProcessor(refresher, logger)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		time.Minute,
		logger,
		processor,
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := consumer.Start(runCtx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-runCtx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
	logger.Info().Msg("worker exited cleanly")
}
