package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/anthonysurfermx/eth-creators-hackathon/internal/config"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/middleware"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/queue"
	"github.com/anthonysurfermx/eth-creators-hackathon/internal/repository"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       *pgxpool.Pool
	cache    *redis.Client
	creators *repository.CreatorRepository
	jobs     *repository.JobRepository
	posts    *repository.PostRepository
	queue    *queue.Publisher
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, publisher *queue.Publisher, cfg *config.AppConfig) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		db:       db,
		cache:    cache,
		creators: repository.NewCreatorRepository(db),
		jobs:     repository.NewJobRepository(db),
		posts:    repository.NewPostRepository(db),
		queue:    publisher,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		v1.GET("/videos", h.ListVideos)
		v1.GET("/stats", h.Stats)
		v1.GET("/leaderboard", h.Leaderboard)

		admin := v1.Group("/admin")
		admin.Use(middleware.Signature(h.cfg.Security.AdminSignatureSecret, h.cache))
		admin.POST("/refresh-metrics", h.AdminRefreshMetrics)
	}
}
