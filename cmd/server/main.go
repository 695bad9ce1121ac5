package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/adapters/event"
	httpAdapter "github.com/khoahotran/mediahub/adapters/http"
	"github.com/khoahotran/mediahub/adapters/media_storage"
	"github.com/khoahotran/mediahub/adapters/persistence"
	authUC "github.com/khoahotran/mediahub/internal/application/usecase/auth"
	commentUC "github.com/khoahotran/mediahub/internal/application/usecase/comment"
	mediaUC "github.com/khoahotran/mediahub/internal/application/usecase/media"
	ratingUC "github.com/khoahotran/mediahub/internal/application/usecase/rating"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/auth"
	"github.com/khoahotran/mediahub/pkg/logger"
	"github.com/khoahotran/mediahub/pkg/tracing"
)

func main() {
	fmt.Println("Start mediahub API Server...")

	// Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "mediahub-api")
	if err != nil {
		appLogger.Fatal("Cannot init tracer", err)
	}
	defer tp.Shutdown(context.Background())

	// Databases
	mongoDB, err := persistence.NewMongoDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect MongoDB", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	if err := persistence.EnsureMediaIndexes(ctx, mongoDB, cfg.Mongo.Collection); err != nil {
		appLogger.Fatal("Cannot create media indexes", err)
	}

	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Redis", err)
	}
	defer redisClient.Close()

	kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka", err)
	}
	defer kafkaClient.Close()

	// Repositories
	mediaRepo := persistence.NewMongoMediaRepo(mongoDB, cfg.Mongo.Collection, appLogger)
	userRepo := persistence.NewCachedUserRepo(
		persistence.NewPostgresUserRepo(dbPool, appLogger),
		redisClient,
		cfg.Redis.UserCacheTTL,
		appLogger,
	)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	storage, err := media_storage.NewObjectStorage(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", err)
	}
	appLogger.Info("Object storage ready", zap.String("provider", storage.Provider()))

	// Use Cases
	registerUseCase := authUC.NewRegisterUseCase(userRepo, jwtSvc, appLogger)
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)

	uploadMediaUseCase := mediaUC.NewUploadMediaUseCase(mediaRepo, storage, kafkaClient, cfg.MaxUploadBytes(), appLogger)
	getMediaUseCase := mediaUC.NewGetMediaUseCase(mediaRepo, userRepo)
	listMediaUseCase := mediaUC.NewListMediaUseCase(mediaRepo, userRepo)
	searchMediaUseCase := mediaUC.NewSearchMediaUseCase(mediaRepo, userRepo)
	deleteMediaUseCase := mediaUC.NewDeleteMediaUseCase(mediaRepo, storage, kafkaClient, appLogger)
	feedMediaUseCase := mediaUC.NewFeedMediaUseCase(mediaRepo, userRepo, cfg.App.PublicURL, appLogger)

	addCommentUseCase := commentUC.NewAddCommentUseCase(mediaRepo, userRepo, kafkaClient, appLogger)
	listCommentsUseCase := commentUC.NewListCommentsUseCase(mediaRepo, userRepo)
	deleteCommentUseCase := commentUC.NewDeleteCommentUseCase(mediaRepo, appLogger)

	upsertRatingUseCase := ratingUC.NewUpsertRatingUseCase(mediaRepo, kafkaClient, appLogger)
	listRatingsUseCase := ratingUC.NewListRatingsUseCase(mediaRepo, userRepo)
	deleteRatingUseCase := ratingUC.NewDeleteRatingUseCase(mediaRepo, kafkaClient, appLogger)

	// HTTP Handlers
	handlers := httpAdapter.Handlers{
		Auth: httpAdapter.NewAuthHandler(registerUseCase, loginUseCase, appLogger),
		Media: httpAdapter.NewMediaHandler(
			uploadMediaUseCase,
			getMediaUseCase,
			listMediaUseCase,
			searchMediaUseCase,
			deleteMediaUseCase,
			cfg.MaxUploadBytes(),
			appLogger,
		),
		Comment: httpAdapter.NewCommentHandler(addCommentUseCase, listCommentsUseCase, deleteCommentUseCase),
		Rating:  httpAdapter.NewRatingHandler(upsertRatingUseCase, listRatingsUseCase, deleteRatingUseCase),
		RSS:     httpAdapter.NewRSSHandler(feedMediaUseCase, appLogger),
	}

	limiter := httpAdapter.NewRateLimiter(
		httpAdapter.NewRedisHitCounter(redisClient),
		"mediahub:ratelimit",
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		appLogger,
	)

	router := httpAdapter.NewRouter(handlers, jwtSvc, limiter, appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
