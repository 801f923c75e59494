package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"svomo/internal/config"
	apihttp "svomo/internal/http"
	"svomo/internal/llm"
	"svomo/internal/repository"
	"svomo/internal/service"
	"svomo/internal/tmdb"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	llmClient, err := llm.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("llm client", zap.Error(err))
	}

	var catalog service.MetadataCatalog
	if cfg.TMDBAPIToken != "" {
		tmdbClient := tmdb.NewClient(tmdb.Options{
			BaseURL:           cfg.TMDBBaseURL,
			Token:             cfg.TMDBAPIToken,
			Language:          cfg.TMDBLanguage,
			Timeout:           cfg.TMDBTimeout(),
			RequestsPerSecond: cfg.TMDBRequestsPerSecond,
		}, logger)
		catalog = tmdb.NewBreakerClient(tmdbClient, logger)
	} else {
		logger.Warn("tmdb token not configured, recommendations will not be enriched")
	}

	questionSvc := service.NewQuestionService(llmClient, logger)
	recommendationSvc := service.NewRecommendationService(llmClient, catalog, logger)
	wizardSvc := service.NewWizardService(questionSvc, recommendationSvc, logger)

	var store repository.WizardSessionStore = repository.NewMemoryWizardSessionStore(cfg.SessionTTL())
	startLimiter := service.NewMemoryStartLimiter(time.Minute, cfg.WizardStartsPerMin)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			store = repository.NewRedisWizardSessionStore(redisClient, cfg.SessionTTL())
			startLimiter = service.NewRedisStartLimiter(redisClient, time.Minute, cfg.WizardStartsPerMin)
		}
		cancel()
	}

	secret := cfg.SessionTokenSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("session token secret not configured, using an ephemeral one")
	}
	tokenSvc := service.NewSessionTokenService(secret, cfg.SessionTTL())

	wizardHandler := apihttp.NewWizardHandler(wizardSvc, store, tokenSvc, startLimiter, logger)
	router := apihttp.NewRouter(logger, wizardHandler, tokenSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
