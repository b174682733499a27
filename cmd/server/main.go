package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flatmate/internal/config"
	"flatmate/internal/handler"
	"flatmate/internal/logger"
	"flatmate/internal/repository"
	"flatmate/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.Setup(cfg.Logging)
	log.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("FlatMate AI starting")

	gin.SetMode(cfg.Server.GinMode)

	store, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	defer store.Close()

	openaiClient := service.NewOpenAIClient(&cfg.OpenAI)
	if openaiClient.IsEnabled() {
		log.WithFields(logrus.Fields{
			"api_base":    cfg.OpenAI.APIBase,
			"chat_model":  cfg.OpenAI.ChatModel,
			"temperature": cfg.OpenAI.ChatTemperature,
			"max_tokens":  cfg.OpenAI.ChatMaxTokens,
		}).Info("OpenAI client initialized")
	} else {
		log.Warn("OpenAI is disabled, chat replies use offline fallbacks. Set OPENAI_API_KEY to enable AI features")
	}
	var llm service.LLMClient = openaiClient

	listingService := service.NewListingService(store, cfg.OpenAI.EmbeddingDimensions)
	chatService := service.NewChatService(
		store,
		store,
		service.NewIntentClassifier(cfg.Intent.Keywords),
		service.NewParameterExtractor(llm, time.Duration(cfg.Chat.ExtractCacheTTL)*time.Second, log),
		service.NewRanker(cfg.Ranking.WeightPrice, cfg.Ranking.WeightRecency),
		llm,
		cfg.Chat.MaxReplyListings,
		log,
	)
	appointmentService := service.NewAppointmentService(store, store, cfg.Appointments.MaxActive)
	leaseService := service.NewLeaseService(llm, log)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = cfg.Server.AllowedMethods
	corsConfig.AllowHeaders = cfg.Server.AllowedHeaders
	corsConfig.ExposeHeaders = []string{"X-Request-Id"}

	router := handler.NewRouter(handler.Handlers{
		Listings:     handler.NewListingHandler(listingService, log),
		Embeddings:   handler.NewEmbeddingHandler(listingService, log),
		Chat:         handler.NewChatHandler(chatService, log),
		Appointments: handler.NewAppointmentHandler(appointmentService, log),
		Lease:        handler.NewLeaseHandler(leaseService, log),
	}, handler.RouterConfig{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		CORS:      corsConfig,
		Build:     handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
	}, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shut down")
	}
	log.Info("Server stopped")
}

// openStore returns the storage backend selected by STORAGE_DRIVER
func openStore(cfg *config.Config, log logrus.FieldLogger) (repository.Store, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryRepository(), nil
	}

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}

	if cfg.PostgreSQL.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		log.Info("Database schema applied")
	}

	log.Info("Connected to PostgreSQL database")
	return repo, nil
}
