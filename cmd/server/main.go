// Package main is the entry point for the Haven Agent Service.
// @title Haven Agent Service API
// @version 1.0
// @description Message pipeline for a conversational mental-health support agent: moderation, crisis detection, context assembly, generation, and persistence.

// @contact.name API Support
// @contact.url https://github.com/havenmind/agent-service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https
package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/havenmind/agent-service/docs"
	"github.com/havenmind/agent-service/internal/api/handlers"
	"github.com/havenmind/agent-service/internal/api/middleware"
	"github.com/havenmind/agent-service/internal/api/routes"
	"github.com/havenmind/agent-service/internal/config"
	"github.com/havenmind/agent-service/internal/core/cache"
	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/core/vectorstore"
	rediscache "github.com/havenmind/agent-service/internal/infrastructure/cache/redis"
	"github.com/havenmind/agent-service/internal/infrastructure/store/mongodb"
	"github.com/havenmind/agent-service/internal/infrastructure/vectorstore/weaviate"
	"github.com/havenmind/agent-service/internal/pkg/encryption"
	"github.com/havenmind/agent-service/internal/services/contextbuilder"
	"github.com/havenmind/agent-service/internal/services/embeddings"
	"github.com/havenmind/agent-service/internal/services/moderation"
	"github.com/havenmind/agent-service/internal/services/pipeline"
	"github.com/havenmind/agent-service/internal/services/providers"
	"github.com/havenmind/agent-service/internal/services/safety"
	"github.com/havenmind/agent-service/internal/services/sanitize"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("failed to load configuration: %v", err)
	}

	setupLogger(cfg.Log)

	ctx := context.Background()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize document store client using factory pattern
	storeClient, err := createStoreClient(ctx, cfg.DocDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store client")
	}
	defer storeClient.Close(ctx)

	// Ensure database indexes
	if err := storeClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Initialize vector store client using factory pattern
	vectorClient, err := createVectorClient(cfg.VectorStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vector store client")
	}
	defer vectorClient.Close()

	// Initialize provider clients
	providerFactory := providers.NewFactory()
	completionClient, err := providerFactory.CreateCompletionClient(cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize completion client")
	}
	defer completionClient.Close()

	classifier, err := providers.NewModerationClassifier(cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize moderation classifier")
	}

	embedder, err := providers.NewEmbeddingClient(cfg.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize embedding client")
	}

	// Assemble the pipeline
	assembler := contextbuilder.NewAssembler(
		storeClient.Conversations(),
		storeClient.Messages(),
		vectorClient,
		embedder,
		cacheClient,
		cfg.Pipeline.ContextCacheTTL,
	)

	indexer := embeddings.NewIndexer(embedder, vectorClient, storeClient.Messages(), cfg.Pipeline.IndexQueueSize)
	indexer.Start(cfg.Pipeline.IndexWorkers)
	defer indexer.Stop()

	refresher := pipeline.NewProfileRefresher(
		completionClient,
		storeClient.Profiles(),
		storeClient.Messages(),
		cacheClient,
		cfg.Pipeline.ProfileRefreshEvery,
		cfg.Pipeline.ProfileMinInterval,
	)
	refresher.Start()
	defer refresher.Stop()

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Sanitizer: sanitize.NewSanitizer(cfg.Pipeline.MaxMessageLength),
		Moderator: moderation.NewModerator(classifier, moderation.Config{
			Thresholds: cfg.Moderation.Thresholds,
			StrictMode: cfg.Moderation.StrictMode,
		}),
		Detector:      safety.NewDetector(cfg.Pipeline.Region),
		Assembler:     assembler,
		Generator:     pipeline.NewGenerator(completionClient),
		Titles:        pipeline.NewTitleGenerator(completionClient, storeClient.Conversations()),
		Indexer:       indexer,
		Refresher:     refresher,
		Conversations: storeClient.Conversations(),
		Messages:      storeClient.Messages(),
		TokenBudget:   cfg.Pipeline.ContextTokenBudget,
	})

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	router := setupRouter(orchestrator, cacheClient, storeClient, vectorClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	switch cache.Type(cfg.Type) {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
		})
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported cache type")
		return nil, nil
	}
}

// createStoreClient creates a document store client based on the configuration.
func createStoreClient(ctx context.Context, cfg config.DocDBConfig) (store.Client, error) {
	encryptor, err := createEncryptor(cfg)
	if err != nil {
		return nil, err
	}

	switch store.Type(cfg.Type) {
	case store.TypeMongoDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
			Encryptor:    encryptor,
		})
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported store type")
		return nil, nil
	}
}

// createVectorClient creates a vector store client based on the configuration.
func createVectorClient(cfg config.VectorStoreConfig) (vectorstore.Client, error) {
	switch vectorstore.Type(cfg.Type) {
	case vectorstore.TypeWeaviate:
		return weaviate.NewClient(weaviate.Config{
			URL:    cfg.URL,
			APIKey: cfg.APIKey,
			Class:  cfg.Class,
		})
	default:
		log.Fatal().Str("type", cfg.Type).Msg("unsupported vector store type")
		return nil, nil
	}
}

// createEncryptor creates the message-content encryptor.
func createEncryptor(cfg config.DocDBConfig) (encryption.Encryptor, error) {
	if cfg.EncryptionKey == "" {
		log.Warn().Msg("MESSAGE_ENCRYPTION_KEY not set, storing message content unencrypted")
		return encryption.NewNoOpEncryptor(), nil
	}
	return encryption.NewAESEncryptor(cfg.EncryptionKey)
}

// setupRouter creates and configures the Gin router.
func setupRouter(orchestrator *pipeline.Orchestrator, cacheClient cache.Client, storeClient store.Client, vectorClient vectorstore.Client) *gin.Engine {
	router := gin.New()

	loggingMw := middleware.NewLoggingMiddleware()
	errorMw := middleware.NewErrorMiddleware()

	routesCfg := &routes.Config{
		HealthHandler:   handlers.NewHealthHandler(cacheClient, storeClient, vectorClient),
		MessagesHandler: handlers.NewMessagesHandler(orchestrator),
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw)

	return router
}
