package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/api/handlers"
	"github.com/policy-whisperer/backend/internal/cache/redis"
	"github.com/policy-whisperer/backend/internal/chat"
	"github.com/policy-whisperer/backend/internal/content"
	"github.com/policy-whisperer/backend/internal/impact"
	"github.com/policy-whisperer/backend/internal/ingestion"
	"github.com/policy-whisperer/backend/internal/llm"
	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/internal/middleware/ratelimit"
	"github.com/policy-whisperer/backend/internal/middleware/security"
	"github.com/policy-whisperer/backend/internal/middleware/validation"
	"github.com/policy-whisperer/backend/internal/storage/sqlite"
	"github.com/policy-whisperer/backend/internal/summary"
	"github.com/policy-whisperer/backend/pkg/config"
	appLogger "github.com/policy-whisperer/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Policy Whisperer API Server")

	metrics.Init()

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	err = store.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	acquirer := content.NewAcquirer(cfg.Content.FetchTimeoutSec, cfg.Content.MaxDocumentSize)

	// The cache is advisory: an unreachable redis downgrades to live fetches.
	if cfg.Redis.Enabled {
		cache, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without URL cache", zap.Error(err))
		} else {
			defer cache.Close()
			acquirer.WithCache(cache, time.Duration(cfg.Content.CacheTTLMin)*time.Minute)
		}
	}

	summaryService := summary.NewService(llmClient)
	processor := ingestion.NewProcessor(store, summaryService)
	impactService := impact.NewService(store, llmClient)
	chatService := chat.NewService(store, llmClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxDocumentSize: cfg.Content.MaxDocumentSize,
		Logger:          appLogger.GetLogger(),
	}))

	documentHandler := handlers.NewDocumentHandler(processor, acquirer, store)
	contentHandler := handlers.NewContentHandler(acquirer)
	chatHandler := handlers.NewChatHandler(chatService)
	impactHandler := handlers.NewImpactHandler(impactService)
	legislationHandler := handlers.NewLegislationHandler(store)
	mapHandler := handlers.NewMapHandler(cfg.Map.PublicToken)
	wsHandler := handlers.NewWebSocketHandler(chatService)

	app.Post("/process-policy-document", documentHandler.ProcessDocument)
	app.Post("/generate-ai-response", chatHandler.GenerateResponse)
	app.Post("/analyze-legislation-impact", impactHandler.AnalyzeImpact)
	app.Post("/fetch-url-content", contentHandler.FetchURLContent)
	app.Get("/fetch-mapbox-token", mapHandler.FetchToken)

	app.Get("/policy-documents/:id", documentHandler.GetDocument)
	app.Get("/conversations/:id/messages", documentHandler.GetConversationMessages)
	app.Post("/legislation", legislationHandler.CreateLegislation)
	app.Get("/legislation", legislationHandler.ListLegislation)
	app.Get("/legislation/:id", legislationHandler.GetLegislation)
	app.Get("/legislation/:id/impacts", legislationHandler.GetImpacts)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
