package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/fixlane/api/internal/auth"
	"github.com/fixlane/api/internal/client"
	"github.com/fixlane/api/internal/config"
	"github.com/fixlane/api/internal/handler"
	"github.com/fixlane/api/internal/ledger"
	"github.com/fixlane/api/internal/middleware"
	"github.com/fixlane/api/internal/model"
	"github.com/fixlane/api/internal/service"
	"github.com/fixlane/api/internal/store"
	"github.com/fixlane/api/internal/worker"
	ws "github.com/fixlane/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	redisAvailable := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
		redisAvailable = false
	}

	// Initialize Asynq client
	var asynqClient *asynq.Client
	if redisAvailable {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Upstream job API client
	jobAPIClient := client.NewJobAPIClient(&cfg.JobAPI)
	if !jobAPIClient.IsConfigured() {
		log.Printf("Warning: upstream job API base URL not configured")
	}

	// Report archive (optional, S3-compatible)
	archiveClient, err := client.NewArchiveClient(&cfg.Archive)
	if err != nil {
		log.Printf("Warning: report archive not available: %v", err)
	}

	// Completed-jobs ledger
	var completedLedger ledger.Ledger
	if redisAvailable {
		completedLedger = ledger.NewRedisLedger(redisClient)
	} else {
		log.Printf("Warning: using in-memory completed-jobs ledger")
		completedLedger = ledger.NewMemoryLedger()
	}

	// Initialize services
	jobStore := store.New()
	jobService := service.NewJobService(jobStore, jobAPIClient, completedLedger, hub, asynqClient)

	// Warm the snapshot; a failed initial refresh is not fatal, the
	// first successful refresh fills it in.
	if jobAPIClient.IsConfigured() {
		if count, err := jobService.Refresh(ctx); err != nil {
			log.Printf("Warning: initial snapshot refresh failed: %v", err)
		} else {
			log.Printf("Loaded %d jobs into snapshot", count)
		}
	}

	// Token verification: OIDC JWKS when an issuer is configured, with
	// legacy HMAC fallback.
	var verifier auth.TokenVerifier
	if cfg.IdP.Issuer != "" {
		v, err := auth.NewJWKSVerifier(&cfg.IdP)
		if err != nil {
			log.Printf("Warning: JWKS verifier not available: %v", err)
		} else {
			verifier = v
			defer v.Close()
		}
	}

	// Initialize handlers
	jobHandler := handler.NewJobHandler(jobService, validate)
	progressHandler := handler.NewProgressHandler(jobService, validate)
	contractorHandler := handler.NewContractorHandler(jobService)
	authHandler := handler.NewAuthHandler(verifier, cfg.JWT.Secret)

	// Initialize middleware
	var authenticate fiber.Handler
	if cfg.Gateway.Enabled {
		authenticate = middleware.GatewayAuthMiddleware()
	} else {
		authenticate = middleware.NewAuthMiddlewareWithFallback(verifier, cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "fixlane-api", "timestamp": time.Now().Unix()})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"jobs":   jobStore.Len(),
			"services": fiber.Map{
				"jobapi":  jobAPIClient.IsConfigured(),
				"redis":   redisAvailable,
				"archive": archiveClient != nil && archiveClient.IsConfigured(),
				"auth":    verifier != nil || cfg.JWT.Secret != "",
			},
		})
	})

	// ForwardAuth endpoint for the gateway
	app.Get("/auth/verify", authHandler.Verify)

	// API routes
	api := app.Group("/api", authenticate)

	// Job routes
	jobs := api.Group("/jobs")
	jobs.Post("/", rateLimiter.CreateLimit(cfg.RateLimit.CreatePerHour), middleware.RequireRole(model.RoleCustomer), jobHandler.Create)
	jobs.Get("/", jobHandler.List)
	jobs.Post("/refresh", rateLimiter.RefreshLimit(cfg.RateLimit.RefreshPerMin), jobHandler.Refresh)
	jobs.Get("/:jobId", jobHandler.Get)
	jobs.Put("/:jobId", jobHandler.Update)

	// Contractor workflow routes
	jobs.Post("/:jobId/assign", rateLimiter.AssignLimit(cfg.RateLimit.AssignPerHour), middleware.RequireRole(model.RoleContractor), progressHandler.Assign)
	jobs.Post("/:jobId/acknowledge", rateLimiter.ProgressLimit(cfg.RateLimit.ProgressPerMin), middleware.RequireRole(model.RoleContractor), progressHandler.Acknowledge)
	jobs.Post("/:jobId/advance", rateLimiter.ProgressLimit(cfg.RateLimit.ProgressPerMin), middleware.RequireRole(model.RoleContractor), progressHandler.Advance)
	jobs.Post("/:jobId/complete", rateLimiter.ProgressLimit(cfg.RateLimit.ProgressPerMin), middleware.RequireRole(model.RoleContractor), progressHandler.Complete)

	// Contractor routes
	contractors := api.Group("/contractors")
	contractors.Get("/:contractorId/completed", contractorHandler.Completed)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	if redisAvailable {
		go startWorkerServer(cfg, archiveClient)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, archiveClient *client.ArchiveClient) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"jobs": 10,
			},
		},
	)

	var archiver client.ReportArchiver
	if archiveClient != nil && archiveClient.IsConfigured() {
		archiver = archiveClient
	}
	completionWorker := worker.NewCompletionWorker(archiver)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeJobCompleted, completionWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
