package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/db"
	"github.com/cpgram/backend/internal/events"
	apphttp "github.com/cpgram/backend/internal/http"
	"github.com/cpgram/backend/internal/http/handlers"
	"github.com/cpgram/backend/internal/queue"
	"github.com/cpgram/backend/internal/repositories"
	"github.com/cpgram/backend/internal/services"
	"github.com/cpgram/backend/internal/tmeparser"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	channelRepo := repositories.NewChannelRepo(pool)
	requestRepo := repositories.NewRequestRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	taskRepo := repositories.NewTaskRepo(pool)
	purchaseRepo := repositories.NewPurchaseRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	statsRepo := repositories.NewStatsRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Notification queue. The API keeps serving if the broker is down.
	var notifier queue.Publisher
	if cfg.AmqpURL != "" {
		amqpPub, err := queue.NewAmqpPublisher(cfg.AmqpURL, log)
		if err != nil {
			log.Warn("amqp unavailable, notifications disabled", zap.Error(err))
		} else {
			notifier = amqpPub
			defer amqpPub.Close()
		}
	}

	// Telegram
	telegram, err := services.NewTelegramClient(cfg.BotToken, log)
	if err != nil {
		log.Fatal("failed to init telegram client", zap.Error(err))
	}

	parser := tmeparser.NewParser(cfg.TMEFetchTimeoutMS, cfg.TMEFetchMaxRetries, log)

	// Services
	ledgerService := services.NewLedgerService(ledgerRepo, log)
	channelService := services.NewChannelService(channelRepo, userRepo, auditRepo, parser, telegram, publisher, notifier, cfg, log)
	requestService := services.NewRequestService(pool, requestRepo, campaignRepo, channelRepo, ledgerRepo, userRepo, auditRepo, publisher, notifier, cfg, log)
	campaignService := services.NewCampaignService(pool, campaignRepo, channelRepo, ledgerRepo, userRepo, auditRepo, parser, publisher, notifier, cfg, log)
	taskService := services.NewTaskService(pool, taskRepo, ledgerRepo, channelRepo, userRepo, telegram, parser, publisher, rdb, cfg, log)
	purchaseService := services.NewPurchaseService(pool, purchaseRepo, ledgerRepo, telegram, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, channelRepo, ledgerService, log)
	channelHandler := handlers.NewChannelHandler(channelService, log)
	requestHandler := handlers.NewRequestHandler(requestService, log)
	campaignHandler := handlers.NewCampaignHandler(campaignService, log)
	taskHandler := handlers.NewTaskHandler(taskService, log)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, cfg, log)
	adminHandler := handlers.NewAdminHandler(channelService, taskService, statsRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, channelHandler, requestHandler, campaignHandler, taskHandler, purchaseHandler, adminHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
