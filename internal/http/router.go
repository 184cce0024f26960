package http

import (
	"time"

	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/http/handlers"
	"github.com/cpgram/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	channelHandler *handlers.ChannelHandler,
	requestHandler *handlers.RequestHandler,
	campaignHandler *handlers.CampaignHandler,
	taskHandler *handlers.TaskHandler,
	purchaseHandler *handlers.PurchaseHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/telegram", authHandler.TelegramAuth)

	// Payment provider callback (public, payload is the purchase id)
	api.Post("/telegram/webhook", purchaseHandler.PaymentWebhook)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)
	protected.Put("/me/language", userHandler.UpdateLanguage)
	protected.Get("/me/balance", userHandler.GetBalance)
	protected.Get("/me/transactions", userHandler.GetHistory)

	// Channels
	protected.Post("/channels/validate", channelHandler.Validate)
	protected.Post("/channels", channelHandler.Create)
	protected.Get("/channels/my", channelHandler.MyChannels)
	protected.Get("/channels/:id", channelHandler.Get)
	protected.Put("/channels/:id", channelHandler.UpdatePolicy)
	protected.Put("/channels/:id/pause", channelHandler.Pause)
	protected.Get("/channels/:id/promos", channelHandler.ListPromos)
	protected.Post("/channels/:id/promos", channelHandler.AddPromo)
	protected.Delete("/channels/:id/promos/:promoId", channelHandler.DeletePromo)

	// Partner directory
	protected.Get("/partners", channelHandler.Explore)

	// Cross-promotion requests
	protected.Post("/requests", requestHandler.Create)
	protected.Get("/requests", requestHandler.List)
	protected.Post("/requests/:id/accept", requestHandler.Accept)
	protected.Post("/requests/:id/decline", requestHandler.Decline)

	// Campaigns
	protected.Get("/campaigns", campaignHandler.List)
	protected.Get("/campaigns/:id", campaignHandler.Get)
	protected.Post("/campaigns/:id/verify-start", campaignHandler.VerifyStart)
	protected.Post("/campaigns/:id/complete", campaignHandler.Complete)

	// Earning tasks
	protected.Get("/tasks", taskHandler.ListClaimed)
	protected.Post("/tasks/claim-welcome", taskHandler.ClaimWelcome)
	protected.Post("/tasks/verify-channel-join", taskHandler.VerifyChannelJoin)
	protected.Post("/tasks/claim-ad-reward", taskHandler.ClaimAdReward)
	protected.Get("/tasks/invite", taskHandler.InviteStatus)
	protected.Post("/tasks/invite/initiate", taskHandler.InviteInitiate)
	protected.Post("/tasks/invite/verify-start", taskHandler.InviteVerifyStart)
	protected.Post("/tasks/invite/complete", taskHandler.InviteComplete)

	// Purchases
	protected.Get("/purchase/rates", purchaseHandler.Rates)
	protected.Post("/purchase/stars", purchaseHandler.Create)
	protected.Get("/purchase/history", purchaseHandler.List)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware(cfg))
	admin.Get("/channels", adminHandler.Channels)
	admin.Post("/channels/:id/moderate", adminHandler.ModerateChannel)
	admin.Post("/tasks/invite/reset", adminHandler.ResetInvite)
	admin.Get("/stats", adminHandler.Stats)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
