package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/db"
	"github.com/cpgram/backend/internal/events"
	"github.com/cpgram/backend/internal/queue"
	"github.com/cpgram/backend/internal/repositories"
	"github.com/cpgram/backend/internal/services"
	"github.com/cpgram/backend/internal/tmeparser"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	userRepo := repositories.NewUserRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	channelRepo := repositories.NewChannelRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	publisher := events.NewRedisPublisher(rdb, log)

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

	parser := tmeparser.NewParser(cfg.TMEFetchTimeoutMS, cfg.TMEFetchMaxRetries, log)
	campaignService := services.NewCampaignService(pool, campaignRepo, channelRepo, ledgerRepo, userRepo, auditRepo, parser, publisher, notifier, cfg, log)
	channelService := services.NewChannelService(channelRepo, userRepo, auditRepo, parser, nil, publisher, notifier, cfg, log)

	log.Info("worker started")

	// Health endpoint for the orchestrator
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		addr := fmt.Sprintf(":%s", cfg.WorkerPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("health server error", zap.Error(err))
		}
	}()

	expiryTicker := time.NewTicker(cfg.ExpirySweepInterval)
	statsTicker := time.NewTicker(cfg.StatsRefreshInterval)
	defer expiryTicker.Stop()
	defer statsTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expiryTicker.C:
			if n := campaignService.ExpireDue(ctx); n > 0 {
				log.Info("expired overdue campaigns", zap.Int("count", n))
			}
		case <-statsTicker.C:
			runStatsRefresh(ctx, channelRepo, channelService, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runStatsRefresh(ctx context.Context, channelRepo *repositories.ChannelRepo, channelService *services.ChannelService, cfg *config.Config, log *zap.Logger) {
	staleBefore := time.Now().Add(-cfg.StatsRefreshInterval)
	channels, err := channelRepo.ListApprovedForRefresh(ctx, staleBefore, 50)
	if err != nil {
		log.Error("failed to list channels for stats refresh", zap.Error(err))
		return
	}

	for i := range channels {
		channelService.RefreshStats(ctx, &channels[i])
	}
}
