package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/cpgram/backend/internal/config"
	"github.com/cpgram/backend/internal/queue"
	"github.com/cpgram/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telegram, err := services.NewTelegramClient(cfg.BotToken, log)
	if err != nil {
		log.Fatal("failed to init telegram client", zap.Error(err))
	}

	conn, deliveries, err := queue.Consume(cfg.AmqpURL)
	if err != nil {
		log.Fatal("failed to connect to amqp", zap.Error(err))
	}
	defer conn.Close()

	log.Info("notifier started")

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down notifier")
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}

			var n queue.Notification
			if err := json.Unmarshal(d.Body, &n); err != nil {
				log.Error("malformed notification, dropping", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			if err := telegram.SendMessage(ctx, n.TelegramUserID, n.Text); err != nil {
				// One redelivery, then drop. Notifications are best effort.
				requeue := !d.Redelivered
				log.Warn("notification delivery failed",
					zap.Int64("telegram_user_id", n.TelegramUserID),
					zap.Bool("requeue", requeue),
					zap.Error(err),
				)
				_ = d.Nack(false, requeue)
				continue
			}

			_ = d.Ack(false)
		}
	}
}
