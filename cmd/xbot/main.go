package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/haivcontw-hash/xbot-sub000/internal/access"
	"github.com/haivcontw-hash/xbot-sub000/internal/captcha"
	"github.com/haivcontw-hash/xbot-sub000/internal/config"
	"github.com/haivcontw-hash/xbot-sub000/internal/dedup"
	"github.com/haivcontw-hash/xbot-sub000/internal/exchange"
	"github.com/haivcontw-hash/xbot-sub000/internal/logger"
	"github.com/haivcontw-hash/xbot-sub000/internal/scheduler"
	"github.com/haivcontw-hash/xbot-sub000/internal/storage"
	"github.com/haivcontw-hash/xbot-sub000/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	feed := exchange.NewClient(
		cfg.Exchange.BaseURL,
		cfg.Exchange.Timeout,
		cfg.Exchange.MaxRetries,
		cfg.Exchange.RetryDelayBase,
	)

	if !cfg.Telegram.Enabled {
		logger.Fatal("Telegram is the only supported chat platform; set telegram.enabled")
	}
	tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram client: %v", err)
	}
	logger.Info("Telegram client initialized successfully")

	control := access.New(tg, store, cfg.Cache.AdminTTL, cfg.Cache.SettingsTTL)
	register := captcha.NewRegister(cfg.Captcha.TTL, tg, tg)
	defer register.Stop()

	windows := dedup.New(cfg.Whale.DedupCapacity)
	priceAlerts := scheduler.NewPriceAlerts(store, feed, tg, cfg.Exchange.Timeout)
	whaleWatch := scheduler.NewWhaleWatch(store, feed, tg, windows, cfg.Whale.TradeLimit, cfg.Exchange.Timeout)
	predictions := scheduler.NewPredictions(store, feed, tg, control, cfg.Prediction.RoundWindow, cfg.Exchange.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	tg.Listen(ctx, telegram.Hooks{
		OnJoin: func(chatID, userID int64, name string) {
			settings, err := control.Settings(chatID)
			if err != nil {
				logger.Error("Failed to load settings for chat %d: %v", chatID, err)
				return
			}
			if !settings.CaptchaEnabled {
				return
			}
			token := register.Challenge(chatID, userID, name)
			if err := tg.SendVerifyPrompt(chatID, name, token); err != nil {
				logger.Error("Failed to send verify prompt to chat %d: %v", chatID, err)
			}
		},
		OnVerify: func(token string, userID int64) string {
			switch register.Verify(token, userID) {
			case captcha.VerifyOK:
				return "Verified, welcome!"
			case captcha.VerifyWrongUser:
				return "This check is not for you."
			default:
				return "This challenge has expired."
			}
		},
	})

	logger.Info("Starting schedulers (alerts: %v, whale: %v, prediction: %v)",
		cfg.Alerts.Interval, cfg.Whale.Interval, cfg.Prediction.Interval)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx, "price-alert", cfg.Alerts.Interval, priceAlerts.Tick)
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(ctx, "whale-watch", cfg.Whale.Interval, whaleWatch.Tick)
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(ctx, "prediction", cfg.Prediction.Interval, predictions.Tick)
	}()

	wg.Wait()
	logger.Info("Service stopped")
}
