package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"jober/internal/api"
	"jober/internal/bot"
	"jober/internal/config"
	"jober/internal/jobboard"
	"jober/internal/logger"
	"jober/internal/scheduler"
	"jober/internal/session"
	"jober/internal/storage/objects"
	"jober/internal/storage/postgres"
	"jober/internal/storage/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("starting jober",
		zap.String("log_level", cfg.LogLevel),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("telegram", cfg.TelegramEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	log.Info("PostgreSQL connected successfully")

	log.Info("connecting to Redis...")
	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close()

	log.Info("Redis connected successfully")

	resumes, err := objects.New(ctx, objects.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
		URLTTL:    cfg.ResumeURLTTL,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to object storage", zap.Error(err))
	}

	log.Info("object storage ready", zap.String("bucket", cfg.S3Bucket))

	board := jobboard.NewService(store, cache, cache, resumes, log)
	sessions := session.NewManager(store, cache, cfg.SessionTTL, log)

	server := api.NewServer(board, sessions, cache, api.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
		SecureCookies:      strings.HasPrefix(cfg.PublicURL, "https://"),
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.NewExpirer(store, cfg.ExpireInterval, log).Start(ctx)
	}()

	if cfg.TelegramEnabled() {
		log.Info("initializing Telegram bot...")
		tgBot, err := bot.New(cfg.TelegramToken, store, cache, cfg.DashboardURL(), log)
		if err != nil {
			log.Fatal("failed to create bot", zap.Error(err))
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tgBot.Start(ctx); err != nil {
				log.Error("bot stopped with error", zap.Error(err))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-serverErr:
		log.Error("http server failed", zap.Error(err))
		stop()
	}

	log.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}

	wg.Wait()

	log.Info("jober stopped")
}
