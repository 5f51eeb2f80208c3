package bot

import (
	"context"
	"fmt"
	"time"

	"jober/internal/bot/handlers"
	"jober/internal/bot/middleware"
	"jober/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Store is what the bot needs from postgres
type Store interface {
	handlers.Store
}

// Cache is what the bot needs from redis
type Cache interface {
	handlers.LinkCodes
	middleware.RateLimiter
	ChangeFeed
}

// Bot represents Telegram bot
type Bot struct {
	bot          *tele.Bot
	store        Store
	cache        Cache
	dashboardURL string
	logger       *zap.Logger
}

func New(token string, store Store, cache Cache, dashboardURL string, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:          b,
		store:        store,
		cache:        cache,
		dashboardURL: dashboardURL,
		logger:       logger.Named("telegram"),
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	bot.logger.Info("bot initialized successfully", zap.String("username", b.Me.Username))

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	b.bot.Use(middleware.RateLimit(b.cache, b.logger))
}

func (b *Bot) registerHandlers() {
	ctx := &handlers.Context{
		Store:        b.store,
		Cache:        b.cache,
		DashboardURL: b.dashboardURL,
		Logger:       b.logger,
	}

	b.bot.Handle("/start", handlers.HandleStart(ctx))
	b.bot.Handle("/help", handlers.HandleHelp(ctx))
	b.bot.Handle("/applications", handlers.HandleApplications(ctx))

	b.bot.Handle(&utils.BtnApplications, handlers.HandleApplications(ctx))
	b.bot.Handle(&utils.BtnHelp, handlers.HandleHelp(ctx))

	b.logger.Info("handlers registered")
}

// Start polls Telegram and runs the status notifier until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting bot...")

	go b.bot.Start()

	notifier := NewNotifier(b.bot, b.cache, b.store, b.dashboardURL, b.logger)
	notifierDone := make(chan error, 1)
	go func() {
		err := notifier.Run(ctx)
		if err != nil {
			b.logger.Error("status notifier failed", zap.Error(err))
		}
		notifierDone <- err
	}()

	<-ctx.Done()

	b.logger.Info("stopping bot...")
	b.bot.Stop()

	return <-notifierDone
}
