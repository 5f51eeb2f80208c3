package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"jober/internal/bot/utils"
	"jober/internal/storage/redis"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const storageTimeout = 10 * time.Second

// /start [code]
func HandleStart(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		chatID := c.Chat().ID
		code := strings.TrimSpace(c.Message().Payload)

		ctx.Logger.Info("user started bot",
			zap.Int64("chat_id", chatID),
			zap.String("username", c.Sender().Username),
			zap.Bool("with_code", code != ""),
		)

		if code == "" {
			return c.Send(
				utils.FormatWelcomeMessage(c.Sender().FirstName),
				utils.MainMenuKeyboard(),
				tele.ModeMarkdownV2,
			)
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		return c.Send(LinkChat(dbCtx, ctx, code, chatID), utils.MainMenuKeyboard(), tele.ModeMarkdownV2)
	}
}

// LinkChat redeems a dashboard link code for chatID and returns the reply text
func LinkChat(dbCtx context.Context, ctx *Context, code string, chatID int64) string {
	userID, err := ctx.Cache.ConsumeTelegramLinkCode(dbCtx, code)
	if errors.Is(err, redis.ErrCacheMiss) {
		ctx.Logger.Info("unknown link code", zap.Int64("chat_id", chatID))
		return utils.FormatInvalidCodeMessage()
	}
	if err != nil {
		ctx.Logger.Error("consume link code failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return utils.FormatErrorMessage()
	}

	user, err := ctx.Store.GetUser(dbCtx, userID)
	if err != nil {
		ctx.Logger.Error("get user failed", zap.Int64("user_id", userID), zap.Error(err))
		return utils.FormatErrorMessage()
	}
	if user == nil {
		return utils.FormatInvalidCodeMessage()
	}

	if err := ctx.Store.SetTelegramChatID(dbCtx, userID, chatID); err != nil {
		ctx.Logger.Error("failed to link chat",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return utils.FormatErrorMessage()
	}

	return utils.FormatLinkedMessage(user.FullName)
}
