package handlers

import (
	"context"

	"jober/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /applications
func HandleApplications(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		dbCtx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()

		msg, linked := ApplicationsMessage(dbCtx, ctx, c.Chat().ID)
		if !linked {
			return c.Send(msg, tele.ModeMarkdownV2)
		}

		return c.Send(msg, utils.InlineApplicationsKeyboard(ctx.DashboardURL), tele.ModeMarkdownV2)
	}
}

// ApplicationsMessage lists the applications of the account linked to chatID.
// linked is false when the chat has no account or the lookup failed.
func ApplicationsMessage(dbCtx context.Context, ctx *Context, chatID int64) (msg string, linked bool) {
	user, err := ctx.Store.GetUserByTelegramChat(dbCtx, chatID)
	if err != nil {
		ctx.Logger.Error("get user by chat failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return utils.FormatErrorMessage(), false
	}
	if user == nil {
		return utils.FormatNotLinkedMessage(), false
	}

	apps, err := ctx.Store.ListApplicantApplications(dbCtx, user.ID)
	if err != nil {
		ctx.Logger.Error("failed to list applications", zap.Int64("user_id", user.ID), zap.Error(err))
		return utils.FormatErrorMessage(), false
	}

	return utils.FormatApplications(apps), true
}
