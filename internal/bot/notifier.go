package bot

import (
	"context"
	"fmt"
	"time"

	"jober/internal/bot/utils"
	"jober/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const notifyTimeout = 10 * time.Second

type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// ChangeFeed delivers status changes for every applicant
type ChangeFeed interface {
	SubscribeAllStatusChanges(ctx context.Context) (<-chan models.StatusChange, func() error, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Notifier forwards application status changes to linked Telegram chats
type Notifier struct {
	sender       Sender
	feed         ChangeFeed
	users        UserLookup
	dashboardURL string
	logger       *zap.Logger
}

func NewNotifier(sender Sender, feed ChangeFeed, users UserLookup, dashboardURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:       sender,
		feed:         feed,
		users:        users,
		dashboardURL: dashboardURL,
		logger:       logger,
	}
}

// Run blocks until ctx is done or the feed closes
func (n *Notifier) Run(ctx context.Context) error {
	changes, closeFeed, err := n.feed.SubscribeAllStatusChanges(ctx)
	if err != nil {
		return fmt.Errorf("subscribe status changes: %w", err)
	}
	defer closeFeed()

	n.logger.Info("status notifier started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("status notifier stopped")
			return nil
		case change, ok := <-changes:
			if !ok {
				n.logger.Info("status feed closed")
				return nil
			}
			n.notify(ctx, change)
		}
	}
}

// notify never retries; a lost message is only logged
func (n *Notifier) notify(ctx context.Context, change models.StatusChange) {
	dbCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	user, err := n.users.GetUser(dbCtx, change.ApplicantID)
	if err != nil {
		n.logger.Error("failed to load applicant",
			zap.Int64("applicant_id", change.ApplicantID),
			zap.Error(err),
		)
		return
	}
	if user == nil || user.TelegramChatID == nil {
		n.logger.Debug("applicant has no linked chat",
			zap.Int64("applicant_id", change.ApplicantID),
		)
		return
	}

	_, err = n.sender.Send(
		tele.ChatID(*user.TelegramChatID),
		utils.FormatStatusChange(change),
		utils.InlineApplicationsKeyboard(n.dashboardURL),
		tele.ModeMarkdownV2,
	)
	if err != nil {
		n.logger.Warn("failed to send status notification",
			zap.Int64("applicant_id", change.ApplicantID),
			zap.Int64("application_id", change.ApplicationID),
			zap.Error(err),
		)
		return
	}

	n.logger.Info("status notification sent",
		zap.Int64("applicant_id", change.ApplicantID),
		zap.Int64("application_id", change.ApplicationID),
		zap.String("status", string(change.Status)),
	)
}
