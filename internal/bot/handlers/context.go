package handlers

import (
	"context"

	"jober/internal/models"

	"go.uber.org/zap"
)

// Store is the part of the postgres store the bot reads and writes
type Store interface {
	GetUserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error)
	SetTelegramChatID(ctx context.Context, userID, chatID int64) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListApplicantApplications(ctx context.Context, applicantID int64) ([]models.ApplicationDetails, error)
}

type LinkCodes interface {
	ConsumeTelegramLinkCode(ctx context.Context, code string) (int64, error)
}

// Context contains deps for all handlers
type Context struct {
	Store        Store
	Cache        LinkCodes
	DashboardURL string
	Logger       *zap.Logger
}
