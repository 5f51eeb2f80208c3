package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jober/internal/models"

	"go.uber.org/zap"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := s.sess.
		InsertInto("users").
		Columns("email", "password_hash", "full_name", "role").
		Values(user.Email, user.PasswordHash, user.FullName, user.Role).
		Returning("id", "created_at").
		LoadContext(ctx, user)

	if err = asConflict(err); errors.Is(err, ErrConflict) {
		return err
	}

	if err != nil {
		s.logger.Error("failed to create user",
			zap.String("email", user.Email),
			zap.Error(err),
		)
		return fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User

	err := s.sess.
		Select("*").
		From("users").
		Where("id = ?", userID).
		LoadOneContext(ctx, &user)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := s.sess.
		Select("*").
		From("users").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		LoadOneContext(ctx, &user)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (s *Store) GetUserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	var user models.User

	err := s.sess.
		Select("*").
		From("users").
		Where("telegram_chat_id = ?", chatID).
		LoadOneContext(ctx, &user)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get user by telegram chat",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}

	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}

	_, err := s.sess.
		Select("*").
		From("users").
		OrderDesc("created_at").
		LoadContext(ctx, &users)

	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// SetTelegramChatID links a chat to the user, unlinking it from anyone else first
func (s *Store) SetTelegramChatID(ctx context.Context, userID, chatID int64) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin link telegram: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	_, err = tx.
		Update("users").
		Set("telegram_chat_id", nil).
		Where("telegram_chat_id = ? AND id <> ?", chatID, userID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to unlink telegram chat",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("unlink telegram chat: %w", err)
	}

	_, err = tx.
		Update("users").
		Set("telegram_chat_id", chatID).
		Where("id = ?", userID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to link telegram chat",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("link telegram chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit link telegram: %w", err)
	}

	s.logger.Info("telegram chat linked",
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	)

	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	_, err := s.sess.
		DeleteFrom("users").
		Where("id = ?", userID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.Int64("user_id", userID))
	return nil
}
