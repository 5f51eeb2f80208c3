package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"jober/internal/models"
	"jober/internal/storage/postgres"
	"jober/internal/storage/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateCompany(ctx context.Context, company *models.Company) error
}

type TokenStore interface {
	CreateSession(ctx context.Context, token string, userID int64, ttl time.Duration) error
	GetSessionUser(ctx context.Context, token string) (int64, error)
	TouchSession(ctx context.Context, token string, ttl time.Duration) error
	DeleteSession(ctx context.Context, token string) error
}

// Session is the signed-in user as seen by one token
type Session struct {
	Token     string      `json:"-"`
	UserID    int64       `json:"user_id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type SignUpInput struct {
	Email    string      `json:"email" form:"email" binding:"required,email"`
	Password string      `json:"password" form:"password" binding:"required,min=6"`
	FullName string      `json:"full_name" form:"full_name" binding:"required"`
	Role     models.Role `json:"role" form:"role" binding:"required,signuprole"`
}

// Manager owns the session lifecycle: created on sign in/up, extended on
// every check and dropped on sign out
type Manager struct {
	users  UserStore
	tokens TokenStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(users UserStore, tokens TokenStore, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
	}

	if err := m.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, postgres.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	if user.Role == models.RoleEmployer {
		company := &models.Company{OwnerID: user.ID, Name: user.FullName}
		// the employer can still create it later from the dashboard
		if err := m.users.CreateCompany(ctx, company); err != nil {
			m.logger.Warn("failed to create company for new employer",
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	return m.start(ctx, user)
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := m.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		m.logger.Info("sign in rejected", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	return m.start(ctx, user)
}

func (m *Manager) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := m.tokens.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	return nil
}

// CheckUser resolves a token to its session and refreshes the role from the
// user record. Any failure is treated as signed out.
func (m *Manager) CheckUser(ctx context.Context, token string) *Session {
	if token == "" {
		return nil
	}

	userID, err := m.tokens.GetSessionUser(ctx, token)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			m.logger.Warn("session lookup failed", zap.Error(err))
		}
		return nil
	}

	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		m.logger.Warn("session user lookup failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil
	}

	if user == nil {
		// user was deleted while signed in
		_ = m.tokens.DeleteSession(ctx, token)
		return nil
	}

	if err := m.tokens.TouchSession(ctx, token, m.ttl); err != nil {
		m.logger.Warn("failed to refresh session", zap.Int64("user_id", userID), zap.Error(err))
	}

	return m.sessionFor(token, user)
}

func (m *Manager) start(ctx context.Context, user *models.User) (*Session, error) {
	token := uuid.NewString()

	if err := m.tokens.CreateSession(ctx, token, user.ID, m.ttl); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.logger.Info("session started",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return m.sessionFor(token, user), nil
}

func (m *Manager) sessionFor(token string, user *models.User) *Session {
	return &Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		ExpiresAt: m.now().Add(m.ttl),
	}
}

func validateSignUp(in SignUpInput) error {
	var missing []string

	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(in.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if in.Role == "" {
		missing = append(missing, "role")
	}

	if len(missing) > 0 {
		return &models.ValidationError{Fields: missing, Message: "missing required fields"}
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &models.ValidationError{Fields: []string{"email"}, Message: "invalid email"}
	}

	if len(in.Password) < minPasswordLength {
		return &models.ValidationError{Fields: []string{"password"}, Message: "password must be at least 6 characters"}
	}

	if !in.Role.SelfAssignable() {
		return &models.ValidationError{Fields: []string{"role"}, Message: "role must be job_seeker or employer"}
	}

	return nil
}
