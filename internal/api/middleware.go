package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"jober/internal/models"
	"jober/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookie = "jober_session"
	sessionKey    = "session"
)

// RateLimiter counts requests per client in a one minute window
type RateLimiter interface {
	IncrementRateLimit(ctx context.Context, client string) (int64, error)
}

// Recovery middleware for panic handling
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.Stack("stack"),
					zap.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
			}
		}()

		c.Next()
	}
}

// Logger middleware for logging all handled requests
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		var userID int64
		if sess := currentSession(c); sess != nil {
			userID = sess.UserID
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("user_id", userID),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request handled", fields...)
		}
	}
}

// Authenticate resolves the session token, if any, and stores the session
// in the context. It never rejects a request.
func Authenticate(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess := sessions.CheckUser(c.Request.Context(), sessionToken(c)); sess != nil {
			c.Set(sessionKey, sess)
		}
		c.Next()
	}
}

// RateLimit lets a client make at most perMinute requests per minute.
// Signed-in users are counted by id, everyone else by address.
func RateLimit(limiter RateLimiter, perMinute int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := "ip:" + c.ClientIP()
		if sess := currentSession(c); sess != nil {
			client = fmt.Sprintf("user:%d", sess.UserID)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := limiter.IncrementRateLimit(ctx, client)
		if err != nil {
			logger.Error("failed to check rate limit",
				zap.String("client", client),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count > int64(perMinute) {
			logger.Warn("rate limit exceeded",
				zap.String("client", client),
				zap.Int64("count", count),
			)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit exceeded: at most %d requests per minute", perMinute),
			})
			return
		}

		c.Next()
	}
}

// RequireSession sends signed-out visitors to the auth page, remembering
// where they were going
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c) != nil {
			c.Next()
			return
		}

		target := "/auth?from=" + url.QueryEscape(c.Request.URL.RequestURI())

		if c.Request.Method == http.MethodGet {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "authentication required",
			"redirect": target,
		})
	}
}

func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess == nil || !sess.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not allowed for your role"})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// sessionToken reads the cookie first, then a bearer token
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		return token
	}

	const prefix = "Bearer "
	if auth := c.GetHeader("Authorization"); len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}

	return ""
}
