package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

// events streams the job seeker's application status changes as
// Server-Sent Events for as long as the client stays connected
func (s *Server) events(c *gin.Context) {
	sess := currentSession(c)

	changes, closeFeed, err := s.board.Subscribe(c.Request.Context(), sess.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer func() {
		if err := closeFeed(); err != nil {
			s.logger.Warn("failed to close status feed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"user_id": sess.UserID})
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent("status", change)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
