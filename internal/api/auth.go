package api

import (
	"net/http"
	"strings"

	"jober/internal/models"
	"jober/internal/session"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (s *Server) authPage(c *gin.Context) {
	if currentSession(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"modes": []string{"sign_in", "sign_up"},
		"roles": []models.Role{models.RoleJobSeeker, models.RoleEmployer},
		"from":  safeRedirect(c.Query("from")),
	})
}

func (s *Server) signUp(c *gin.Context) {
	var in session.SignUpInput
	if err := c.ShouldBind(&in); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	sess, err := s.sessions.SignUp(ctx, in)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusCreated, gin.H{
		"session":  sess,
		"token":    sess.Token,
		"redirect": safeRedirect(c.Query("from")),
	})
}

func (s *Server) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	sess, err := s.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, sess.Token)
	c.JSON(http.StatusOK, gin.H{
		"session":  sess,
		"token":    sess.Token,
		"redirect": safeRedirect(c.Query("from")),
	})
}

func (s *Server) signOut(c *gin.Context) {
	ctx, cancel := s.storageCtx(c)
	defer cancel()

	if err := s.sessions.SignOut(ctx, sessionToken(c)); err != nil {
		s.respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"redirect": "/"})
}

// sessionInfo reports the role the way the navbar consumes it
func (s *Server) sessionInfo(c *gin.Context) {
	sess := currentSession(c)
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"role": nil, "loading": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": sess.Role, "loading": false, "user": sess})
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(s.opts.SessionTTL.Seconds()), "/", "", s.opts.SecureCookies, true)
}

// safeRedirect only follows local paths
func safeRedirect(from string) string {
	// browsers read "/\host" like "//host", so a backslash anywhere is refused
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") ||
		strings.Contains(from, "\\") || strings.HasPrefix(from, "/auth") {
		return "/"
	}
	return from
}
