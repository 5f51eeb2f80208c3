package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"jober/internal/jobboard"
	"jober/internal/models"
	"jober/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// storageTimeout bounds the store calls made by one request
const storageTimeout = 10 * time.Second

type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	SessionTTL         time.Duration
	SecureCookies      bool
}

type Server struct {
	engine   *gin.Engine
	board    *jobboard.Service
	sessions *session.Manager
	limiter  RateLimiter
	opts     Options
	logger   *zap.Logger
}

func NewServer(board *jobboard.Service, sessions *session.Manager, limiter RateLimiter, opts Options, logger *zap.Logger) *Server {
	registerValidators()

	s := &Server{
		engine:   gin.New(),
		board:    board,
		sessions: sessions,
		limiter:  limiter,
		opts:     opts,
		logger:   logger,
	}

	s.engine.Use(Recovery(logger))
	s.engine.Use(corsMiddleware(opts.CORSOrigins))
	s.engine.Use(Authenticate(sessions))
	s.engine.Use(Logger(logger))
	s.engine.Use(RateLimit(limiter, opts.RateLimitPerMinute, logger))

	s.routes()

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/", s.index)
	r.GET("/auth", s.authPage)
	r.POST("/auth/sign-up", s.signUp)
	r.POST("/auth/sign-in", s.signIn)
	r.POST("/auth/sign-out", s.signOut)
	r.GET("/auth/session", s.sessionInfo)
	r.GET("/categories", s.listCategories)

	protected := r.Group("", RequireSession())
	{
		protected.GET("/jobs", s.listJobs)
		protected.GET("/jobs/:id", s.getJob)
		protected.POST("/jobs/:id/apply", RequireRole(models.RoleJobSeeker), s.applyForJob)
		protected.POST("/jobs/:id/save", RequireRole(models.RoleJobSeeker), s.toggleSavedJob)

		protected.GET("/dashboard", s.dashboard)
		protected.POST("/dashboard/telegram-link", s.telegramLink)
	}

	seeker := r.Group("/dashboard", RequireSession(), RequireRole(models.RoleJobSeeker))
	{
		seeker.GET("/events", s.events)
		seeker.DELETE("/applications/:id", s.withdrawApplication)
		seeker.DELETE("/saved/:jobID", s.unsaveJob)
		seeker.GET("/profile", s.getProfile)
		seeker.PUT("/profile", s.saveProfile)
	}

	employer := r.Group("/dashboard", RequireSession(), RequireRole(models.RoleEmployer))
	{
		employer.PUT("/company", s.updateCompany)
		employer.POST("/jobs", s.createJob)
		employer.PUT("/jobs/:id", s.updateJob)
		employer.PATCH("/jobs/:id/active", s.setJobActive)
		employer.PATCH("/applications/:id/status", s.updateApplicationStatus)
	}

	admin := r.Group("/dashboard/admin", RequireSession(), RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", s.adminUsers)
		admin.DELETE("/users/:id", s.adminDeleteUser)
		admin.DELETE("/jobs/:id", s.adminDeleteJob)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	})
}

func (s *Server) storageCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storageTimeout)
}

// paramID parses a positive numeric path parameter, answering 400 otherwise
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

type navLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// index describes the landing page and the navigation visible to the caller
func (s *Server) index(c *gin.Context) {
	links := []navLink{{Label: "Jober", Path: "/"}}

	var role *models.Role
	if sess := currentSession(c); sess != nil {
		role = &sess.Role
		links = append(links, navLink{Label: "Browse Jobs", Path: "/jobs"})
		if sess.Role == models.RoleEmployer {
			links = append(links, navLink{Label: "Post a Job", Path: "/dashboard"})
		}
		links = append(links,
			navLink{Label: "Dashboard", Path: "/dashboard"},
			navLink{Label: "Sign Out", Path: "/auth/sign-out"},
		)
	} else {
		links = append(links, navLink{Label: "Login / Sign Up", Path: "/auth"})
	}

	c.JSON(http.StatusOK, gin.H{
		"app":   "Jober",
		"title": "Find Your Next Career with Jober",
		"role":  role,
		"links": links,
	})
}
