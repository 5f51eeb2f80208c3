package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"jober/internal/models"
	"jober/internal/storage/objects"

	"github.com/gin-gonic/gin"
)

// dashboard branches on the caller's role
func (s *Server) dashboard(c *gin.Context) {
	ctx, cancel := s.storageCtx(c)
	defer cancel()

	sess := currentSession(c)

	var (
		data interface{}
		err  error
	)
	switch sess.Role {
	case models.RoleJobSeeker:
		data, err = s.board.SeekerDashboard(ctx, sess.UserID)
	case models.RoleEmployer:
		data, err = s.board.EmployerDashboard(ctx, sess.UserID)
	case models.RoleAdmin:
		data, err = s.board.AdminDashboard(ctx)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown role"})
		return
	}

	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": sess.Role, "dashboard": data})
}

func (s *Server) telegramLink(c *gin.Context) {
	ctx, cancel := s.storageCtx(c)
	defer cancel()

	code, err := s.board.TelegramLinkCode(ctx, currentSession(c).UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": code, "command": "/start " + code})
}

// Job seeker

func (s *Server) withdrawApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	if err := s.board.WithdrawApplication(ctx, currentSession(c).UserID, id); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) unsaveJob(c *gin.Context) {
	id, ok := paramID(c, "jobID")
	if !ok {
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	if err := s.board.UnsaveJob(ctx, currentSession(c).UserID, id); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) getProfile(c *gin.Context) {
	ctx, cancel := s.storageCtx(c)
	defer cancel()

	profile, err := s.board.GetProfile(ctx, currentSession(c).UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// saveProfile accepts a JSON body, or a multipart form whose "profile" field
// holds the JSON and whose optional "resume" field holds the new résumé
func (s *Server) saveProfile(c *gin.Context) {
	var in models.ProfileInput
	var resume *objects.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if raw := c.PostForm("profile"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in); err != nil {
				badRequest(c, "invalid profile field")
				return
			}
		}

		if header, err := c.FormFile("resume"); err == nil {
			if header.Size > objects.MaxResumeSize {
				s.respondError(c, objects.ErrTooLarge)
				return
			}

			file, err := header.Open()
			if err != nil {
				badRequest(c, "failed to read resume")
				return
			}
			defer file.Close()

			resume = &objects.Upload{Filename: header.Filename, Size: header.Size, Content: file}
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	profile, err := s.board.SaveProfile(ctx, currentSession(c).UserID, in, resume)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Employer

type companyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required,appstatus"`
}

func (s *Server) updateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	company, err := s.board.UpdateCompany(ctx, currentSession(c).UserID, req.Name, req.Description)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

func (s *Server) createJob(c *gin.Context) {
	var in models.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	job, err := s.board.CreateOrUpdateJob(ctx, currentSession(c).UserID, in, nil)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (s *Server) updateJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var in models.JobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	job, err := s.board.CreateOrUpdateJob(ctx, currentSession(c).UserID, in, &id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (s *Server) setJobActive(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	if err := s.board.SetJobActive(ctx, currentSession(c).UserID, id, *req.Active); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": id, "is_active": *req.Active})
}

func (s *Server) updateApplicationStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	app, err := s.board.UpdateApplicationStatus(ctx, currentSession(c).UserID, id, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// Admin

func (s *Server) adminUsers(c *gin.Context) {
	ctx, cancel := s.storageCtx(c)
	defer cancel()

	dash, err := s.board.AdminDashboard(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}

func (s *Server) adminDeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	if err := s.board.DeleteUser(ctx, currentSession(c).UserID, id); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) adminDeleteJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	if err := s.board.DeleteJob(ctx, id); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
