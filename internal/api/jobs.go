package api

import (
	"net/http"

	"jober/internal/jobboard"
	"jober/internal/models"
	"jober/internal/storage/objects"

	"github.com/gin-gonic/gin"
)

func (s *Server) listCategories(c *gin.Context) {
	ctx, cancel := s.storageCtx(c)
	defer cancel()

	categories, err := s.board.ListCategories(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) listJobs(c *gin.Context) {
	var filter models.JobFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		s.respondBindError(c, err)
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	sess := currentSession(c)
	list, err := s.board.GetJobs(ctx, sess.UserID, sess.Role, filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (s *Server) getJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	sess := currentSession(c)
	details, err := s.board.GetJob(ctx, sess.UserID, sess.Role, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// applyForJob takes a multipart form with resume, cover_letter and note
func (s *Server) applyForJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("resume")
	if err != nil {
		s.respondError(c, &models.ValidationError{Fields: []string{"resume"}, Message: "resume required"})
		return
	}
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

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	app, err := s.board.ApplyForJob(ctx, currentSession(c).UserID, jobboard.ApplyInput{
		JobID:       id,
		CoverLetter: c.PostForm("cover_letter"),
		Note:        c.PostForm("note"),
		Resume: objects.Upload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		},
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": app, "message": "Application submitted!"})
}

func (s *Server) toggleSavedJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := s.storageCtx(c)
	defer cancel()

	saved, err := s.board.ToggleSavedJob(ctx, currentSession(c).UserID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": id, "saved": saved})
}
