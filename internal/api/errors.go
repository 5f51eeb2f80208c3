package api

import (
	"errors"
	"net/http"

	"jober/internal/jobboard"
	"jober/internal/models"
	"jober/internal/session"
	"jober/internal/storage/objects"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// respondError maps domain errors to status codes. Anything unknown is
// logged and reported as a generic failure.
func (s *Server) respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	var bindErrs validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.As(err, &bindErrs):
		fields := make([]string, 0, len(bindErrs))
		for _, fe := range bindErrs {
			fields = append(fields, fe.Field())
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
	case errors.Is(err, session.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, jobboard.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, jobboard.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, jobboard.ErrAlreadyApplied),
		errors.Is(err, jobboard.ErrNoCompany),
		errors.Is(err, session.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, objects.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, objects.ErrNotPDF):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// respondBindError separates validation failures from malformed bodies
func (s *Server) respondBindError(c *gin.Context, err error) {
	var bindErrs validator.ValidationErrors
	if errors.As(err, &bindErrs) {
		s.respondError(c, err)
		return
	}
	badRequest(c, "invalid request body")
}
