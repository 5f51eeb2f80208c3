package postgres

import (
	"context"
	"fmt"
	"time"

	"jober/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

var applicationColumns = []string{
	"a.id", "a.job_id", "a.applicant_id", "a.cover_letter", "a.note", "a.resume_url",
	"a.resume_key", "a.status", "a.created_at", "a.updated_at",
	"j.title AS job_title",
	"j.location AS job_location",
	"c.id AS company_id",
	"c.name AS company_name",
	"u.full_name AS applicant_name",
	"u.email AS applicant_email",
}

func (s *Store) selectApplications() *dbr.SelectStmt {
	return s.sess.
		Select(applicationColumns...).
		From("applications a").
		Join(dbr.I("jobs").As("j"), "j.id = a.job_id").
		Join(dbr.I("companies").As("c"), "c.id = j.company_id").
		Join(dbr.I("users").As("u"), "u.id = a.applicant_id")
}

func (s *Store) applicantApplicationsQuery(applicantID int64) *dbr.SelectStmt {
	return s.selectApplications().
		Where("a.applicant_id = ?", applicantID).
		OrderDesc("a.created_at")
}

// companyApplicationsQuery scopes through the job's company, not the applicant
func (s *Store) companyApplicationsQuery(companyID int64) *dbr.SelectStmt {
	return s.selectApplications().
		Where("c.id = ?", companyID).
		OrderDesc("a.created_at")
}

// CreateApplication returns ErrConflict if the applicant already applied to the job
func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	err := s.sess.
		InsertInto("applications").
		Columns("job_id", "applicant_id", "cover_letter", "note", "resume_url", "resume_key", "status").
		Values(app.JobID, app.ApplicantID, app.CoverLetter, app.Note, app.ResumeURL, app.ResumeKey, app.Status).
		Returning("id", "created_at", "updated_at").
		LoadContext(ctx, app)

	if isUniqueViolation(err) {
		s.logger.Warn("duplicate application rejected",
			zap.Int64("job_id", app.JobID),
			zap.Int64("applicant_id", app.ApplicantID),
		)
		return ErrConflict
	}

	if err != nil {
		s.logger.Error("failed to create application",
			zap.Int64("job_id", app.JobID),
			zap.Int64("applicant_id", app.ApplicantID),
			zap.Error(err),
		)
		return fmt.Errorf("create application: %w", err)
	}

	s.logger.Info("application created",
		zap.Int64("application_id", app.ID),
		zap.Int64("job_id", app.JobID),
		zap.Int64("applicant_id", app.ApplicantID),
	)

	return nil
}

func (s *Store) GetApplication(ctx context.Context, appID int64) (*models.ApplicationDetails, error) {
	var app models.ApplicationDetails

	err := s.selectApplications().
		Where("a.id = ?", appID).
		LoadOneContext(ctx, &app)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get application",
			zap.Int64("application_id", appID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &app, nil
}

func (s *Store) ListApplicantApplications(ctx context.Context, applicantID int64) ([]models.ApplicationDetails, error) {
	apps := []models.ApplicationDetails{}

	_, err := s.applicantApplicationsQuery(applicantID).LoadContext(ctx, &apps)

	if err != nil {
		s.logger.Error("failed to list applicant applications",
			zap.Int64("applicant_id", applicantID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list applicant applications: %w", err)
	}

	return apps, nil
}

func (s *Store) ListCompanyApplications(ctx context.Context, companyID int64) ([]models.ApplicationDetails, error) {
	apps := []models.ApplicationDetails{}

	_, err := s.companyApplicationsQuery(companyID).LoadContext(ctx, &apps)

	if err != nil {
		s.logger.Error("failed to list company applications",
			zap.Int64("company_id", companyID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list company applications: %w", err)
	}

	return apps, nil
}

func (s *Store) AppliedJobIDs(ctx context.Context, applicantID int64) ([]int64, error) {
	ids := []int64{}

	_, err := s.sess.
		Select("job_id").
		From("applications").
		Where("applicant_id = ?", applicantID).
		LoadContext(ctx, &ids)

	if err != nil {
		s.logger.Error("failed to get applied job ids",
			zap.Int64("applicant_id", applicantID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("applied job ids: %w", err)
	}

	return ids, nil
}

func (s *Store) HasApplied(ctx context.Context, jobID, applicantID int64) (bool, error) {
	var count int

	err := s.sess.
		Select("COUNT(*)").
		From("applications").
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to check application",
			zap.Int64("job_id", jobID),
			zap.Int64("applicant_id", applicantID),
			zap.Error(err),
		)
		return false, fmt.Errorf("has applied: %w", err)
	}

	return count > 0, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, appID int64, status models.ApplicationStatus) error {
	_, err := s.sess.
		Update("applications").
		Set("status", status).
		Set("updated_at", time.Now()).
		Where("id = ?", appID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update application status",
			zap.Int64("application_id", appID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return fmt.Errorf("update application status: %w", err)
	}

	s.logger.Info("application status updated",
		zap.Int64("application_id", appID),
		zap.String("status", string(status)),
	)

	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, appID int64) error {
	_, err := s.sess.
		DeleteFrom("applications").
		Where("id = ?", appID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete application",
			zap.Int64("application_id", appID),
			zap.Error(err),
		)
		return fmt.Errorf("delete application: %w", err)
	}

	s.logger.Info("application deleted", zap.Int64("application_id", appID))
	return nil
}
