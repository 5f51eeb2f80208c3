package jobboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jober/internal/models"
	"jober/internal/storage/objects"
	"jober/internal/storage/postgres"

	"go.uber.org/zap"
)

type ApplyInput struct {
	JobID       int64
	CoverLetter string
	Note        string
	Resume      objects.Upload
}

// ApplyForJob uploads the résumé and records a pending application. If the
// insert fails the upload is removed again.
func (s *Service) ApplyForJob(ctx context.Context, seekerID int64, in ApplyInput) (*models.Application, error) {
	if strings.TrimSpace(in.CoverLetter) == "" {
		return nil, &models.ValidationError{Fields: []string{"cover_letter"}, Message: "missing required fields"}
	}

	job, err := s.repo.GetJob(ctx, in.JobID)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	if job == nil || !job.IsActive {
		return nil, ErrNotFound
	}

	applied, err := s.repo.HasApplied(ctx, in.JobID, seekerID)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	if applied {
		return nil, ErrAlreadyApplied
	}

	if err := objects.ValidateResume(in.Resume); err != nil {
		return nil, err
	}

	key, err := s.resumes.Upload(ctx, seekerID, in.Resume)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	url, err := s.resumes.URL(ctx, key)
	if err != nil {
		s.removeResume(ctx, key)
		return nil, fmt.Errorf("apply: %w", err)
	}

	app := &models.Application{
		JobID:       in.JobID,
		ApplicantID: seekerID,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		ResumeURL:   url,
		ResumeKey:   key,
		Status:      models.ApplicationStatusPending,
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		app.Note = &note
	}

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		s.removeResume(ctx, key)

		if errors.Is(err, postgres.ErrConflict) {
			return nil, ErrAlreadyApplied
		}
		return nil, fmt.Errorf("apply: %w", err)
	}

	s.logger.Info("application submitted",
		zap.Int64("application_id", app.ID),
		zap.Int64("job_id", app.JobID),
		zap.Int64("applicant_id", seekerID),
	)

	return app, nil
}

// WithdrawApplication deletes one of the seeker's own applications
func (s *Service) WithdrawApplication(ctx context.Context, seekerID, appID int64) error {
	app, err := s.repo.GetApplication(ctx, appID)
	if err != nil {
		return fmt.Errorf("withdraw application: %w", err)
	}
	if app == nil {
		return ErrNotFound
	}
	if app.ApplicantID != seekerID {
		return ErrForbidden
	}

	if err := s.repo.DeleteApplication(ctx, appID); err != nil {
		return fmt.Errorf("withdraw application: %w", err)
	}

	s.removeResume(ctx, app.ResumeKey)

	return nil
}

// UpdateApplicationStatus lets the owning employer move an application to any
// status. The applicant's feed is notified after the write.
func (s *Service) UpdateApplicationStatus(ctx context.Context, employerID, appID int64, status models.ApplicationStatus) (*models.ApplicationDetails, error) {
	if !status.Valid() {
		return nil, &models.ValidationError{Fields: []string{"status"}, Message: "invalid application status"}
	}

	company, err := s.employerCompany(ctx, employerID)
	if err != nil {
		return nil, err
	}

	app, err := s.repo.GetApplication(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.CompanyID != company.ID {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateApplicationStatus(ctx, appID, status); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	app.Status = status
	app.UpdatedAt = s.now()
	s.signResume(ctx, app.ResumeKey, &app.ResumeURL)

	change := models.StatusChange{
		ApplicationID: app.ID,
		ApplicantID:   app.ApplicantID,
		JobID:         app.JobID,
		JobTitle:      app.JobTitle,
		CompanyName:   app.CompanyName,
		Status:        status,
		ChangedAt:     app.UpdatedAt,
	}
	if err := s.events.PublishStatusChange(ctx, change); err != nil {
		s.logger.Warn("status change not delivered",
			zap.Int64("application_id", app.ID),
			zap.Error(err),
		)
	}

	return app, nil
}

// ToggleSavedJob bookmarks a job or, if it was already saved, removes it.
// It reports whether the job is saved afterwards.
func (s *Service) ToggleSavedJob(ctx context.Context, seekerID, jobID int64) (bool, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("toggle saved job: %w", err)
	}
	if job == nil {
		return false, ErrNotFound
	}

	removed, err := s.repo.UnsaveJob(ctx, seekerID, jobID)
	if err != nil {
		return false, fmt.Errorf("toggle saved job: %w", err)
	}
	if removed {
		return false, nil
	}

	if err := s.repo.SaveJob(ctx, seekerID, jobID); err != nil {
		return false, fmt.Errorf("toggle saved job: %w", err)
	}

	return true, nil
}

func (s *Service) UnsaveJob(ctx context.Context, seekerID, jobID int64) error {
	if _, err := s.repo.UnsaveJob(ctx, seekerID, jobID); err != nil {
		return fmt.Errorf("unsave job: %w", err)
	}
	return nil
}
