package jobboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jober/internal/models"
	"jober/internal/storage/redis"

	"go.uber.org/zap"
)

type JobList struct {
	Jobs    []models.JobListing `json:"jobs"`
	Message string              `json:"message,omitempty"`
}

// JobDetails is a single job plus the viewer's own application, if any
type JobDetails struct {
	Job         models.JobListing          `json:"job"`
	Application *models.ApplicationDetails `json:"application,omitempty"`
}

// GetJobs lists active jobs matching the filter. Job seekers also get their
// applied and saved flags on every listing.
func (s *Service) GetJobs(ctx context.Context, viewerID int64, role models.Role, filter models.JobFilter) (*JobList, error) {
	jobs, err := s.repo.ListJobs(ctx, filter.Normalize())
	if err != nil {
		return nil, fmt.Errorf("get jobs: %w", err)
	}

	applied := map[int64]bool{}
	saved := map[int64]bool{}

	if role == models.RoleJobSeeker && len(jobs) > 0 {
		if applied, err = s.idSet(ctx, viewerID, s.repo.AppliedJobIDs); err != nil {
			return nil, fmt.Errorf("get jobs: %w", err)
		}
		if saved, err = s.idSet(ctx, viewerID, s.repo.SavedJobIDs); err != nil {
			return nil, fmt.Errorf("get jobs: %w", err)
		}
	}

	list := &JobList{Jobs: make([]models.JobListing, 0, len(jobs))}
	for _, job := range jobs {
		list.Jobs = append(list.Jobs, models.JobListing{
			Job:        job,
			HasApplied: applied[job.ID],
			IsSaved:    saved[job.ID],
		})
	}

	if len(list.Jobs) == 0 {
		list.Message = EmptyListingMessage
	}

	return list, nil
}

func (s *Service) idSet(ctx context.Context, userID int64, load func(context.Context, int64) ([]int64, error)) (map[int64]bool, error) {
	ids, err := load(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *Service) GetJob(ctx context.Context, viewerID int64, role models.Role, jobID int64) (*JobDetails, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, ErrNotFound
	}

	details := &JobDetails{Job: models.JobListing{Job: *job}}

	if role != models.RoleJobSeeker {
		return details, nil
	}

	apps, err := s.repo.ListApplicantApplications(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	for i := range apps {
		if apps[i].JobID == jobID {
			details.Application = &apps[i]
			details.Job.HasApplied = true
			s.signResume(ctx, apps[i].ResumeKey, &apps[i].ResumeURL)
			break
		}
	}

	saved, err := s.idSet(ctx, viewerID, s.repo.SavedJobIDs)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	details.Job.IsSaved = saved[jobID]

	return details, nil
}

// ListCategories reads through the cache
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.cache.GetCategories(ctx)
	if err == nil {
		return categories, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		s.logger.Warn("categories cache unavailable", zap.Error(err))
	}

	categories, err = s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if err := s.cache.SetCategories(ctx, categories); err != nil {
		s.logger.Warn("failed to cache categories", zap.Error(err))
	}

	return categories, nil
}

// CreateOrUpdateJob validates the form before touching the store. A nil id
// creates a job, otherwise the job with that id is overwritten.
func (s *Service) CreateOrUpdateJob(ctx context.Context, employerID int64, in models.JobInput, id *int64) (*models.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	company, err := s.employerCompany(ctx, employerID)
	if err != nil {
		return nil, err
	}

	if in.CompanyID != company.ID {
		return nil, ErrForbidden
	}

	job := &models.Job{
		CompanyID:   company.ID,
		CategoryID:  in.CategoryID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		JobType:     in.JobType,
		SalaryMin:   in.SalaryMin,
		SalaryMax:   in.SalaryMax,
		Deadline:    in.DeadlineDate(),
		IsActive:    true,
	}

	if id == nil {
		if err := s.repo.CreateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("create job: %w", err)
		}
	} else {
		if _, err := s.ownedJob(ctx, company, *id); err != nil {
			return nil, err
		}

		job.ID = *id
		if err := s.repo.UpdateJob(ctx, job); err != nil {
			return nil, fmt.Errorf("update job: %w", err)
		}
	}

	saved, err := s.repo.GetJob(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("reload job: %w", err)
	}
	if saved == nil {
		return nil, ErrNotFound
	}

	return saved, nil
}

// SetJobActive shows or hides one of the employer's jobs in the listing
func (s *Service) SetJobActive(ctx context.Context, employerID, jobID int64, active bool) error {
	company, err := s.employerCompany(ctx, employerID)
	if err != nil {
		return err
	}

	if _, err := s.ownedJob(ctx, company, jobID); err != nil {
		return err
	}

	if err := s.repo.SetJobActive(ctx, jobID, active); err != nil {
		return fmt.Errorf("set job active: %w", err)
	}

	return nil
}

// DeleteJob is the admin removal; applications and bookmarks go with it
func (s *Service) DeleteJob(ctx context.Context, jobID int64) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if job == nil {
		return ErrNotFound
	}

	// the cascade drops the applications; their résumés must be collected first
	apps, err := s.repo.ListCompanyApplications(ctx, job.CompanyID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	var keys []string
	for _, app := range apps {
		if app.JobID == jobID {
			keys = append(keys, app.ResumeKey)
		}
	}

	if err := s.repo.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	for _, key := range keys {
		s.removeResume(ctx, key)
	}

	return nil
}

func (s *Service) employerCompany(ctx context.Context, employerID int64) (*models.Company, error) {
	company, err := s.repo.GetCompanyByOwner(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, ErrNoCompany
	}
	return company, nil
}

func (s *Service) ownedJob(ctx context.Context, company *models.Company, jobID int64) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, ErrNotFound
	}
	if job.CompanyID != company.ID {
		return nil, ErrForbidden
	}
	return job, nil
}
