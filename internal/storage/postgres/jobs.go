package postgres

import (
	"context"
	"fmt"
	"time"

	"jober/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

var jobColumns = []string{
	"j.id", "j.company_id", "j.category_id", "j.title", "j.description", "j.location",
	"j.job_type", "j.salary_min", "j.salary_max", "j.deadline", "j.is_active",
	"j.created_at", "j.updated_at",
	"c.name AS company_name",
	"cat.name AS category_name",
}

func (s *Store) selectJobs() *dbr.SelectStmt {
	return s.sess.
		Select(jobColumns...).
		From("jobs j").
		Join(dbr.I("companies").As("c"), "c.id = j.company_id").
		LeftJoin(dbr.I("categories").As("cat"), "cat.id = j.category_id")
}

// applyJobFilter turns the non-empty filter fields into predicates
func applyJobFilter(stmt *dbr.SelectStmt, f models.JobFilter) *dbr.SelectStmt {
	f = f.Normalize()

	stmt = stmt.Where("j.is_active = ?", true)

	if f.Query != "" {
		stmt = stmt.Where("j.title ILIKE ?", like(f.Query))
	}
	if f.Category != "" {
		stmt = stmt.Where("cat.name ILIKE ?", like(f.Category))
	}
	if f.Location != "" {
		stmt = stmt.Where("j.location ILIKE ?", like(f.Location))
	}
	if f.JobType != "" {
		stmt = stmt.Where("j.job_type = ?", f.JobType)
	}
	if f.Salary > 0 {
		stmt = stmt.Where("(j.salary_max IS NULL OR j.salary_max >= ?)", f.Salary)
	}

	return stmt.OrderDesc("j.created_at")
}

func like(s string) string {
	return "%" + s + "%"
}

// ListJobs returns active jobs matching the filter, newest first
func (s *Store) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	jobs := []models.Job{}

	_, err := applyJobFilter(s.selectJobs(), filter).LoadContext(ctx, &jobs)
	if err != nil {
		s.logger.Error("failed to list jobs",
			zap.String("query", filter.Query),
			zap.String("location", filter.Location),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	s.logger.Debug("jobs listed",
		zap.String("query", filter.Query),
		zap.Int("count", len(jobs)),
	)

	return jobs, nil
}

// ListAllJobs includes inactive jobs
func (s *Store) ListAllJobs(ctx context.Context) ([]models.Job, error) {
	jobs := []models.Job{}

	_, err := s.selectJobs().
		OrderDesc("j.created_at").
		LoadContext(ctx, &jobs)

	if err != nil {
		s.logger.Error("failed to list all jobs", zap.Error(err))
		return nil, fmt.Errorf("list all jobs: %w", err)
	}

	return jobs, nil
}

func (s *Store) ListCompanyJobs(ctx context.Context, companyID int64) ([]models.Job, error) {
	jobs := []models.Job{}

	_, err := s.selectJobs().
		Where("j.company_id = ?", companyID).
		OrderDesc("j.created_at").
		LoadContext(ctx, &jobs)

	if err != nil {
		s.logger.Error("failed to list company jobs",
			zap.Int64("company_id", companyID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list company jobs: %w", err)
	}

	return jobs, nil
}

func (s *Store) GetJob(ctx context.Context, jobID int64) (*models.Job, error) {
	var job models.Job

	err := s.selectJobs().
		Where("j.id = ?", jobID).
		LoadOneContext(ctx, &job)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get job",
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get job: %w", err)
	}

	return &job, nil
}

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	err := s.sess.
		InsertInto("jobs").
		Columns("company_id", "category_id", "title", "description", "location",
			"job_type", "salary_min", "salary_max", "deadline", "is_active").
		Values(job.CompanyID, job.CategoryID, job.Title, job.Description, job.Location,
			job.JobType, job.SalaryMin, job.SalaryMax, job.Deadline, true).
		Returning("id", "is_active", "created_at", "updated_at").
		LoadContext(ctx, job)

	if err != nil {
		s.logger.Error("failed to create job",
			zap.Int64("company_id", job.CompanyID),
			zap.String("title", job.Title),
			zap.Error(err),
		)
		return fmt.Errorf("create job: %w", err)
	}

	s.logger.Info("job created",
		zap.Int64("job_id", job.ID),
		zap.Int64("company_id", job.CompanyID),
	)

	return nil
}

// UpdateJob overwrites the editable columns; last write wins
func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	result, err := s.sess.
		Update("jobs").
		Set("category_id", job.CategoryID).
		Set("title", job.Title).
		Set("description", job.Description).
		Set("location", job.Location).
		Set("job_type", job.JobType).
		Set("salary_min", job.SalaryMin).
		Set("salary_max", job.SalaryMax).
		Set("deadline", job.Deadline).
		Set("is_active", true).
		Set("updated_at", time.Now()).
		Where("id = ?", job.ID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update job",
			zap.Int64("job_id", job.ID),
			zap.Error(err),
		)
		return fmt.Errorf("update job: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dbr.ErrNotFound
	}

	s.logger.Info("job updated", zap.Int64("job_id", job.ID))
	return nil
}

func (s *Store) SetJobActive(ctx context.Context, jobID int64, active bool) error {
	_, err := s.sess.
		Update("jobs").
		Set("is_active", active).
		Set("updated_at", time.Now()).
		Where("id = ?", jobID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to set job active",
			zap.Int64("job_id", jobID),
			zap.Bool("active", active),
			zap.Error(err),
		)
		return fmt.Errorf("set job active: %w", err)
	}

	s.logger.Info("job visibility updated",
		zap.Int64("job_id", jobID),
		zap.Bool("active", active),
	)

	return nil
}

func (s *Store) DeleteJob(ctx context.Context, jobID int64) error {
	_, err := s.sess.
		DeleteFrom("jobs").
		Where("id = ?", jobID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete job",
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("delete job: %w", err)
	}

	s.logger.Info("job deleted", zap.Int64("job_id", jobID))
	return nil
}

// DeactivateExpiredJobs hides active jobs whose deadline is before the given day
func (s *Store) DeactivateExpiredJobs(ctx context.Context, today time.Time) (int64, error) {
	result, err := s.sess.
		Update("jobs").
		Set("is_active", false).
		Set("updated_at", time.Now()).
		Where("is_active = ? AND deadline < ?", true, today.Format(models.DeadlineLayout)).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to deactivate expired jobs", zap.Error(err))
		return 0, fmt.Errorf("deactivate expired jobs: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()

	return rowsAffected, nil
}

// companyStatsQueries builds the counts behind the employer dashboard, all scoped to one company
func (s *Store) companyStatsQueries(companyID int64) (total, active, applications *dbr.SelectStmt) {
	total = s.sess.
		Select("COUNT(*)").
		From("jobs").
		Where("company_id = ?", companyID)

	active = s.sess.
		Select("COUNT(*)").
		From("jobs").
		Where("company_id = ? AND is_active = ?", companyID, true)

	applications = s.sess.
		Select("COUNT(*)").
		From("applications a").
		Join(dbr.I("jobs").As("j"), "j.id = a.job_id").
		Where("j.company_id = ?", companyID)

	return total, active, applications
}

// CompanyJobStats runs one count query per figure
func (s *Store) CompanyJobStats(ctx context.Context, companyID int64) (*models.EmployerStats, error) {
	stats := &models.EmployerStats{}
	total, active, applications := s.companyStatsQueries(companyID)

	if err := total.LoadOneContext(ctx, &stats.TotalJobs); err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}

	if err := active.LoadOneContext(ctx, &stats.ActiveJobs); err != nil {
		return nil, fmt.Errorf("count active jobs: %w", err)
	}

	if err := applications.LoadOneContext(ctx, &stats.Applications); err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}

	s.logger.Debug("company stats",
		zap.Int64("company_id", companyID),
		zap.Int("total_jobs", stats.TotalJobs),
		zap.Int("active_jobs", stats.ActiveJobs),
		zap.Int("applications", stats.Applications),
	)

	return stats, nil
}
