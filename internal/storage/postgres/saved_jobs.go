package postgres

import (
	"context"
	"fmt"

	"jober/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

// saveJobStmt is idempotent: a second save of the same job is a no-op
func (s *Store) saveJobStmt(userID, jobID int64) *dbr.InsertStmt {
	return s.sess.
		InsertBySql(`
			INSERT INTO saved_jobs (user_id, job_id, created_at)
			VALUES (?, ?, NOW())
			ON CONFLICT (user_id, job_id) DO NOTHING
		`, userID, jobID)
}

func (s *Store) SaveJob(ctx context.Context, userID, jobID int64) error {
	_, err := s.saveJobStmt(userID, jobID).ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to save job",
			zap.Int64("user_id", userID),
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("save job: %w", err)
	}

	return nil
}

// UnsaveJob reports whether a bookmark was actually removed
func (s *Store) UnsaveJob(ctx context.Context, userID, jobID int64) (bool, error) {
	result, err := s.sess.
		DeleteFrom("saved_jobs").
		Where("user_id = ? AND job_id = ?", userID, jobID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to unsave job",
			zap.Int64("user_id", userID),
			zap.Int64("job_id", jobID),
			zap.Error(err),
		)
		return false, fmt.Errorf("unsave job: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()

	return rowsAffected > 0, nil
}

func (s *Store) SavedJobIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}

	_, err := s.sess.
		Select("job_id").
		From("saved_jobs").
		Where("user_id = ?", userID).
		LoadContext(ctx, &ids)

	if err != nil {
		s.logger.Error("failed to get saved job ids",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("saved job ids: %w", err)
	}

	return ids, nil
}

func (s *Store) ListSavedJobs(ctx context.Context, userID int64) ([]models.SavedJob, error) {
	saved := []models.SavedJob{}

	_, err := s.sess.
		Select(
			"s.user_id", "s.job_id", "s.created_at",
			"j.title AS job_title",
			"j.location AS job_location",
			"j.job_type", "j.deadline", "j.is_active",
			"c.name AS company_name",
		).
		From("saved_jobs s").
		Join(dbr.I("jobs").As("j"), "j.id = s.job_id").
		Join(dbr.I("companies").As("c"), "c.id = j.company_id").
		Where("s.user_id = ?", userID).
		OrderDesc("s.created_at").
		LoadContext(ctx, &saved)

	if err != nil {
		s.logger.Error("failed to list saved jobs",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list saved jobs: %w", err)
	}

	return saved, nil
}
