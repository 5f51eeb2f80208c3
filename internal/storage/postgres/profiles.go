package postgres

import (
	"context"
	"fmt"

	"jober/internal/models"

	"github.com/gocraft/dbr/v2"
	"go.uber.org/zap"
)

func (s *Store) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var profile models.Profile

	err := s.sess.
		Select("*").
		From("profiles").
		Where("user_id = ?", userID).
		LoadOneContext(ctx, &profile)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get profile",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

func (s *Store) upsertProfileQuery(p *models.Profile) *dbr.SelectStmt {
	query := `
		INSERT INTO profiles (
			user_id, full_name, title, bio, skills, experience, education,
			location, linkedin_url, github_url, website, resume_url, resume_key, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			full_name    = EXCLUDED.full_name,
			title        = EXCLUDED.title,
			bio          = EXCLUDED.bio,
			skills       = EXCLUDED.skills,
			experience   = EXCLUDED.experience,
			education    = EXCLUDED.education,
			location     = EXCLUDED.location,
			linkedin_url = EXCLUDED.linkedin_url,
			github_url   = EXCLUDED.github_url,
			website      = EXCLUDED.website,
			resume_url   = EXCLUDED.resume_url,
			resume_key   = EXCLUDED.resume_key,
			updated_at   = NOW()
		RETURNING updated_at
	`

	return s.sess.
		SelectBySql(query,
			p.UserID,
			p.FullName,
			p.Title,
			p.Bio,
			p.Skills,
			p.Experience,
			p.Education,
			p.Location,
			p.LinkedInURL,
			p.GitHubURL,
			p.Website,
			p.ResumeURL,
			p.ResumeKey,
		)
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	err := s.upsertProfileQuery(p).LoadOneContext(ctx, &p.UpdatedAt)

	if err != nil {
		s.logger.Error("failed to upsert profile",
			zap.Int64("user_id", p.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("upsert profile: %w", err)
	}

	s.logger.Info("profile saved", zap.Int64("user_id", p.UserID))
	return nil
}
