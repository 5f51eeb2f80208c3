package postgres

import (
	"context"
	"errors"
	"fmt"

	"jober/internal/models"

	"go.uber.org/zap"
)

func (s *Store) CreateCompany(ctx context.Context, company *models.Company) error {
	err := s.sess.
		InsertInto("companies").
		Columns("owner_id", "name", "description").
		Values(company.OwnerID, company.Name, company.Description).
		Returning("id", "created_at").
		LoadContext(ctx, company)

	if err = asConflict(err); errors.Is(err, ErrConflict) {
		return err
	}

	if err != nil {
		s.logger.Error("failed to create company",
			zap.Int64("owner_id", company.OwnerID),
			zap.Error(err),
		)
		return fmt.Errorf("create company: %w", err)
	}

	s.logger.Info("company created",
		zap.Int64("company_id", company.ID),
		zap.Int64("owner_id", company.OwnerID),
	)

	return nil
}

func (s *Store) GetCompanyByOwner(ctx context.Context, ownerID int64) (*models.Company, error) {
	var company models.Company

	err := s.sess.
		Select("*").
		From("companies").
		Where("owner_id = ?", ownerID).
		LoadOneContext(ctx, &company)

	if isNotFound(err) {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get company",
			zap.Int64("owner_id", ownerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get company: %w", err)
	}

	return &company, nil
}

func (s *Store) UpdateCompany(ctx context.Context, company *models.Company) error {
	_, err := s.sess.
		Update("companies").
		Set("name", company.Name).
		Set("description", company.Description).
		Where("id = ?", company.ID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update company",
			zap.Int64("company_id", company.ID),
			zap.Error(err),
		)
		return fmt.Errorf("update company: %w", err)
	}

	s.logger.Info("company updated", zap.Int64("company_id", company.ID))
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}

	_, err := s.sess.
		Select("id", "name").
		From("categories").
		OrderBy("name").
		LoadContext(ctx, &categories)

	if err != nil {
		s.logger.Error("failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, nil
}
