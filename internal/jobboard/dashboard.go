package jobboard

import (
	"context"
	"fmt"
	"strings"

	"jober/internal/models"
	"jober/internal/storage/objects"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EmployerDashboard struct {
	Company      *models.Company             `json:"company"`
	Stats        *models.EmployerStats       `json:"stats"`
	Jobs         []models.Job                `json:"jobs"`
	Applications []models.ApplicationDetails `json:"applications"`
}

type SeekerStats struct {
	Applications int `json:"applications"`
	Saved        int `json:"saved"`
}

type SeekerDashboard struct {
	Profile      *models.Profile             `json:"profile"`
	Applications []models.ApplicationDetails `json:"applications"`
	SavedJobs    []models.SavedJob           `json:"saved_jobs"`
	Stats        SeekerStats                 `json:"stats"`
}

type AdminDashboard struct {
	Users []models.User `json:"users"`
	Jobs  []models.Job  `json:"jobs"`
}

func (s *Service) EmployerDashboard(ctx context.Context, employerID int64) (*EmployerDashboard, error) {
	company, err := s.employerCompany(ctx, employerID)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.CompanyJobStats(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("employer dashboard: %w", err)
	}

	jobs, err := s.repo.ListCompanyJobs(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("employer dashboard: %w", err)
	}

	apps, err := s.repo.ListCompanyApplications(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("employer dashboard: %w", err)
	}
	for i := range apps {
		s.signResume(ctx, apps[i].ResumeKey, &apps[i].ResumeURL)
	}

	return &EmployerDashboard{
		Company:      company,
		Stats:        stats,
		Jobs:         jobs,
		Applications: apps,
	}, nil
}

// UpdateCompany edits the employer's company, creating it if sign-up could not
func (s *Service) UpdateCompany(ctx context.Context, employerID int64, name, description string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Fields: []string{"name"}, Message: "missing required fields"}
	}

	company, err := s.repo.GetCompanyByOwner(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}

	if company == nil {
		company = &models.Company{OwnerID: employerID, Name: name, Description: strings.TrimSpace(description)}
		if err := s.repo.CreateCompany(ctx, company); err != nil {
			return nil, fmt.Errorf("create company: %w", err)
		}
		return company, nil
	}

	company.Name = name
	company.Description = strings.TrimSpace(description)
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}

	return company, nil
}

func (s *Service) SeekerDashboard(ctx context.Context, seekerID int64) (*SeekerDashboard, error) {
	profile, err := s.GetProfile(ctx, seekerID)
	if err != nil {
		return nil, err
	}

	apps, err := s.repo.ListApplicantApplications(ctx, seekerID)
	if err != nil {
		return nil, fmt.Errorf("seeker dashboard: %w", err)
	}
	for i := range apps {
		s.signResume(ctx, apps[i].ResumeKey, &apps[i].ResumeURL)
	}

	saved, err := s.repo.ListSavedJobs(ctx, seekerID)
	if err != nil {
		return nil, fmt.Errorf("seeker dashboard: %w", err)
	}

	return &SeekerDashboard{
		Profile:      profile,
		Applications: apps,
		SavedJobs:    saved,
		Stats: SeekerStats{
			Applications: len(apps),
			Saved:        len(saved),
		},
	}, nil
}

// GetProfile never returns nil for a known user; a seeker without a saved
// profile gets an empty one
func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if profile == nil {
		return &models.Profile{
			UserID:     userID,
			Skills:     []string{},
			Experience: models.ExperienceList{},
			Education:  models.EducationList{},
		}, nil
	}

	if profile.ResumeKey != nil && profile.ResumeURL != nil {
		s.signResume(ctx, *profile.ResumeKey, profile.ResumeURL)
	}

	return profile, nil
}

// SaveProfile upserts the profile. A new résumé replaces the previous object,
// which is deleted once the new one is referenced.
func (s *Service) SaveProfile(ctx context.Context, userID int64, in models.ProfileInput, resume *objects.Upload) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	if profile == nil {
		profile = &models.Profile{UserID: userID}
	}

	in.ApplyTo(profile)

	var oldKey, newKey string
	if resume != nil {
		if err := objects.ValidateResume(*resume); err != nil {
			return nil, err
		}

		if newKey, err = s.resumes.Upload(ctx, userID, *resume); err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}

		url, err := s.resumes.URL(ctx, newKey)
		if err != nil {
			s.removeResume(ctx, newKey)
			return nil, fmt.Errorf("save profile: %w", err)
		}

		if profile.ResumeKey != nil {
			oldKey = *profile.ResumeKey
		}
		profile.ResumeKey = &newKey
		profile.ResumeURL = &url
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		s.removeResume(ctx, newKey)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	if oldKey != "" && oldKey != newKey {
		s.removeResume(ctx, oldKey)
	}

	s.logger.Info("profile saved",
		zap.Int64("user_id", userID),
		zap.Bool("resume_replaced", newKey != ""),
	)

	return profile, nil
}

// Subscribe streams the applicant's status changes until ctx ends or the
// returned func is called
func (s *Service) Subscribe(ctx context.Context, applicantID int64) (<-chan models.StatusChange, func() error, error) {
	changes, cancel, err := s.events.SubscribeStatusChanges(ctx, applicantID)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}
	return changes, cancel, nil
}

func (s *Service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}

	jobs, err := s.repo.ListAllJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}

	return &AdminDashboard{Users: users, Jobs: jobs}, nil
}

// DeleteUser removes an account; admins cannot remove themselves
func (s *Service) DeleteUser(ctx context.Context, adminID, userID int64) error {
	if adminID == userID {
		return ErrForbidden
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}

	keys, err := s.userResumeKeys(ctx, user)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	for _, key := range keys {
		s.removeResume(ctx, key)
	}

	s.logger.Info("user removed by admin",
		zap.Int64("admin_id", adminID),
		zap.Int64("user_id", userID),
		zap.Int("resumes_removed", len(keys)),
	)

	return nil
}

// userResumeKeys lists every résumé the user's deletion cascades away: their own
// applications and profile, and for an employer the applications to their company's jobs
func (s *Service) userResumeKeys(ctx context.Context, user *models.User) ([]string, error) {
	var keys []string

	apps, err := s.repo.ListApplicantApplications(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, app := range apps {
		keys = append(keys, app.ResumeKey)
	}

	profile, err := s.repo.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if profile != nil && profile.ResumeKey != nil {
		keys = append(keys, *profile.ResumeKey)
	}

	if user.Role != models.RoleEmployer {
		return keys, nil
	}

	company, err := s.repo.GetCompanyByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return keys, nil
	}

	companyApps, err := s.repo.ListCompanyApplications(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	for _, app := range companyApps {
		keys = append(keys, app.ResumeKey)
	}

	return keys, nil
}

// TelegramLinkCode issues a one-time code for "/start <code>" in the bot
func (s *Service) TelegramLinkCode(ctx context.Context, userID int64) (string, error) {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	if err := s.cache.SetTelegramLinkCode(ctx, code, userID); err != nil {
		return "", fmt.Errorf("telegram link code: %w", err)
	}

	return code, nil
}
