package jobboard

import (
	"context"
	"errors"
	"time"

	"jober/internal/models"
	"jober/internal/storage/objects"

	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrAlreadyApplied = errors.New("you have already applied to this job")
	ErrNoCompany      = errors.New("employer has no company")
)

// EmptyListingMessage accompanies a listing without results
const EmptyListingMessage = "No jobs found."

type JobRepository interface {
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	ListAllJobs(ctx context.Context) ([]models.Job, error)
	ListCompanyJobs(ctx context.Context, companyID int64) ([]models.Job, error)
	GetJob(ctx context.Context, jobID int64) (*models.Job, error)
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, job *models.Job) error
	SetJobActive(ctx context.Context, jobID int64, active bool) error
	DeleteJob(ctx context.Context, jobID int64) error
	CompanyJobStats(ctx context.Context, companyID int64) (*models.EmployerStats, error)
}

type CompanyRepository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompanyByOwner(ctx context.Context, ownerID int64) (*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) error
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, appID int64) (*models.ApplicationDetails, error)
	ListApplicantApplications(ctx context.Context, applicantID int64) ([]models.ApplicationDetails, error)
	ListCompanyApplications(ctx context.Context, companyID int64) ([]models.ApplicationDetails, error)
	AppliedJobIDs(ctx context.Context, applicantID int64) ([]int64, error)
	HasApplied(ctx context.Context, jobID, applicantID int64) (bool, error)
	UpdateApplicationStatus(ctx context.Context, appID int64, status models.ApplicationStatus) error
	DeleteApplication(ctx context.Context, appID int64) error
}

type SavedJobRepository interface {
	SaveJob(ctx context.Context, userID, jobID int64) error
	UnsaveJob(ctx context.Context, userID, jobID int64) (bool, error)
	SavedJobIDs(ctx context.Context, userID int64) ([]int64, error)
	ListSavedJobs(ctx context.Context, userID int64) ([]models.SavedJob, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
}

type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID int64) error
}

// Repository is everything the service reads and writes in the relational store
type Repository interface {
	JobRepository
	CompanyRepository
	ApplicationRepository
	SavedJobRepository
	ProfileRepository
	UserRepository
}

type Cache interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	SetCategories(ctx context.Context, categories []models.Category) error
	SetTelegramLinkCode(ctx context.Context, code string, userID int64) error
}

// Events is the realtime change feed
type Events interface {
	PublishStatusChange(ctx context.Context, change models.StatusChange) error
	SubscribeStatusChanges(ctx context.Context, applicantID int64) (<-chan models.StatusChange, func() error, error)
}

type ResumeStorage interface {
	Upload(ctx context.Context, userID int64, file objects.Upload) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

type Service struct {
	repo    Repository
	cache   Cache
	events  Events
	resumes ResumeStorage
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, cache Cache, events Events, resumes ResumeStorage, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		events:  events,
		resumes: resumes,
		logger:  logger,
		now:     time.Now,
	}
}

// signResume swaps a stored résumé key for a fresh download link; on failure
// the last stored link is kept
func (s *Service) signResume(ctx context.Context, key string, url *string) {
	if key == "" {
		return
	}

	signed, err := s.resumes.URL(ctx, key)
	if err != nil {
		s.logger.Warn("failed to sign resume url", zap.String("key", key), zap.Error(err))
		return
	}

	*url = signed
}

// removeResume deletes an object that is no longer referenced. A failure
// leaves an orphan behind and is only logged.
func (s *Service) removeResume(ctx context.Context, key string) {
	if key == "" {
		return
	}

	if err := s.resumes.Remove(ctx, key); err != nil {
		s.logger.Warn("orphaned resume left in storage",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
