// Package jobboardtest provides in-memory stand-ins for the storage layers.
package jobboardtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jober/internal/models"
	"jober/internal/storage/postgres"
)

// Store mimics postgres.Store: not-found lookups return (nil, nil) and
// unique violations return postgres.ErrConflict
type Store struct {
	mu sync.Mutex

	// Errors makes the named method fail with the given error
	Errors map[string]error
	// Calls counts method invocations by name
	Calls map[string]int

	seq        int64
	clock      time.Time
	users      map[int64]*models.User
	companies  map[int64]*models.Company
	categories []models.Category
	jobs       map[int64]*models.Job
	apps       map[int64]*models.Application
	saved      map[[2]int64]time.Time
	profiles   map[int64]*models.Profile
}

func NewStore() *Store {
	return &Store{
		Errors:    map[string]error{},
		Calls:     map[string]int{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[int64]*models.User{},
		companies: map[int64]*models.Company{},
		categories: []models.Category{
			{ID: 1, Name: "Design"},
			{ID: 2, Name: "Engineering"},
			{ID: 3, Name: "Marketing"},
		},
		jobs:     map[int64]*models.Job{},
		apps:     map[int64]*models.Application{},
		saved:    map[[2]int64]time.Time{},
		profiles: map[int64]*models.Profile{},
	}
}

func (s *Store) call(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls[name]++
	return s.Errors[name]
}

// tick hands out ids and strictly increasing timestamps; callers hold mu
func (s *Store) tick() (int64, time.Time) {
	s.seq++
	s.clock = s.clock.Add(time.Second)
	return s.seq, s.clock
}

// CallCount is safe to read while workers run
func (s *Store) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[name]
}

// TotalCalls sums every recorded method call
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.Calls {
		total += n
	}
	return total
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.call("CreateUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return postgres.ErrConflict
		}
	}

	user.ID, user.CreatedAt = s.tick()
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	if err := s.call("GetUser"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := s.call("GetUserByEmail"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetUserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	if err := s.call("GetUserByTelegramChat"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := s.call("ListUsers"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []models.User{}
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *Store) SetTelegramChatID(ctx context.Context, userID, chatID int64) error {
	if err := s.call("SetTelegramChatID"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			u.TelegramChatID = nil
		}
	}
	if u, ok := s.users[userID]; ok {
		id := chatID
		u.TelegramChatID = &id
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.call("DeleteUser"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	delete(s.profiles, userID)

	// companies.owner_id cascades to the company, its jobs and their applications
	ownedJobs := map[int64]bool{}
	for id, c := range s.companies {
		if c.OwnerID != userID {
			continue
		}
		for jobID, j := range s.jobs {
			if j.CompanyID == id {
				ownedJobs[jobID] = true
				delete(s.jobs, jobID)
			}
		}
		delete(s.companies, id)
	}

	for id, a := range s.apps {
		if a.ApplicantID == userID || ownedJobs[a.JobID] {
			delete(s.apps, id)
		}
	}
	for key := range s.saved {
		if key[0] == userID || ownedJobs[key[1]] {
			delete(s.saved, key)
		}
	}
	return nil
}

// Companies

func (s *Store) CreateCompany(ctx context.Context, company *models.Company) error {
	if err := s.call("CreateCompany"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.companies {
		if c.OwnerID == company.OwnerID {
			return postgres.ErrConflict
		}
	}

	company.ID, company.CreatedAt = s.tick()
	c := *company
	s.companies[c.ID] = &c
	return nil
}

func (s *Store) GetCompanyByOwner(ctx context.Context, ownerID int64) (*models.Company, error) {
	if err := s.call("GetCompanyByOwner"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.companies {
		if c.OwnerID == ownerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateCompany(ctx context.Context, company *models.Company) error {
	if err := s.call("UpdateCompany"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.companies[company.ID]; ok {
		c.Name = company.Name
		c.Description = company.Description
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := s.call("ListCategories"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.Category(nil), s.categories...), nil
}

// Jobs

// joinJob fills the joined names; callers hold mu
func (s *Store) joinJob(j *models.Job) models.Job {
	out := *j
	if c, ok := s.companies[j.CompanyID]; ok {
		out.CompanyName = c.Name
	}
	out.CategoryName = nil
	for _, cat := range s.categories {
		if cat.ID == j.CategoryID {
			name := cat.Name
			out.CategoryName = &name
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (s *Store) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	if err := s.call("ListJobs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f := filter.Normalize()
	jobs := []models.Job{}
	for _, j := range s.jobs {
		job := s.joinJob(j)
		switch {
		case !job.IsActive:
			continue
		case f.Query != "" && !containsFold(job.Title, f.Query):
			continue
		case f.Category != "" && (job.CategoryName == nil || !containsFold(*job.CategoryName, f.Category)):
			continue
		case f.Location != "" && !containsFold(job.Location, f.Location):
			continue
		case f.JobType != "" && job.JobType != f.JobType:
			continue
		case f.Salary > 0 && job.SalaryMax != nil && *job.SalaryMax < f.Salary:
			continue
		}
		jobs = append(jobs, job)
	}

	sortNewestFirst(jobs)
	return jobs, nil
}

func sortNewestFirst(jobs []models.Job) {
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
}

func (s *Store) ListAllJobs(ctx context.Context) ([]models.Job, error) {
	if err := s.call("ListAllJobs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := []models.Job{}
	for _, j := range s.jobs {
		jobs = append(jobs, s.joinJob(j))
	}
	sortNewestFirst(jobs)
	return jobs, nil
}

func (s *Store) ListCompanyJobs(ctx context.Context, companyID int64) ([]models.Job, error) {
	if err := s.call("ListCompanyJobs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := []models.Job{}
	for _, j := range s.jobs {
		if j.CompanyID == companyID {
			jobs = append(jobs, s.joinJob(j))
		}
	}
	sortNewestFirst(jobs)
	return jobs, nil
}

func (s *Store) GetJob(ctx context.Context, jobID int64) (*models.Job, error) {
	if err := s.call("GetJob"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	job := s.joinJob(j)
	return &job, nil
}

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	if err := s.call("CreateJob"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job.ID, job.CreatedAt = s.tick()
	job.UpdatedAt = job.CreatedAt
	job.IsActive = true
	j := *job
	s.jobs[j.ID] = &j
	return nil
}

func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	if err := s.call("UpdateJob"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[job.ID]
	if !ok {
		return nil
	}
	_, now := s.tick()
	j := *job
	j.CreatedAt = existing.CreatedAt
	j.UpdatedAt = now
	j.IsActive = true
	s.jobs[j.ID] = &j
	return nil
}

func (s *Store) SetJobActive(ctx context.Context, jobID int64, active bool) error {
	if err := s.call("SetJobActive"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[jobID]; ok {
		j.IsActive = active
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, jobID int64) error {
	if err := s.call("DeleteJob"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, jobID)
	for id, a := range s.apps {
		if a.JobID == jobID {
			delete(s.apps, id)
		}
	}
	for key := range s.saved {
		if key[1] == jobID {
			delete(s.saved, key)
		}
	}
	return nil
}

func (s *Store) DeactivateExpiredJobs(ctx context.Context, today time.Time) (int64, error) {
	if err := s.call("DeactivateExpiredJobs"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := today.Truncate(24 * time.Hour)
	var n int64
	for _, j := range s.jobs {
		if j.IsActive && j.Deadline.Before(cutoff) {
			j.IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *Store) CompanyJobStats(ctx context.Context, companyID int64) (*models.EmployerStats, error) {
	if err := s.call("CompanyJobStats"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &models.EmployerStats{}
	for _, j := range s.jobs {
		if j.CompanyID != companyID {
			continue
		}
		stats.TotalJobs++
		if j.IsActive {
			stats.ActiveJobs++
		}
		for _, a := range s.apps {
			if a.JobID == j.ID {
				stats.Applications++
			}
		}
	}
	return stats, nil
}

// Applications

// joinApplication fills the joined job, company and applicant fields; callers hold mu
func (s *Store) joinApplication(a *models.Application) models.ApplicationDetails {
	d := models.ApplicationDetails{Application: *a}
	if j, ok := s.jobs[a.JobID]; ok {
		d.JobTitle = j.Title
		d.JobLocation = j.Location
		d.CompanyID = j.CompanyID
		if c, ok := s.companies[j.CompanyID]; ok {
			d.CompanyName = c.Name
		}
	}
	if u, ok := s.users[a.ApplicantID]; ok {
		d.ApplicantName = u.FullName
		d.ApplicantEmail = u.Email
	}
	return d
}

func (s *Store) CreateApplication(ctx context.Context, app *models.Application) error {
	if err := s.call("CreateApplication"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.apps {
		if a.JobID == app.JobID && a.ApplicantID == app.ApplicantID {
			return postgres.ErrConflict
		}
	}

	app.ID, app.CreatedAt = s.tick()
	app.UpdatedAt = app.CreatedAt
	a := *app
	s.apps[a.ID] = &a
	return nil
}

func (s *Store) GetApplication(ctx context.Context, appID int64) (*models.ApplicationDetails, error) {
	if err := s.call("GetApplication"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[appID]
	if !ok {
		return nil, nil
	}
	d := s.joinApplication(a)
	return &d, nil
}

func (s *Store) listApplications(match func(d models.ApplicationDetails) bool) []models.ApplicationDetails {
	apps := []models.ApplicationDetails{}
	for _, a := range s.apps {
		if d := s.joinApplication(a); match(d) {
			apps = append(apps, d)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	return apps
}

func (s *Store) ListApplicantApplications(ctx context.Context, applicantID int64) ([]models.ApplicationDetails, error) {
	if err := s.call("ListApplicantApplications"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listApplications(func(d models.ApplicationDetails) bool { return d.ApplicantID == applicantID }), nil
}

func (s *Store) ListCompanyApplications(ctx context.Context, companyID int64) ([]models.ApplicationDetails, error) {
	if err := s.call("ListCompanyApplications"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listApplications(func(d models.ApplicationDetails) bool { return d.CompanyID == companyID }), nil
}

func (s *Store) AppliedJobIDs(ctx context.Context, applicantID int64) ([]int64, error) {
	if err := s.call("AppliedJobIDs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []int64{}
	for _, a := range s.apps {
		if a.ApplicantID == applicantID {
			ids = append(ids, a.JobID)
		}
	}
	return ids, nil
}

func (s *Store) HasApplied(ctx context.Context, jobID, applicantID int64) (bool, error) {
	if err := s.call("HasApplied"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.apps {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, appID int64, status models.ApplicationStatus) error {
	if err := s.call("UpdateApplicationStatus"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.apps[appID]; ok {
		a.Status = status
		_, a.UpdatedAt = s.tick()
	}
	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, appID int64) error {
	if err := s.call("DeleteApplication"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.apps, appID)
	return nil
}

// Saved jobs

func (s *Store) SaveJob(ctx context.Context, userID, jobID int64) error {
	if err := s.call("SaveJob"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int64{userID, jobID}
	if _, ok := s.saved[key]; !ok {
		_, s.saved[key] = s.tick()
	}
	return nil
}

func (s *Store) UnsaveJob(ctx context.Context, userID, jobID int64) (bool, error) {
	if err := s.call("UnsaveJob"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int64{userID, jobID}
	if _, ok := s.saved[key]; !ok {
		return false, nil
	}
	delete(s.saved, key)
	return true, nil
}

func (s *Store) SavedJobIDs(ctx context.Context, userID int64) ([]int64, error) {
	if err := s.call("SavedJobIDs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []int64{}
	for key := range s.saved {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
	}
	return ids, nil
}

func (s *Store) ListSavedJobs(ctx context.Context, userID int64) ([]models.SavedJob, error) {
	if err := s.call("ListSavedJobs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := []models.SavedJob{}
	for key, at := range s.saved {
		j, ok := s.jobs[key[1]]
		if key[0] != userID || !ok {
			continue
		}
		job := s.joinJob(j)
		saved = append(saved, models.SavedJob{
			UserID:      userID,
			JobID:       job.ID,
			CreatedAt:   at,
			JobTitle:    job.Title,
			JobLocation: job.Location,
			JobType:     job.JobType,
			Deadline:    job.Deadline,
			IsActive:    job.IsActive,
			CompanyName: job.CompanyName,
		})
	}
	sort.Slice(saved, func(i, j int) bool { return saved[i].CreatedAt.After(saved[j].CreatedAt) })
	return saved, nil
}

// Profiles

func (s *Store) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	if err := s.call("GetProfile"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if err := s.call("UpsertProfile"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, p.UpdatedAt = s.tick()
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}
