package models

import (
	"fmt"
	"strings"
	"time"
)

type JobType string

const (
	JobTypeFullTime JobType = "full_time"
	JobTypePartTime JobType = "part_time"
	JobTypeContract JobType = "contract"
	JobTypeRemote   JobType = "remote"
)

// DeadlineLayout is the wire format of job deadlines
const DeadlineLayout = "2006-01-02"

var JobTypeDisplayNames = map[JobType]string{
	JobTypeFullTime: "Full-time",
	JobTypePartTime: "Part-time",
	JobTypeContract: "Contract",
	JobTypeRemote:   "Remote",
}

func (t JobType) Valid() bool {
	_, ok := JobTypeDisplayNames[t]
	return ok
}

func (t JobType) DisplayName() string {
	if name, ok := JobTypeDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

type Job struct {
	ID           int64     `db:"id" json:"id"`
	CompanyID    int64     `db:"company_id" json:"company_id"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Location     string    `db:"location" json:"location"`
	JobType      JobType   `db:"job_type" json:"job_type"`
	SalaryMin    *int      `db:"salary_min" json:"salary_min"`
	SalaryMax    *int      `db:"salary_max" json:"salary_max"`
	Deadline     time.Time `db:"deadline" json:"deadline"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	CompanyName  string    `db:"company_name" json:"company_name"`
	CategoryName *string   `db:"category_name" json:"category_name"`
}

// JobListing is a job as seen by one viewer
type JobListing struct {
	Job
	HasApplied bool `json:"has_applied"`
	IsSaved    bool `json:"is_saved"`
}

// JobFilter holds listing criteria; empty fields are ignored
type JobFilter struct {
	Query    string  `form:"query"`
	Category string  `form:"category"`
	Location string  `form:"location"`
	JobType  JobType `form:"job_type" binding:"omitempty,jobtype"`
	Salary   int     `form:"salary" binding:"min=0"`
}

func (f JobFilter) Normalize() JobFilter {
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	f.Location = strings.TrimSpace(f.Location)
	f.JobType = JobType(strings.TrimSpace(string(f.JobType)))
	if f.Salary < 0 {
		f.Salary = 0
	}
	return f
}

// JobInput is the create/update payload of the job form
type JobInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	JobType     JobType `json:"job_type"`
	SalaryMin   *int    `json:"salary_min"`
	SalaryMax   *int    `json:"salary_max"`
	Deadline    string  `json:"deadline"`
	CompanyID   int64   `json:"company_id"`
	CategoryID  int64   `json:"category_id"`
}

// Validate checks required fields before anything touches the store
func (in JobInput) Validate() error {
	var missing []string

	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Location) == "" {
		missing = append(missing, "location")
	}
	if in.JobType == "" {
		missing = append(missing, "job_type")
	}
	if strings.TrimSpace(in.Deadline) == "" {
		missing = append(missing, "deadline")
	}
	if in.CompanyID == 0 {
		missing = append(missing, "company_id")
	}
	if in.CategoryID == 0 {
		missing = append(missing, "category_id")
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Message: "missing required fields"}
	}

	if !in.JobType.Valid() {
		return &ValidationError{Fields: []string{"job_type"}, Message: "invalid job type"}
	}

	if _, err := time.Parse(DeadlineLayout, in.Deadline); err != nil {
		return &ValidationError{Fields: []string{"deadline"}, Message: "deadline must be YYYY-MM-DD"}
	}

	return nil
}

// DeadlineDate parses the deadline; call after Validate
func (in JobInput) DeadlineDate() time.Time {
	t, _ := time.Parse(DeadlineLayout, in.Deadline)
	return t
}

type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}
