package models

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Valid only checks membership; any status may move to any other
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

type Application struct {
	ID          int64             `db:"id" json:"id"`
	JobID       int64             `db:"job_id" json:"job_id"`
	ApplicantID int64             `db:"applicant_id" json:"applicant_id"`
	CoverLetter string            `db:"cover_letter" json:"cover_letter"`
	Note        *string           `db:"note" json:"note,omitempty"`
	ResumeURL   string            `db:"resume_url" json:"resume_url"`
	ResumeKey   string            `db:"resume_key" json:"-"`
	Status      ApplicationStatus `db:"status" json:"status"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetails is an application joined with its job, company and applicant
type ApplicationDetails struct {
	Application
	JobTitle       string `db:"job_title" json:"job_title"`
	JobLocation    string `db:"job_location" json:"job_location"`
	CompanyID      int64  `db:"company_id" json:"company_id"`
	CompanyName    string `db:"company_name" json:"company_name"`
	ApplicantName  string `db:"applicant_name" json:"applicant_name"`
	ApplicantEmail string `db:"applicant_email" json:"applicant_email"`
}

// StatusChange is published to the applicant when an employer updates an application
type StatusChange struct {
	ApplicationID int64             `json:"application_id"`
	ApplicantID   int64             `json:"applicant_id"`
	JobID         int64             `json:"job_id"`
	JobTitle      string            `json:"job_title"`
	CompanyName   string            `json:"company_name"`
	Status        ApplicationStatus `json:"status"`
	ChangedAt     time.Time         `json:"changed_at"`
}

type SavedJob struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	JobID       int64     `db:"job_id" json:"job_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	JobTitle    string    `db:"job_title" json:"job_title"`
	JobLocation string    `db:"job_location" json:"job_location"`
	JobType     JobType   `db:"job_type" json:"job_type"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CompanyName string    `db:"company_name" json:"company_name"`
}

type EmployerStats struct {
	TotalJobs    int `json:"total_jobs"`
	ActiveJobs   int `json:"active_jobs"`
	Applications int `json:"applications"`
}
