package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Experience struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Description string  `json:"description"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// ExperienceList is stored as a jsonb column
type ExperienceList []Experience

func (l ExperienceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue(l)
}

func (l *ExperienceList) Scan(value interface{}) error {
	return jsonScan(value, l)
}

// EducationList is stored as a jsonb column
type EducationList []Education

func (l EducationList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue(l)
}

func (l *EducationList) Scan(value interface{}) error {
	return jsonScan(value, l)
}

// Profile is 1:1 with a job seeker
type Profile struct {
	UserID      int64          `db:"user_id" json:"user_id"`
	FullName    *string        `db:"full_name" json:"full_name"`
	Title       *string        `db:"title" json:"title"`
	Bio         *string        `db:"bio" json:"bio"`
	Skills      pq.StringArray `db:"skills" json:"skills"`
	Experience  ExperienceList `db:"experience" json:"experience"`
	Education   EducationList  `db:"education" json:"education"`
	Location    *string        `db:"location" json:"location"`
	LinkedInURL *string        `db:"linkedin_url" json:"linkedin_url"`
	GitHubURL   *string        `db:"github_url" json:"github_url"`
	Website     *string        `db:"website" json:"website"`
	ResumeURL   *string        `db:"resume_url" json:"resume_url"`
	ResumeKey   *string        `db:"resume_key" json:"-"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ProfileInput is the editable part of a profile
type ProfileInput struct {
	FullName    *string        `json:"full_name" form:"full_name"`
	Title       *string        `json:"title" form:"title"`
	Bio         *string        `json:"bio" form:"bio"`
	Skills      []string       `json:"skills" form:"skills"`
	Experience  ExperienceList `json:"experience"`
	Education   EducationList  `json:"education"`
	Location    *string        `json:"location" form:"location"`
	LinkedInURL *string        `json:"linkedin_url" form:"linkedin_url"`
	GitHubURL   *string        `json:"github_url" form:"github_url"`
	Website     *string        `json:"website" form:"website"`
}

// ApplyTo copies the input onto a profile, cleaning up the skills list
func (in ProfileInput) ApplyTo(p *Profile) {
	p.FullName = in.FullName
	p.Title = in.Title
	p.Bio = in.Bio
	p.Skills = CleanSkills(in.Skills)
	p.Experience = in.Experience
	p.Education = in.Education
	p.Location = in.Location
	p.LinkedInURL = in.LinkedInURL
	p.GitHubURL = in.GitHubURL
	p.Website = in.Website
}

// CleanSkills splits comma separated entries, trims them and drops blanks
func CleanSkills(raw []string) []string {
	skills := []string{}
	for _, entry := range raw {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}

func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonScan(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}

	return json.Unmarshal(data, dest)
}
