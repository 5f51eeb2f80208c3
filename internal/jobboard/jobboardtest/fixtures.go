package jobboardtest

import (
	"bytes"
	"context"
	"time"

	"jober/internal/models"
	"jober/internal/storage/objects"
)

// SamplePDF is the smallest content the PDF sniffer accepts
var SamplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func PDFUpload(name string) objects.Upload {
	return objects.Upload{Filename: name, Size: int64(len(SamplePDF)), Content: bytes.NewReader(SamplePDF)}
}

// AddUser inserts a user directly, bypassing sign-up
func (s *Store) AddUser(email, name string, role models.Role) *models.User {
	u := &models.User{Email: email, FullName: name, Role: role, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// AddEmployer inserts an employer together with their company
func (s *Store) AddEmployer(email, company string) (*models.User, *models.Company) {
	u := s.AddUser(email, company+" owner", models.RoleEmployer)
	c := &models.Company{OwnerID: u.ID, Name: company}
	if err := s.CreateCompany(context.Background(), c); err != nil {
		panic(err)
	}
	return u, c
}

// AddJob inserts an active job for the company
func (s *Store) AddJob(companyID int64, title, location string, jobType models.JobType, categoryID int64) *models.Job {
	j := &models.Job{
		CompanyID:   companyID,
		CategoryID:  categoryID,
		Title:       title,
		Description: title + " description",
		Location:    location,
		JobType:     jobType,
		Deadline:    time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour),
	}
	if err := s.CreateJob(context.Background(), j); err != nil {
		panic(err)
	}
	return j
}

func IntPtr(v int) *int {
	return &v
}
