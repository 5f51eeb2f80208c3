package postgres

import (
	"errors"
	"fmt"
	"testing"

	"jober/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/gocraft/dbr/v2/dialect"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newStatementStore opens a pool without connecting; statements are only built
func newStatementStore(t *testing.T) *Store {
	t.Helper()

	conn, err := dbr.Open("postgres", "postgres://jober@localhost:5432/jober?sslmode=disable", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &Store{
		conn:   conn,
		sess:   conn.NewSession(nil),
		logger: zap.NewNop(),
	}
}

func buildStmt(t *testing.T, stmt dbr.Builder) (string, []interface{}) {
	t.Helper()

	buf := dbr.NewBuffer()
	require.NoError(t, stmt.Build(dialect.PostgreSQL, buf))

	return buf.String(), buf.Value()
}

// interpolated renders the statement the way it reaches the server
func interpolated(t *testing.T, stmt dbr.Builder) string {
	t.Helper()

	query, values := buildStmt(t, stmt)
	out, err := dbr.InterpolateForDialect(query, values, dialect.PostgreSQL)
	require.NoError(t, err)

	return out
}

func TestCompanyStatsQueriesScopeToCompany(t *testing.T) {
	s := newStatementStore(t)
	total, active, applications := s.companyStatsQueries(7)

	query := interpolated(t, total)
	assert.Contains(t, query, "SELECT COUNT(*) FROM jobs")
	assert.Contains(t, query, "WHERE (company_id = 7)")
	assert.NotContains(t, query, "is_active")

	query = interpolated(t, active)
	assert.Contains(t, query, "FROM jobs")
	assert.Contains(t, query, "company_id = 7 AND is_active = TRUE")

	query = interpolated(t, applications)
	assert.Contains(t, query, "FROM applications a")
	assert.Contains(t, query, `JOIN "jobs" AS "j" ON j.id = a.job_id`)
	assert.Contains(t, query, "WHERE (j.company_id = 7)")
}

func TestApplicationQueriesJoinJobCompanyAndApplicant(t *testing.T) {
	s := newStatementStore(t)

	for name, stmt := range map[string]*dbr.SelectStmt{
		"applicant": s.applicantApplicationsQuery(3),
		"company":   s.companyApplicationsQuery(3),
	} {
		query := interpolated(t, stmt)

		assert.Contains(t, query, `JOIN "jobs" AS "j" ON j.id = a.job_id`, name)
		assert.Contains(t, query, `JOIN "companies" AS "c" ON c.id = j.company_id`, name)
		assert.Contains(t, query, `JOIN "users" AS "u" ON u.id = a.applicant_id`, name)
		assert.Contains(t, query, "c.name AS company_name", name)
		assert.Contains(t, query, "u.email AS applicant_email", name)
		assert.Contains(t, query, "ORDER BY a.created_at DESC", name)
	}
}

func TestCompanyApplicationsScopedByCompanyNotApplicant(t *testing.T) {
	s := newStatementStore(t)

	query, values := buildStmt(t, s.companyApplicationsQuery(9))
	assert.Contains(t, query, "WHERE (c.id = ?)")
	assert.NotContains(t, query, "a.applicant_id = ?")
	assert.Equal(t, []interface{}{int64(9)}, values)

	query, values = buildStmt(t, s.applicantApplicationsQuery(9))
	assert.Contains(t, query, "WHERE (a.applicant_id = ?)")
	assert.NotContains(t, query, "c.id = ?")
	assert.Equal(t, []interface{}{int64(9)}, values)
}

func TestSaveJobIgnoresDuplicates(t *testing.T) {
	s := newStatementStore(t)

	query, values := buildStmt(t, s.saveJobStmt(4, 11))
	assert.Contains(t, query, "INSERT INTO saved_jobs (user_id, job_id, created_at)")
	assert.Contains(t, query, "ON CONFLICT (user_id, job_id) DO NOTHING")
	assert.Equal(t, []interface{}{int64(4), int64(11)}, values)
}

func TestUpsertProfileOverwritesOnConflict(t *testing.T) {
	s := newStatementStore(t)
	key := "resumes/4/cv.pdf"

	query, values := buildStmt(t, s.upsertProfileQuery(&models.Profile{
		UserID:    4,
		FullName:  "Ann Lee",
		ResumeKey: &key,
	}))

	assert.Contains(t, query, "ON CONFLICT (user_id) DO UPDATE SET")
	assert.Contains(t, query, "resume_key   = EXCLUDED.resume_key")
	assert.Contains(t, query, "updated_at   = NOW()")
	assert.Contains(t, query, "RETURNING updated_at")
	require.Len(t, values, 13)
	assert.Equal(t, int64(4), values[0])
	assert.Equal(t, "Ann Lee", values[1])
	assert.Equal(t, &key, values[12])
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "applications_job_id_applicant_id_key"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert application: %w", unique)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
	assert.False(t, isUniqueViolation(nil))
}

func TestAsConflict(t *testing.T) {
	err := asConflict(fmt.Errorf("insert user: %w", &pq.Error{Code: "23505"}))
	assert.ErrorIs(t, err, ErrConflict)

	fk := &pq.Error{Code: "23503"}
	assert.Same(t, fk, asConflict(fk))
	assert.NoError(t, asConflict(nil))
}
