package postgres

import (
	"testing"

	"jober/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/gocraft/dbr/v2/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFilter(t *testing.T, f models.JobFilter) (string, []interface{}) {
	t.Helper()

	stmt := applyJobFilter(dbr.Select("j.id").From("jobs j"), f)

	buf := dbr.NewBuffer()
	require.NoError(t, stmt.Build(dialect.PostgreSQL, buf))

	return buf.String(), buf.Value()
}

func TestApplyJobFilterEmpty(t *testing.T) {
	query, values := buildFilter(t, models.JobFilter{})

	assert.Contains(t, query, "j.is_active = ?")
	assert.NotContains(t, query, "ILIKE")
	assert.Contains(t, query, "ORDER BY j.created_at DESC")
	assert.Equal(t, []interface{}{true}, values)
}

func TestApplyJobFilterAllFields(t *testing.T) {
	query, values := buildFilter(t, models.JobFilter{
		Query:    " golang ",
		Category: "Engineering",
		Location: "Berlin",
		JobType:  models.JobTypeRemote,
		Salary:   50000,
	})

	assert.Contains(t, query, "j.title ILIKE ?")
	assert.Contains(t, query, "cat.name ILIKE ?")
	assert.Contains(t, query, "j.location ILIKE ?")
	assert.Contains(t, query, "j.job_type = ?")
	assert.Contains(t, query, "j.salary_max IS NULL OR j.salary_max >= ?")

	assert.Contains(t, values, "%golang%")
	assert.Contains(t, values, "%Engineering%")
	assert.Contains(t, values, "%Berlin%")
	assert.Contains(t, values, models.JobTypeRemote)
	assert.Contains(t, values, 50000)
}

func TestApplyJobFilterSkipsBlankFields(t *testing.T) {
	query, _ := buildFilter(t, models.JobFilter{Query: "   ", Location: ""})

	assert.NotContains(t, query, "j.title ILIKE")
	assert.NotContains(t, query, "j.location ILIKE")
}
