package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jober/internal/jobboard"
	"jober/internal/jobboard/jobboardtest"
	"jober/internal/models"
	"jober/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server *Server
	store  *jobboardtest.Store
	cache  *jobboardtest.Cache
}

func newTestEnv(t *testing.T, perMinute int) *testEnv {
	t.Helper()

	store := jobboardtest.NewStore()
	cache := jobboardtest.NewCache()
	resumes := jobboardtest.NewResumes()
	logger := zap.NewNop()

	board := jobboard.NewService(store, cache, cache, resumes, logger)
	sessions := session.NewManager(store, cache, time.Hour, logger)

	server := NewServer(board, sessions, cache, Options{
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: perMinute,
		SessionTTL:         time.Hour,
	}, logger)

	return &testEnv{server: server, store: store, cache: cache}
}

// login opens a session for the user and returns its token
func (e *testEnv) login(user *models.User) string {
	token := fmt.Sprintf("token-%d", user.ID)
	e.cache.Sessions[token] = user.ID
	return token
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	return e.do(method, path, token, body, "application/json")
}

func applyForm(t *testing.T, coverLetter string, resume []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("cover_letter", coverLetter))
	require.NoError(t, mw.WriteField("note", "available from May"))

	if resume != nil {
		fw, err := mw.CreateFormFile("resume", "cv.pdf")
		require.NoError(t, err)
		_, err = fw.Write(resume)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func TestProtectedRoutesRedirectToAuth(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(http.MethodGet, "/jobs", "", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth?from=%2Fjobs", w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/dashboard", "", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth?from=%2Fdashboard", w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/jobs?query=go", "", nil, "")
	assert.Equal(t, "/auth?from=%2Fjobs%3Fquery%3Dgo", w.Header().Get("Location"))

	w = env.do(http.MethodPost, "/jobs/1/save", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/dashboard", "expired-token", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSafeRedirect(t *testing.T) {
	for from, want := range map[string]string{
		"/jobs?category=design": "/jobs?category=design",
		"/dashboard":            "/dashboard",
		"":                      "/",
		"https://evil.com":      "/",
		"//evil.com":            "/",
		`/\evil.com`:            "/",
		`/jobs\..\x`:            "/",
		"/auth?from=/jobs":      "/",
	} {
		assert.Equal(t, want, safeRedirect(from), from)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(http.MethodGet, "/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"page not found"}`, w.Body.String())
}

func TestIndexLinksFollowRole(t *testing.T) {
	env := newTestEnv(t, 100)
	employer, _ := env.store.AddEmployer("boss@acme.io", "Acme")

	var anon struct {
		Role  *string   `json:"role"`
		Links []navLink `json:"links"`
	}
	decode(t, env.do(http.MethodGet, "/", "", nil, ""), &anon)
	assert.Nil(t, anon.Role)
	assert.Contains(t, anon.Links, navLink{Label: "Login / Sign Up", Path: "/auth"})

	var signedIn struct {
		Role  *string   `json:"role"`
		Links []navLink `json:"links"`
	}
	decode(t, env.do(http.MethodGet, "/", env.login(employer), nil, ""), &signedIn)
	require.NotNil(t, signedIn.Role)
	assert.Equal(t, "employer", *signedIn.Role)
	assert.Contains(t, signedIn.Links, navLink{Label: "Post a Job", Path: "/dashboard"})
}

func TestSignUpSessionAndSignOut(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.doJSON(http.MethodPost, "/auth/sign-up?from=/jobs", "", map[string]string{
		"email":     "ann@example.com",
		"password":  "secret1",
		"full_name": "Ann",
		"role":      "job_seeker",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token    string `json:"token"`
		Redirect string `json:"redirect"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "/jobs", resp.Redirect)
	assert.Contains(t, w.Header().Get("Set-Cookie"), sessionCookie+"="+resp.Token)

	var info struct {
		Role    *string `json:"role"`
		Loading bool    `json:"loading"`
	}
	decode(t, env.do(http.MethodGet, "/auth/session", resp.Token, nil, ""), &info)
	require.NotNil(t, info.Role)
	assert.Equal(t, "job_seeker", *info.Role)

	w = env.do(http.MethodGet, "/auth", resp.Token, nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = env.do(http.MethodPost, "/auth/sign-out", resp.Token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	decode(t, env.do(http.MethodGet, "/auth/session", resp.Token, nil, ""), &info)
	assert.Nil(t, info.Role)
}

func TestSignUpRejectsAdminRole(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.doJSON(http.MethodPost, "/auth/sign-up", "", map[string]string{
		"email":     "root@example.com",
		"password":  "secret1",
		"full_name": "Root",
		"role":      "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "role")
}

func TestSignInWrongPassword(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.doJSON(http.MethodPost, "/auth/sign-up", "", map[string]string{
		"email": "ann@example.com", "password": "secret1", "full_name": "Ann", "role": "job_seeker",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.doJSON(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "ann@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doJSON(http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": "ann@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateJobMissingFields(t *testing.T) {
	env := newTestEnv(t, 100)
	employer, company := env.store.AddEmployer("boss@acme.io", "Acme")
	token := env.login(employer)

	before := env.store.Calls["CreateJob"]
	w := env.doJSON(http.MethodPost, "/dashboard/jobs", token, map[string]interface{}{
		"description": "Build services",
		"location":    "Berlin",
		"job_type":    "full_time",
		"company_id":  company.ID,
		"category_id": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	decode(t, w, &resp)
	assert.Equal(t, []string{"title", "deadline"}, resp.Fields)
	assert.Equal(t, before, env.store.Calls["CreateJob"])
}

func TestEmployerJobLifecycle(t *testing.T) {
	env := newTestEnv(t, 100)
	employer, company := env.store.AddEmployer("boss@acme.io", "Acme")
	token := env.login(employer)

	w := env.doJSON(http.MethodPost, "/dashboard/jobs", token, models.JobInput{
		Title:       "Go Developer",
		Description: "Build services",
		Location:    "Berlin",
		JobType:     models.JobTypeFullTime,
		Deadline:    "2030-01-31",
		CompanyID:   company.ID,
		CategoryID:  2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var job models.Job
	decode(t, w, &job)
	assert.Equal(t, "Acme", job.CompanyName)

	w = env.doJSON(http.MethodPatch, fmt.Sprintf("/dashboard/jobs/%d/active", job.ID), token, map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list jobboard.JobList
	decode(t, env.do(http.MethodGet, "/jobs", token, nil, ""), &list)
	assert.Empty(t, list.Jobs)

	w = env.doJSON(http.MethodPatch, fmt.Sprintf("/dashboard/jobs/%d/active", job.ID), token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t, 100)
	seeker := env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	employer, _ := env.store.AddEmployer("boss@acme.io", "Acme")

	w := env.doJSON(http.MethodPost, "/dashboard/jobs", env.login(seeker), map[string]string{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/jobs/1/save", env.login(employer), nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/dashboard/admin/users", env.login(employer), nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApplySaveAndStatusFlow(t *testing.T) {
	env := newTestEnv(t, 100)
	employer, company := env.store.AddEmployer("boss@acme.io", "Acme")
	job := env.store.AddJob(company.ID, "Go Developer", "Berlin", models.JobTypeFullTime, 2)
	seeker := env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	seekerToken := env.login(seeker)
	employerToken := env.login(employer)

	body, ct := applyForm(t, "Hire me", jobboardtest.SamplePDF)
	w := env.do(http.MethodPost, fmt.Sprintf("/jobs/%d/apply", job.ID), seekerToken, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var applied struct {
		Application models.Application `json:"application"`
	}
	decode(t, w, &applied)
	assert.Equal(t, models.ApplicationStatusPending, applied.Application.Status)

	var list jobboard.JobList
	decode(t, env.do(http.MethodGet, "/jobs", seekerToken, nil, ""), &list)
	require.Len(t, list.Jobs, 1)
	assert.True(t, list.Jobs[0].HasApplied)

	body, ct = applyForm(t, "Hire me again", jobboardtest.SamplePDF)
	w = env.do(http.MethodPost, fmt.Sprintf("/jobs/%d/apply", job.ID), seekerToken, body, ct)
	assert.Equal(t, http.StatusConflict, w.Code)

	// save toggles
	var saved struct {
		Saved bool `json:"saved"`
	}
	decode(t, env.do(http.MethodPost, fmt.Sprintf("/jobs/%d/save", job.ID), seekerToken, nil, ""), &saved)
	assert.True(t, saved.Saved)
	decode(t, env.do(http.MethodPost, fmt.Sprintf("/jobs/%d/save", job.ID), seekerToken, nil, ""), &saved)
	assert.False(t, saved.Saved)

	// employer accepts
	w = env.doJSON(http.MethodPatch, fmt.Sprintf("/dashboard/applications/%d/status", applied.Application.ID),
		employerToken, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.ApplicationDetails
	decode(t, w, &updated)
	assert.Equal(t, models.ApplicationStatusAccepted, updated.Status)
	assert.Equal(t, "Ann", updated.ApplicantName)
	assert.Equal(t, 1, env.cache.PublishedCount())

	w = env.doJSON(http.MethodPatch, fmt.Sprintf("/dashboard/applications/%d/status", applied.Application.ID),
		employerToken, map[string]string{"status": "hired"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the seeker dashboard shows the new status
	var dash struct {
		Role      string                   `json:"role"`
		Dashboard jobboard.SeekerDashboard `json:"dashboard"`
	}
	decode(t, env.do(http.MethodGet, "/dashboard", seekerToken, nil, ""), &dash)
	assert.Equal(t, "job_seeker", dash.Role)
	require.Len(t, dash.Dashboard.Applications, 1)
	assert.Equal(t, models.ApplicationStatusAccepted, dash.Dashboard.Applications[0].Status)

	w = env.do(http.MethodDelete, fmt.Sprintf("/dashboard/applications/%d", applied.Application.ID), seekerToken, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestApplyValidation(t *testing.T) {
	env := newTestEnv(t, 100)
	_, company := env.store.AddEmployer("boss@acme.io", "Acme")
	job := env.store.AddJob(company.ID, "Go Developer", "Berlin", models.JobTypeFullTime, 2)
	token := env.login(env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker))
	path := fmt.Sprintf("/jobs/%d/apply", job.ID)

	body, ct := applyForm(t, "Hire me", nil)
	w := env.do(http.MethodPost, path, token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = applyForm(t, "Hire me", []byte("plain text résumé"))
	w = env.do(http.MethodPost, path, token, body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	body, ct = applyForm(t, "", jobboardtest.SamplePDF)
	w = env.do(http.MethodPost, path, token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = applyForm(t, "Hire me", jobboardtest.SamplePDF)
	w = env.do(http.MethodPost, "/jobs/abc/apply", token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchWithoutMatches(t *testing.T) {
	env := newTestEnv(t, 100)
	_, company := env.store.AddEmployer("boss@acme.io", "Acme")
	env.store.AddJob(company.ID, "Go Developer", "Berlin", models.JobTypeFullTime, 2)
	token := env.login(env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker))

	w := env.do(http.MethodGet, "/jobs?query=cobol", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"jobs":[],"message":"No jobs found."}`, w.Body.String())

	w = env.do(http.MethodGet, "/jobs?job_type=freelance", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmployerAndAdminDashboards(t *testing.T) {
	env := newTestEnv(t, 100)
	employer, company := env.store.AddEmployer("boss@acme.io", "Acme")
	job := env.store.AddJob(company.ID, "Go Developer", "Berlin", models.JobTypeFullTime, 2)
	admin := env.store.AddUser("root@jober.dev", "Root", models.RoleAdmin)

	var dash struct {
		Role      string                     `json:"role"`
		Dashboard jobboard.EmployerDashboard `json:"dashboard"`
	}
	decode(t, env.do(http.MethodGet, "/dashboard", env.login(employer), nil, ""), &dash)
	assert.Equal(t, "employer", dash.Role)
	assert.Equal(t, 1, dash.Dashboard.Stats.TotalJobs)

	adminToken := env.login(admin)
	var users jobboard.AdminDashboard
	decode(t, env.do(http.MethodGet, "/dashboard/admin/users", adminToken, nil, ""), &users)
	assert.Len(t, users.Users, 2)

	w := env.do(http.MethodDelete, fmt.Sprintf("/dashboard/admin/users/%d", admin.ID), adminToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/dashboard/admin/jobs/%d", job.ID), adminToken, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, fmt.Sprintf("/dashboard/admin/jobs/%d", job.ID), adminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileJSONUpdate(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.login(env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker))

	w := env.doJSON(http.MethodPut, "/dashboard/profile", token, map[string]interface{}{
		"title":  "Backend engineer",
		"skills": []string{"Go, SQL"},
		"experience": []map[string]string{
			{"title": "Engineer", "company": "Acme", "start_date": "2020-01"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile models.Profile
	decode(t, env.do(http.MethodGet, "/dashboard/profile", token, nil, ""), &profile)
	require.NotNil(t, profile.Title)
	assert.Equal(t, "Backend engineer", *profile.Title)
	assert.Equal(t, []string{"Go", "SQL"}, []string(profile.Skills))
	assert.Len(t, profile.Experience, 1)
}

func TestTelegramLink(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.login(env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker))

	w := env.do(http.MethodPost, "/dashboard/telegram-link", token, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Code    string `json:"code"`
		Command string `json:"command"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "/start "+resp.Code, resp.Command)
	assert.Contains(t, env.cache.LinkCodes, resp.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, 2)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/", "", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/", "", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/", "", nil, "").Code)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t, 100)
	seeker := env.store.AddUser("ann@example.com", "Ann", models.RoleJobSeeker)
	token := env.login(seeker)

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/dashboard/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event:") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			}
		}
	}

	require.Equal(t, "ready", readEvent())

	require.NoError(t, env.cache.PublishStatusChange(ctx, models.StatusChange{
		ApplicationID: 1,
		ApplicantID:   seeker.ID,
		Status:        models.ApplicationStatusRejected,
	}))

	assert.Equal(t, "status", readEvent())
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"status":"rejected"`)
}
