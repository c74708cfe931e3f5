package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"civicreport/controllers"
	"civicreport/issues"
	"civicreport/middlewares"
	"civicreport/models"
	"civicreport/session"
	"civicreport/store"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Memory
	clock  *clock
}

func newHarness(t *testing.T, dailyLimit int) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	// Tokens are checked against the wall clock, so start in the recent past.
	c := &clock{t: time.Now().Add(-24 * time.Hour).UTC().Truncate(time.Millisecond)}
	st := store.NewMemory(c.Now)

	router := NewRouter(Options{
		Deps: controllers.Deps{
			Issues:       st,
			Users:        st,
			Sessions:     session.NewMemory(c.Now),
			Logger:       logger,
			Now:          c.Now,
			JWTSecret:    "test-secret",
			StatusPolicy: issues.Permissive,
		},
		Counter:     middlewares.NewMemoryCounter(c.Now),
		LimitPrefix: "issue_limit",
		DailyLimit:  dailyLimit,
	})
	return &harness{t: t, router: router, store: st, clock: c}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type authResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

type issueResponse struct {
	Issue   models.Issue `json:"issue"`
	Updated *bool        `json:"updated"`
}

type listResponse struct {
	Page  issues.Page    `json:"page"`
	Total int            `json:"total"`
	Stats issues.Summary `json:"stats"`
}

func (h *harness) register(email string, role models.Role) authResponse {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/users", "", map[string]string{
		"email":     email,
		"password":  "secret123",
		"full_name": "Test " + email,
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[authResponse](h.t, w)
	if role == models.RoleAdmin {
		h.store.SetRole(resp.User.ID, models.RoleAdmin)
	}
	return resp
}

func (h *harness) report(token string, issueType models.IssueType, description string) models.Issue {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/issues", token, map[string]any{
		"issue_type":  issueType,
		"description": description,
		"latitude":    40.71,
		"longitude":   -74.00,
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[issueResponse](h.t, w).Issue
}

func TestPing(t *testing.T) {
	h := newHarness(t, 10)

	w := h.do(http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestAnonymousAdminDashboardIsDenied(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	w := h.do(http.MethodGet, "/api/admin/issues", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "/", body["home"])
	assert.NotContains(t, body, "page")
	assert.NotContains(t, w.Body.String(), "Main St")
}

func TestCitizenCannotOpenAdminPages(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)

	for _, path := range []string{"/api/admin/issues", "/api/admin/analytics", "/api/admin/export"} {
		w := h.do(http.MethodGet, path, citizen.Token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	id := primitive.NewObjectID().Hex()
	w := h.do(http.MethodPut, "/api/issues/"+id+"/status", citizen.Token, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCitizenCreatesPendingIssue(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)

	issue := h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	assert.Equal(t, models.Pending, issue.Status)
	assert.True(t, issue.CreatedAt.Equal(issue.UpdatedAt))
	assert.Equal(t, citizen.User.ID, issue.UserID)
	assert.Equal(t, models.PriorityMedium, issue.Priority)

	w := h.do(http.MethodGet, "/api/me/issues", citizen.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[listResponse](t, w)
	require.Len(t, mine.Page.Items, 1)
	assert.Equal(t, issue.ID, mine.Page.Items[0].ID)
	assert.Equal(t, 1, mine.Stats.Pending)
}

func TestAnonymousCannotReport(t *testing.T) {
	h := newHarness(t, 10)

	w := h.do(http.MethodPost, "/api/issues", "", map[string]any{"issue_type": "pothole"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateIssueValidation(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)

	w := h.do(http.MethodPost, "/api/issues", citizen.Token, map[string]any{
		"issue_type":  "pothole",
		"description": "   ",
		"longitude":   -74.00,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "latitude")
	assert.Contains(t, body.Fields, "description")
}

func TestAdminStatusUpdate(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	admin := h.register("admin@example.com", models.RoleAdmin)
	issue := h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	h.clock.Advance(time.Minute)
	w := h.do(http.MethodPut, "/api/issues/"+issue.ID.Hex()+"/status", admin.Token, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resolved := decode[issueResponse](t, w)
	assert.Equal(t, models.Resolved, resolved.Issue.Status)
	assert.True(t, resolved.Issue.UpdatedAt.After(issue.UpdatedAt))
	require.NotNil(t, resolved.Updated)
	assert.True(t, *resolved.Updated)

	h.clock.Advance(time.Minute)
	w = h.do(http.MethodPut, "/api/issues/"+issue.ID.Hex()+"/status", admin.Token, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusConflict, w.Code)
	again := decode[issueResponse](t, w)
	require.NotNil(t, again.Updated)
	assert.False(t, *again.Updated)
	assert.True(t, again.Issue.UpdatedAt.Equal(resolved.Issue.UpdatedAt))

	stored, err := h.store.GetIssue(t.Context(), issue.ID)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.Equal(resolved.Issue.UpdatedAt))
}

func TestAdminStatusUpdateRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	admin := h.register("admin@example.com", models.RoleAdmin)
	issue := h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	w := h.do(http.MethodPut, "/api/issues/"+issue.ID.Hex()+"/status", admin.Token, map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/issues/not-an-id/status", admin.Token, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, "/api/issues/"+primitive.NewObjectID().Hex()+"/status", admin.Token, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminNotesAndDetail(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	admin := h.register("admin@example.com", models.RoleAdmin)
	issue := h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	w := h.do(http.MethodPut, "/api/issues/"+issue.ID.Hex()+"/admin-notes", admin.Token, map[string]string{"admin_notes": "  crew booked  "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	noted := decode[issueResponse](t, w)
	require.NotNil(t, noted.Issue.AdminNotes)
	assert.Equal(t, "crew booked", *noted.Issue.AdminNotes)

	w = h.do(http.MethodGet, "/api/admin/issues/"+issue.ID.Hex(), admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[struct {
		Issue        models.Issue         `json:"issue"`
		NextStatuses []models.IssueStatus `json:"next_statuses"`
	}](t, w)
	assert.Equal(t, []models.IssueStatus{models.InProgress, models.Resolved}, detail.NextStatuses)
}

func TestPublicSearch(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	pothole := h.report(citizen.Token, models.Pothole, "Large hole on Main St")
	h.report(citizen.Token, models.Garbage, "Bins not collected")

	w := h.do(http.MethodGet, "/api/issues?search=pothole", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	list := decode[listResponse](t, w)
	require.Len(t, list.Page.Items, 1)
	assert.Equal(t, pothole.ID, list.Page.Items[0].ID)
	assert.Equal(t, 2, list.Total)

	w = h.do(http.MethodGet, "/api/issues?status=closed", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicReadsAndStats(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	issue := h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	w := h.do(http.MethodGet, "/api/issues/"+issue.ID.Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, issue.ID, decode[issueResponse](t, w).Issue.ID)

	w = h.do(http.MethodGet, "/api/issues/map", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	points := decode[struct {
		Points []issues.GeoPoint `json:"points"`
	}](t, w)
	require.Len(t, points.Points, 1)
	assert.Equal(t, issue.ID, points.Points[0].ID)

	w = h.do(http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[struct {
		Stats issues.Summary `json:"stats"`
	}](t, w)
	assert.Equal(t, 1, stats.Stats.Total)
	assert.Equal(t, 1, stats.Stats.RecentActivity)
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/profile", citizen.Token, nil).Code)

	w := h.do(http.MethodPost, "/api/auth/logout", citizen.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "auth_token=")

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/profile", citizen.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", citizen.Token, nil).Code)
}

func TestLoginAndMe(t *testing.T) {
	h := newHarness(t, 10)
	h.register("ana@example.com", models.RoleCitizen)

	w := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ANA@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[authResponse](t, w)
	assert.NotContains(t, w.Body.String(), "secret123")

	w = h.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		User  models.User `json:"user"`
		Pages []string    `json:"pages"`
	}](t, w)
	assert.Equal(t, "ana@example.com", me.User.Email)
	assert.Contains(t, me.Pages, "report_issue")
	assert.NotContains(t, me.Pages, "admin_dashboard")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newHarness(t, 10)
	h.register("ana@example.com", models.RoleCitizen)

	w := h.do(http.MethodPost, "/api/users", "", map[string]string{
		"email":     "ana@example.com",
		"password":  "secret123",
		"full_name": "Ana",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)

	w := h.do(http.MethodPut, "/api/profile", citizen.Token, map[string]string{"full_name": "  Ana Maria "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana Maria", decode[authResponse](t, w).User.FullName)

	w = h.do(http.MethodPut, "/api/profile", citizen.Token, map[string]string{"full_name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevokedAdminRoleIsForbidden(t *testing.T) {
	h := newHarness(t, 10)
	admin := h.register("admin@example.com", models.RoleAdmin)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/admin/issues", admin.Token, nil).Code)

	h.store.SetRole(admin.User.ID, models.RoleCitizen)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/admin/issues", admin.Token, nil).Code)
}

func TestIssueDailyLimit(t *testing.T) {
	h := newHarness(t, 2)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	h.report(citizen.Token, models.Pothole, "one")
	h.report(citizen.Token, models.Pothole, "two")

	w := h.do(http.MethodPost, "/api/issues", citizen.Token, map[string]any{
		"issue_type":  "pothole",
		"description": "three",
		"latitude":    40.71,
		"longitude":   -74.00,
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	h.clock.Advance(24 * time.Hour)
	h.report(citizen.Token, models.Pothole, "next day")
}

func TestIssueDailyLimitIgnoresInvalidReports(t *testing.T) {
	h := newHarness(t, 1)
	citizen := h.register("ana@example.com", models.RoleCitizen)

	for range 3 {
		w := h.do(http.MethodPost, "/api/issues", citizen.Token, map[string]any{"issue_type": "pothole"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	h.report(citizen.Token, models.Pothole, "valid after rejected attempts")

	w := h.do(http.MethodPost, "/api/issues", citizen.Token, map[string]any{
		"issue_type":  "pothole",
		"description": "over the limit",
		"latitude":    40.71,
		"longitude":   -74.00,
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAdminAnalyticsAndExport(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	admin := h.register("admin@example.com", models.RoleAdmin)
	h.report(citizen.Token, models.Pothole, "Large hole on Main St")
	h.report(citizen.Token, models.WaterLeak, "Burst main")

	w := h.do(http.MethodGet, "/api/admin/analytics?period=30", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[issues.Analytics](t, w)
	assert.Equal(t, issues.LastMonth, report.Period)
	assert.EqualValues(t, 2, report.TotalUsers)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Len(t, report.Departments, 6)

	w = h.do(http.MethodGet, "/api/admin/analytics?period=decade", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/admin/analytics/report.csv", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Month,Total Issues")

	w = h.do(http.MethodGet, "/api/admin/export?format=csv", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "issues-export-")
	assert.Contains(t, w.Body.String(), "Burst main")

	w = h.do(http.MethodGet, "/api/admin/export", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Issue](t, w), 2)

	w = h.do(http.MethodGet, "/api/admin/export?format=xml", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPageBeyondRange(t *testing.T) {
	h := newHarness(t, 10)
	citizen := h.register("ana@example.com", models.RoleCitizen)
	admin := h.register("admin@example.com", models.RoleAdmin)
	h.report(citizen.Token, models.Pothole, "Large hole on Main St")

	for _, call := range []struct{ path, token string }{
		{"/api/issues?page=9223372036854775807", ""},
		{"/api/me/issues?page=9223372036854775807", citizen.Token},
		{"/api/admin/issues?page=9223372036854775807&limit=1", admin.Token},
	} {
		w := h.do(http.MethodGet, call.path, call.token, nil)
		require.Equal(t, http.StatusOK, w.Code, call.path)
		list := decode[listResponse](t, w)
		assert.Empty(t, list.Page.Items, call.path)
		assert.Equal(t, 1, list.Page.TotalIssues, call.path)
	}
}
