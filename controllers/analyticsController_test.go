package controllers

import (
	"errors"
	"net/http"
	"testing"

	"civicreport/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

func TestGetIssueAnalyticsUserCountFailure(t *testing.T) {
	deps, issueStore, userStore, _ := newTestDeps(t)
	issueStore.EXPECT().ListIssues(gomock.Any()).Return([]models.Issue{}, nil).AnyTimes()
	userStore.EXPECT().CountUsers(gomock.Any()).Return(int64(0), errors.New("timeout"))

	r := gin.New()
	r.GET("/api/admin/analytics", NewAnalyticsController(deps).GetIssueAnalytics)

	w := serve(r, http.MethodGet, "/api/admin/analytics", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetIssueAnalytics(t *testing.T) {
	deps, issueStore, userStore, _ := newTestDeps(t)
	issueStore.EXPECT().ListIssues(gomock.Any()).Return([]models.Issue{
		{ID: primitive.NewObjectID(), IssueType: models.Pothole, Status: models.Pending, CreatedAt: fixedNow},
	}, nil)
	userStore.EXPECT().CountUsers(gomock.Any()).Return(int64(4), nil)

	r := gin.New()
	r.GET("/api/admin/analytics", NewAnalyticsController(deps).GetIssueAnalytics)

	w := serve(r, http.MethodGet, "/api/admin/analytics?period=week", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_users":4`)
	assert.Contains(t, w.Body.String(), `"period":"week"`)
}

func TestExportIssuesStoreFailure(t *testing.T) {
	deps, issueStore, _, _ := newTestDeps(t)
	issueStore.EXPECT().ListIssues(gomock.Any()).Return(nil, errors.New("boom"))

	r := gin.New()
	r.GET("/api/admin/export", NewAnalyticsController(deps).ExportIssues)

	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/api/admin/export?format=csv", "").Code)
}
