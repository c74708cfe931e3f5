package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"civicreport/issues"
	"civicreport/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type AnalyticsController struct {
	Deps
}

func NewAnalyticsController(d Deps) *AnalyticsController {
	return &AnalyticsController{Deps: d}
}

func periodFromQuery(c *gin.Context) (issues.DateRange, bool) {
	period, err := issues.ParseDateRange(c.DefaultQuery("period", "all"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return period, true
}

// GetIssueAnalytics returns summary, department, monthly, daily and
// geographic analytics for the requested period.
func (a *AnalyticsController) GetIssueAnalytics(c *gin.Context) {
	period, ok := periodFromQuery(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	var (
		all        []models.Issue
		totalUsers int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = a.Issues.ListIssues(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalUsers, err = a.Users.CountUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log(c).WithError(err).Error("load analytics data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analytics"})
		return
	}

	report := issues.BuildAnalytics(all, period, a.now())
	report.TotalUsers = totalUsers
	c.JSON(http.StatusOK, report)
}

// ExportAnalyticsReport downloads the monthly report table as CSV.
func (a *AnalyticsController) ExportAnalyticsReport(c *gin.Context) {
	period, ok := periodFromQuery(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	all, err := a.Issues.ListIssues(ctx)
	if err != nil {
		a.log(c).WithError(err).Error("list issues for report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	now := a.now()
	var buf bytes.Buffer
	if err := issues.WriteMonthlyCSV(&buf, issues.MonthlyReports(issues.FilterByPeriod(all, period, now))); err != nil {
		a.log(c).WithError(err).Error("encode report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=analytics-report-%s.csv", now.Format("2006-01-02")))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ExportIssues downloads the full issue collection as JSON or CSV.
func (a *AnalyticsController) ExportIssues(c *gin.Context) {
	format, err := issues.ParseExportFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	all, err := a.Issues.ListIssues(ctx)
	if err != nil {
		a.log(c).WithError(err).Error("list issues for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export issues"})
		return
	}

	var buf bytes.Buffer
	if err := issues.Export(&buf, format, all); err != nil {
		a.log(c).WithError(err).Error("encode export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export issues"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+format.Filename(a.now()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
