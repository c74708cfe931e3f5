package routes

import (
	"civicreport/access"
	"civicreport/controllers"
	"civicreport/middlewares"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin dashboard, analytics and export routes. Every
// route checks the role itself; hiding links in the client is not enough.
func AdminRoutes(r *gin.Engine, issues *controllers.IssueController, analytics *controllers.AnalyticsController) {
	admin := r.Group("/api/admin")
	{
		admin.GET("/issues", middlewares.RequirePage(access.AdminDashboard), issues.GetAdminIssues)
		admin.GET("/issues/:id", middlewares.RequirePage(access.AdminIssueDetail), issues.GetAdminIssue)
		admin.GET("/analytics", middlewares.RequirePage(access.Analytics), analytics.GetIssueAnalytics)
		admin.GET("/analytics/report.csv", middlewares.RequirePage(access.Analytics), analytics.ExportAnalyticsReport)
		admin.GET("/export", middlewares.RequirePage(access.Export), analytics.ExportIssues)
	}
}
