package routes

import (
	"civicreport/access"
	"civicreport/controllers"
	"civicreport/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the public and citizen issue routes
func IssueRoutes(r *gin.Engine, issues *controllers.IssueController, createLimiter gin.HandlerFunc) {
	group := r.Group("/api/issues")
	{
		group.GET("", middlewares.RequirePage(access.PublicDashboard), issues.GetAllIssues)
		group.GET("/map", middlewares.RequirePage(access.IssueMap), issues.RecentIssues)
		group.GET("/:id", middlewares.RequirePage(access.IssueDetail), issues.GetIssue)
		group.POST("", middlewares.RequirePage(access.ReportIssue), createLimiter, issues.CreateIssue)

		group.PUT("/:id/status", middlewares.RequirePage(access.AdminActionPanel), issues.UpdateIssueStatus)
		group.PUT("/:id/admin-notes", middlewares.RequirePage(access.AdminActionPanel), issues.UpdateIssueAdminNotes)
	}

	r.GET("/api/stats", middlewares.RequirePage(access.PublicDashboard), issues.GetStats)
}
