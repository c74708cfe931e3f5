package routes

import (
	"civicreport/access"
	"civicreport/controllers"
	"civicreport/middlewares"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine, users *controllers.UserController, issues *controllers.IssueController) {
	r.GET("/api/profile", middlewares.RequirePage(access.Profile), users.GetProfile)
	r.PUT("/api/profile", middlewares.RequirePage(access.Profile), users.UpdateProfile)
	r.GET("/api/me/issues", middlewares.RequirePage(access.MyComplaints), issues.GetIssuesByUser)
}
