package routes

import (
	"civicreport/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up sign-up, login, logout and identity routes
func AuthRoutes(r *gin.Engine, auth *controllers.AuthController) {
	r.POST("/api/users", auth.RegisterUser)

	group := r.Group("/api/auth")
	{
		group.POST("/register", auth.RegisterUser)
		group.POST("/login", auth.LoginUser)
		group.POST("/logout", auth.LogoutUser)
		group.GET("/me", auth.GetMe)
	}
}
