package controllers

import (
	"net/http"
	"strings"

	"civicreport/middlewares"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Deps
}

func NewUserController(d Deps) *UserController {
	return &UserController{Deps: d}
}

// GetProfile returns the caller's own account.
func (u *UserController) GetProfile(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)

	ctx, cancel := storeContext(c)
	defer cancel()

	user, err := u.Users.GetUser(ctx, principal.UserID)
	if err != nil {
		u.respondStoreError(c, err, "User not found", "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile changes the display name. Email and role are not editable here.
func (u *UserController) UpdateProfile(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)

	var input struct {
		FullName string `json:"full_name" binding:"required,max=100"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name is required"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	user, err := u.Users.UpdateProfile(ctx, principal.UserID, fullName, u.now())
	if err != nil {
		u.respondStoreError(c, err, "User not found", "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
