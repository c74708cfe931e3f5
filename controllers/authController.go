package controllers

import (
	"errors"
	"net/http"

	"civicreport/access"
	"civicreport/middlewares"
	"civicreport/models"
	"civicreport/store"
	authUtils "civicreport/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthController struct {
	Deps
}

func NewAuthController(d Deps) *AuthController {
	return &AuthController{Deps: d}
}

// RegisterUser creates a citizen account and signs it in.
func (a *AuthController) RegisterUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		FullName string `json:"full_name" binding:"required,max=100"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Email:    input.Email,
		FullName: input.FullName,
		Role:     models.RoleCitizen,
		Password: input.Password,
	}

	if err := user.HashPassword(); err != nil {
		a.log(c).WithError(err).Error("hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	created, err := a.Users.CreateUser(ctx, &user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
			return
		}
		a.log(c).WithError(err).Error("insert user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	token, ok := a.startSession(c, created)
	if !ok {
		return
	}

	a.log(c).WithField("user_id", created.ID.Hex()).Info("citizen registered")
	c.JSON(http.StatusCreated, gin.H{"user": created, "token": token})
}

// LoginUser checks credentials and opens a session.
func (a *AuthController) LoginUser(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	user, err := a.Users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.log(c).WithError(err).Error("load user for login")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.ComparePassword(input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, ok := a.startSession(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (a *AuthController) startSession(c *gin.Context, user *models.User) (string, bool) {
	sessionID := uuid.NewString()
	token, err := authUtils.GenerateToken(user.ID.Hex(), sessionID, a.JWTSecret, a.now())
	if err != nil {
		a.log(c).WithError(err).Error("generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return "", false
	}

	if err := a.Sessions.Create(c.Request.Context(), sessionID, user.ID.Hex(), authUtils.TokenTTL); err != nil {
		a.log(c).WithError(err).Error("store session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return "", false
	}

	a.setAuthCookie(c, token, int(authUtils.TokenTTL.Seconds()))
	return token, true
}

func (a *AuthController) setAuthCookie(c *gin.Context, value string, maxAge int) {
	domain := a.Domain
	sameSite := http.SameSiteLaxMode

	// For production, don't set domain to allow cross-origin cookies
	if a.Production {
		domain = ""
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   domain,
		Secure:   a.Production,
		HttpOnly: true,
		SameSite: sameSite,
	})
}

// GetMe returns the signed-in user and the pages their role may open.
func (a *AuthController) GetMe(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)
	if !principal.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "home": "/"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	user, err := a.Users.GetUser(ctx, principal.UserID)
	if err != nil {
		a.respondStoreError(c, err, "User not found", "Failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"pages": access.Pages(principal.Role),
	})
}

// LogoutUser revokes the session and clears the auth cookie. Logging out
// without a session succeeds as well.
func (a *AuthController) LogoutUser(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)
	if principal.SessionID != "" {
		if err := a.Sessions.Delete(c.Request.Context(), principal.SessionID); err != nil {
			a.log(c).WithError(err).Error("delete session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
	}

	a.setAuthCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
		"pages":   access.Pages(access.Anonymous),
	})
}
