package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"civicreport/access"
	"civicreport/session"
	"civicreport/store"
	authUtils "civicreport/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	principalKey = "principal"
	// AuthCookie carries the token for browser clients.
	AuthCookie = "auth_token"
)

// Authenticate resolves the caller into a Principal on every request. A
// missing, invalid, expired or logged-out token leaves the caller anonymous;
// the role always comes from the stored account, never from the token.
func Authenticate(secret string, sessions session.Store, users store.UserStore, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, access.AnonymousPrincipal)

		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := authUtils.ParseToken(tokenString, secret)
		if err != nil {
			logger.WithError(err).Debug("token rejected")
			c.Next()
			return
		}

		owner, err := sessions.Lookup(c.Request.Context(), claims.SessionID)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				logger.WithError(err).Error("session lookup failed")
			}
			c.Next()
			return
		}
		if owner != claims.UserID {
			c.Next()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				logger.WithError(err).Error("load user for session failed")
			}
			c.Next()
			return
		}

		c.Set(principalKey, access.Principal{
			UserID:    user.ID,
			Role:      access.RoleOf(user.Role),
			SessionID: claims.SessionID,
		})
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}

// CurrentPrincipal returns the principal set by Authenticate, or anonymous.
func CurrentPrincipal(c *gin.Context) access.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(access.Principal); ok {
			return p
		}
	}
	return access.AnonymousPrincipal
}

// RequirePage denies the request unless the principal may open page. Denials
// carry no page data, only a pointer back to the public home.
func RequirePage(page access.Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch access.Decide(CurrentPrincipal(c), page) {
		case access.Allow:
			c.Next()
		case access.DenyUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Please sign in to continue",
				"home":  "/",
			})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied",
				"home":  "/",
			})
		}
	}
}
