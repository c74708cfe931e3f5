package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"civicreport/issues"
	"civicreport/models"
	"civicreport/session"
	"civicreport/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// storeTimeout bounds every store round trip made while serving a request.
const storeTimeout = 10 * time.Second

// Deps are the collaborators shared by all controllers.
type Deps struct {
	Issues       store.IssueStore
	Users        store.UserStore
	Sessions     session.Store
	Logger       logrus.FieldLogger
	Now          func() time.Time
	JWTSecret    string
	Production   bool
	Domain       string
	StatusPolicy issues.TransitionPolicy
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) log(c *gin.Context) *logrus.Entry {
	entry := d.Logger.WithField("path", c.FullPath())
	if id, ok := c.Get("request_id"); ok {
		entry = entry.WithField("request_id", id)
	}
	return entry
}

func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

func issueIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return primitive.NilObjectID, false
	}
	return issueID, true
}

// respondStoreError maps store failures to responses. Unknown failures are
// logged and reported without detail.
func (d Deps) respondStoreError(c *gin.Context, err error, notFound, failed string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	d.log(c).WithError(err).Error(failed)
	c.JSON(http.StatusInternalServerError, gin.H{"error": failed})
}

func respondValidation(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
