// Package store is the data-access boundary for issues and user accounts.
package store

import (
	"context"
	"errors"
	"time"

	"civicreport/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -destination=mock_store.go -package=store civicreport/store IssueStore,UserStore

var (
	ErrNotFound        = errors.New("not found")
	ErrStatusUnchanged = errors.New("status unchanged")
	ErrDuplicateEmail  = errors.New("email already registered")
	// ErrStatusNotAllowed means the stored status is outside the allowed
	// origins passed to UpdateStatus.
	ErrStatusNotAllowed = errors.New("status transition not allowed from current status")
)

// IssueStore persists issues. Implementations assign ids and timestamps.
type IssueStore interface {
	CreateIssue(ctx context.Context, issue *models.Issue) (*models.Issue, error)
	// ListIssues returns every issue, newest first.
	ListIssues(ctx context.Context) ([]models.Issue, error)
	ListIssuesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Issue, error)
	GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// UpdateStatus writes only when the stored status differs from status and,
	// if allowedFrom is non-nil, is one of allowedFrom. It returns the stored
	// issue with ErrStatusUnchanged or ErrStatusNotAllowed otherwise.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.IssueStatus, allowedFrom []models.IssueStatus, at time.Time) (*models.Issue, error)
	UpdateAdminNotes(ctx context.Context, id primitive.ObjectID, notes string, at time.Time) (*models.Issue, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName string, at time.Time) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Store bundles both stores, as every backend implements them together.
type Store interface {
	IssueStore
	UserStore
}
