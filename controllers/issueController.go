package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"civicreport/issues"
	"civicreport/middlewares"
	"civicreport/models"
	"civicreport/store"

	"github.com/gin-gonic/gin"
)

const (
	defaultMapLimit = 100
	maxMapLimit     = 500
	maxAdminNotes   = 5000
)

type IssueController struct {
	Deps
}

func NewIssueController(d Deps) *IssueController {
	return &IssueController{Deps: d}
}

// CreateIssue records a new pending issue owned by the caller.
func (h *IssueController) CreateIssue(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)

	var input models.NewIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	issue, err := h.Issues.CreateIssue(ctx, input.Issue(principal.UserID))
	if err != nil {
		h.log(c).WithError(err).Error("create issue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	middlewares.RecordIssueCreated(string(issue.IssueType))
	h.log(c).WithField("issue_id", issue.ID.Hex()).WithField("issue_type", issue.IssueType).Info("issue reported")
	c.JSON(http.StatusCreated, gin.H{"issue": issue})
}

// criteriaFromQuery reads status, type, date_range, search and sort.
func criteriaFromQuery(c *gin.Context) (issues.Criteria, bool) {
	criteria, err := issues.ParseCriteria(
		c.Query("status"),
		c.Query("type"),
		c.Query("date_range"),
		c.Query("search"),
		c.Query("sort"),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return criteria, false
	}
	return criteria, true
}

func pageFromQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(issues.DefaultLimit)))
	return page, limit
}

// GetAllIssues serves the public dashboard list.
func (h *IssueController) GetAllIssues(c *gin.Context) {
	criteria, ok := criteriaFromQuery(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	all, err := h.Issues.ListIssues(ctx)
	if err != nil {
		h.log(c).WithError(err).Error("list issues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	page, limit := pageFromQuery(c)
	c.JSON(http.StatusOK, gin.H{
		"page":  issues.Paginate(issues.Apply(all, criteria, h.now()), page, limit),
		"total": len(all),
	})
}

// GetIssue returns a single issue.
func (h *IssueController) GetIssue(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	issue, err := h.Issues.GetIssue(ctx, issueID)
	if err != nil {
		h.respondStoreError(c, err, "Issue not found", "Failed to retrieve issue")
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue})
}

// GetIssuesByUser lists the caller's own reports ("my complaints").
func (h *IssueController) GetIssuesByUser(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)

	criteria, ok := criteriaFromQuery(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	mine, err := h.Issues.ListIssuesByUser(ctx, principal.UserID)
	if err != nil {
		h.log(c).WithError(err).Error("list user issues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	now := h.now()
	page, limit := pageFromQuery(c)
	c.JSON(http.StatusOK, gin.H{
		"page":  issues.Paginate(issues.Apply(mine, criteria, now), page, limit),
		"total": len(mine),
		"stats": issues.Summarize(mine, now),
	})
}

// RecentIssues returns map markers for the newest issues.
func (h *IssueController) RecentIssues(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultMapLimit)))
	if err != nil || limit < 1 || limit > maxMapLimit {
		limit = defaultMapLimit
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	all, err := h.Issues.ListIssues(ctx)
	if err != nil {
		h.log(c).WithError(err).Error("list issues for map")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": issues.GeoPoints(all, limit)})
}

// GetStats returns the public summary cards.
func (h *IssueController) GetStats(c *gin.Context) {
	ctx, cancel := storeContext(c)
	defer cancel()

	all, err := h.Issues.ListIssues(ctx)
	if err != nil {
		h.log(c).WithError(err).Error("list issues for stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute statistics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": issues.Summarize(all, h.now())})
}

// GetAdminIssues lists every issue for the admin dashboard.
func (h *IssueController) GetAdminIssues(c *gin.Context) {
	criteria, ok := criteriaFromQuery(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	all, err := h.Issues.ListIssues(ctx)
	if err != nil {
		h.log(c).WithError(err).Error("list issues for admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	now := h.now()
	page, limit := pageFromQuery(c)
	c.JSON(http.StatusOK, gin.H{
		"page":  issues.Paginate(issues.Apply(all, criteria, now), page, limit),
		"total": len(all),
		"stats": issues.Summarize(all, now),
	})
}

// GetAdminIssue returns one issue with the statuses an admin may move it to.
func (h *IssueController) GetAdminIssue(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	issue, err := h.Issues.GetIssue(ctx, issueID)
	if err != nil {
		h.respondStoreError(c, err, "Issue not found", "Failed to retrieve issue")
		return
	}

	next := make([]models.IssueStatus, 0, 2)
	for _, status := range []models.IssueStatus{models.Pending, models.InProgress, models.Resolved} {
		if status != issue.Status && h.StatusPolicy.Check(issue.Status, status) == nil {
			next = append(next, status)
		}
	}

	c.JSON(http.StatusOK, gin.H{"issue": issue, "next_statuses": next})
}

// UpdateIssueStatus moves an issue to a new status. Asking for the current
// status changes nothing and answers 409.
func (h *IssueController) UpdateIssueStatus(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.IssueStatus(input.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	current, err := h.Issues.GetIssue(ctx, issueID)
	if err != nil {
		h.respondStoreError(c, err, "Issue not found", "Failed to retrieve issue")
		return
	}

	if current.Status == status {
		c.JSON(http.StatusConflict, gin.H{"error": "Issue already has this status", "issue": current, "updated": false})
		return
	}

	if err := h.StatusPolicy.Check(current.Status, status); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "issue": current, "updated": false})
		return
	}

	updated, err := h.Issues.UpdateStatus(ctx, issueID, status, h.StatusPolicy.AllowedFrom(status), h.now())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrStatusUnchanged):
			c.JSON(http.StatusConflict, gin.H{"error": "Issue already has this status", "issue": updated, "updated": false})
			return
		case errors.Is(err, store.ErrStatusNotAllowed):
			c.JSON(http.StatusConflict, gin.H{"error": issues.ErrTransitionNotAllowed.Error(), "issue": updated, "updated": false})
			return
		}
		h.respondStoreError(c, err, "Issue not found", "Failed to update issue")
		return
	}

	middlewares.RecordStatusTransition(string(current.Status), string(updated.Status))
	h.log(c).WithField("issue_id", issueID.Hex()).
		WithField("from", current.Status).
		WithField("to", updated.Status).
		WithField("admin_id", middlewares.CurrentPrincipal(c).UserID.Hex()).
		Info("issue status changed")

	c.JSON(http.StatusOK, gin.H{"issue": updated, "updated": true})
}

// UpdateIssueAdminNotes replaces the admin notes on an issue.
func (h *IssueController) UpdateIssueAdminNotes(c *gin.Context) {
	issueID, ok := issueIDParam(c)
	if !ok {
		return
	}

	var input struct {
		AdminNotes *string `json:"admin_notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notes := strings.TrimSpace(*input.AdminNotes)
	if len(notes) > maxAdminNotes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "admin_notes is too long"})
		return
	}

	ctx, cancel := storeContext(c)
	defer cancel()

	updated, err := h.Issues.UpdateAdminNotes(ctx, issueID, notes, h.now())
	if err != nil {
		h.respondStoreError(c, err, "Issue not found", "Failed to update admin notes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"issue": updated})
}
