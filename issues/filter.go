// Package issues holds the pure issue-collection logic shared by the public
// dashboard, the citizen and admin views and the analytics reports: filtering,
// sorting, paging, aggregate statistics and export encoding. Nothing here
// touches the store or the clock; callers pass the evaluation instant.
package issues

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"civicreport/models"

	"golang.org/x/text/cases"
)

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidSort      = errors.New("invalid sort order")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidIssueType = errors.New("invalid issue type")
)

// All disables the status, type and date range filters.
const All = "all"

// SortOrder orders results by creation time.
type SortOrder string

const (
	Newest SortOrder = "newest"
	Oldest SortOrder = "oldest"
)

// DateRange bounds results to issues created on or after a cutoff relative to now.
type DateRange string

const (
	AnyTime   DateRange = "all"
	Today     DateRange = "today"
	LastWeek  DateRange = "week"
	LastMonth DateRange = "month"
	Quarter   DateRange = "quarter"
	LastYear  DateRange = "year"
)

var dateRangeAliases = map[string]DateRange{
	"":        AnyTime,
	"all":     AnyTime,
	"today":   Today,
	"week":    LastWeek,
	"7":       LastWeek,
	"7d":      LastWeek,
	"month":   LastMonth,
	"30":      LastMonth,
	"30d":     LastMonth,
	"quarter": Quarter,
	"90":      Quarter,
	"90d":     Quarter,
	"year":    LastYear,
	"365":     LastYear,
	"365d":    LastYear,
}

// ParseDateRange accepts the dashboard names (today, week, month, year) and the
// analytics day counts (7, 30, 90, 365).
func ParseDateRange(raw string) (DateRange, error) {
	r, ok := dateRangeAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateRange, raw)
	}
	return r, nil
}

// Cutoff returns the earliest creation instant kept by r, and false for AnyTime.
func (r DateRange) Cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case Today:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case LastWeek:
		return now.AddDate(0, 0, -7), true
	case LastMonth:
		return now.AddDate(0, 0, -30), true
	case Quarter:
		return now.AddDate(0, 0, -90), true
	case LastYear:
		return now.AddDate(0, 0, -365), true
	}
	return time.Time{}, false
}

// Criteria selects and orders a subset of issues. Zero values match everything
// and sort newest first.
type Criteria struct {
	Status    string
	IssueType string
	DateRange DateRange
	Search    string
	Sort      SortOrder
}

// ParseCriteria validates raw query values.
func ParseCriteria(status, issueType, dateRange, search, sortBy string) (Criteria, error) {
	c := Criteria{Search: search}

	status = strings.TrimSpace(status)
	if status != "" && status != All && !models.IssueStatus(status).Valid() {
		return c, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	c.Status = status

	issueType = strings.TrimSpace(issueType)
	if issueType != "" && issueType != All && !models.IssueType(issueType).Valid() {
		return c, fmt.Errorf("%w: %q", ErrInvalidIssueType, issueType)
	}
	c.IssueType = issueType

	r, err := ParseDateRange(dateRange)
	if err != nil {
		return c, err
	}
	c.DateRange = r

	switch SortOrder(strings.TrimSpace(sortBy)) {
	case "", Newest:
		c.Sort = Newest
	case Oldest:
		c.Sort = Oldest
	default:
		return c, fmt.Errorf("%w: %q", ErrInvalidSort, sortBy)
	}
	return c, nil
}

// Apply returns a new slice holding the issues of all that satisfy every
// criterion, ordered by creation time. Equal timestamps keep their input order.
func Apply(all []models.Issue, c Criteria, now time.Time) []models.Issue {
	cutoff, hasCutoff := c.DateRange.Cutoff(now)
	query := fold(strings.TrimSpace(c.Search))

	out := make([]models.Issue, 0, len(all))
	for _, issue := range all {
		if c.Status != "" && c.Status != All && string(issue.Status) != c.Status {
			continue
		}
		if c.IssueType != "" && c.IssueType != All && string(issue.IssueType) != c.IssueType {
			continue
		}
		if hasCutoff && issue.CreatedAt.Before(cutoff) {
			continue
		}
		if query != "" && !matches(issue, query) {
			continue
		}
		out = append(out, issue)
	}

	SortByCreated(out, c.Sort)
	return out
}

// SortByCreated stable-sorts list in place.
func SortByCreated(list []models.Issue, order SortOrder) {
	if order == Oldest {
		sort.SliceStable(list, func(a, b int) bool {
			return list[a].CreatedAt.Before(list[b].CreatedAt)
		})
		return
	}
	sort.SliceStable(list, func(a, b int) bool {
		return list[a].CreatedAt.After(list[b].CreatedAt)
	})
}

func matches(issue models.Issue, query string) bool {
	fields := []string{
		issue.Description,
		issue.ID.Hex(),
		issue.Address(),
		string(issue.IssueType),
	}
	for _, field := range fields {
		if field != "" && strings.Contains(fold(field), query) {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// Page is one window of a filtered list.
type Page struct {
	Items       []models.Issue `json:"issues"`
	TotalIssues int            `json:"total_issues"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
	Limit       int            `json:"limit"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Paginate slices list into 1-based pages. Out of range values fall back to
// the first page and DefaultLimit.
func Paginate(list []models.Issue, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	start := len(list)
	if page-1 <= len(list)/limit {
		start = min((page-1)*limit, len(list))
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}

	return Page{
		Items:       list[start:end],
		TotalIssues: len(list),
		TotalPages:  (len(list) + limit - 1) / limit,
		CurrentPage: page,
		Limit:       limit,
	}
}
