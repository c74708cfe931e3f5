package issues

import (
	"math"
	"time"

	"civicreport/models"

	"github.com/montanaflynn/stats"
)

// RecentWindow is the trailing window counted as recent activity.
const RecentWindow = 7 * 24 * time.Hour

// Summary is the aggregate shown on the dashboard cards and the analytics page.
type Summary struct {
	Total                int                      `json:"total"`
	Pending              int                      `json:"pending"`
	InProgress           int                      `json:"in_progress"`
	Resolved             int                      `json:"resolved"`
	ResolutionRate       int                      `json:"resolution_rate"`
	RecentActivity       int                      `json:"recent_activity"`
	AvgResolutionTime    float64                  `json:"avg_resolution_time"`
	MedianResolutionTime float64                  `json:"median_resolution_time"`
	ByType               map[models.IssueType]int `json:"by_type"`
	ByPriority           map[models.Priority]int  `json:"by_priority"`
}

// Summarize aggregates list as of now.
func Summarize(list []models.Issue, now time.Time) Summary {
	s := Summary{
		Total:      len(list),
		ByType:     make(map[models.IssueType]int),
		ByPriority: make(map[models.Priority]int),
	}
	recentCutoff := now.Add(-RecentWindow)

	for _, issue := range list {
		switch issue.Status {
		case models.Pending:
			s.Pending++
		case models.InProgress:
			s.InProgress++
		case models.Resolved:
			s.Resolved++
		}
		if !issue.CreatedAt.Before(recentCutoff) {
			s.RecentActivity++
		}
		s.ByType[issue.IssueType]++
		s.ByPriority[issue.EffectivePriority()]++
	}

	s.ResolutionRate = percent(s.Resolved, s.Total)
	days := resolutionDays(list)
	s.AvgResolutionTime = mean(days)
	s.MedianResolutionTime = median(days)
	return s
}

// percent rounds part/total to a whole percentage, 0 for an empty total.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// resolutionDays lists updated_at - created_at in days for resolved issues.
func resolutionDays(list []models.Issue) stats.Float64Data {
	var days stats.Float64Data
	for _, issue := range list {
		if issue.Status != models.Resolved {
			continue
		}
		days = append(days, issue.UpdatedAt.Sub(issue.CreatedAt).Hours()/24)
	}
	return days
}

func mean(data stats.Float64Data) float64 {
	if data.Len() == 0 {
		return 0
	}
	m, err := data.Mean()
	if err != nil {
		return 0
	}
	return m
}

func median(data stats.Float64Data) float64 {
	if data.Len() == 0 {
		return 0
	}
	m, err := data.Median()
	if err != nil {
		return 0
	}
	return m
}
