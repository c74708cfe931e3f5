package issues

import (
	"sort"
	"time"

	"civicreport/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterByPeriod keeps issues created inside the analytics period.
func FilterByPeriod(list []models.Issue, period DateRange, now time.Time) []models.Issue {
	return Apply(list, Criteria{DateRange: period}, now)
}

// Department names issues are routed to.
const (
	RoadMaintenance    = "Road Maintenance"
	Sanitation         = "Sanitation"
	Utilities          = "Utilities"
	PublicSafety       = "Public Safety"
	ParksAndRecreation = "Parks & Recreation"
	GeneralServices    = "General Services"
)

var departmentByType = map[models.IssueType]string{
	models.Pothole:          RoadMaintenance,
	models.Garbage:          Sanitation,
	models.Streetlight:      Utilities,
	models.WaterLeak:        Utilities,
	models.BrokenSidewalk:   RoadMaintenance,
	models.TrafficSignal:    PublicSafety,
	models.StreetSign:       PublicSafety,
	models.Drainage:         Utilities,
	models.TreeMaintenance:  ParksAndRecreation,
	models.Graffiti:         PublicSafety,
	models.NoiseComplaint:   PublicSafety,
	models.ParkingViolation: PublicSafety,
	models.OtherIssue:       GeneralServices,
}

// DepartmentFor maps an issue type to the department that handles it.
func DepartmentFor(t models.IssueType) string {
	if d, ok := departmentByType[t]; ok {
		return d
	}
	return GeneralServices
}

type department struct {
	name         string
	costPerIssue float64
}

var departments = []department{
	{RoadMaintenance, 150},
	{Sanitation, 75},
	{Utilities, 200},
	{PublicSafety, 100},
	{ParksAndRecreation, 125},
	{GeneralServices, 100},
}

var costByType = map[models.IssueType]float64{
	models.Pothole:          150,
	models.Garbage:          75,
	models.Streetlight:      200,
	models.WaterLeak:        300,
	models.BrokenSidewalk:   100,
	models.TrafficSignal:    150,
	models.StreetSign:       100,
	models.Drainage:         250,
	models.TreeMaintenance:  125,
	models.Graffiti:         50,
	models.NoiseComplaint:   25,
	models.ParkingViolation: 25,
	models.OtherIssue:       100,
}

// CostFor is the estimated handling cost of one issue of type t.
func CostFor(t models.IssueType) float64 {
	if c, ok := costByType[t]; ok {
		return c
	}
	return 100
}

type DepartmentStat struct {
	Name              string  `json:"name"`
	IssuesAssigned    int     `json:"issues_assigned"`
	Resolved          int     `json:"resolved"`
	ResolutionRate    int     `json:"resolution_rate"`
	AvgResolutionTime float64 `json:"avg_resolution_time"`
	Cost              float64 `json:"cost"`
}

// DepartmentStats reports workload per department, in a fixed department order.
func DepartmentStats(list []models.Issue) []DepartmentStat {
	grouped := make(map[string][]models.Issue, len(departments))
	for _, issue := range list {
		d := DepartmentFor(issue.IssueType)
		grouped[d] = append(grouped[d], issue)
	}

	out := make([]DepartmentStat, 0, len(departments))
	for _, d := range departments {
		assigned := grouped[d.name]
		resolved := 0
		for _, issue := range assigned {
			if issue.Status == models.Resolved {
				resolved++
			}
		}
		out = append(out, DepartmentStat{
			Name:              d.name,
			IssuesAssigned:    len(assigned),
			Resolved:          resolved,
			ResolutionRate:    percent(resolved, len(assigned)),
			AvgResolutionTime: mean(resolutionDays(assigned)),
			Cost:              float64(len(assigned)) * d.costPerIssue,
		})
	}
	return out
}

type MonthlyReport struct {
	Month             string  `json:"month"`
	TotalIssues       int     `json:"total_issues"`
	ResolvedIssues    int     `json:"resolved_issues"`
	AvgResolutionTime float64 `json:"avg_resolution_time"`
	TotalCost         float64 `json:"total_cost"`
}

// MonthlyReports buckets issues by UTC creation month (YYYY-MM), ascending.
func MonthlyReports(list []models.Issue) []MonthlyReport {
	buckets := make(map[string][]models.Issue)
	for _, issue := range list {
		month := issue.CreatedAt.UTC().Format("2006-01")
		buckets[month] = append(buckets[month], issue)
	}

	out := make([]MonthlyReport, 0, len(buckets))
	for month, bucket := range buckets {
		report := MonthlyReport{Month: month, TotalIssues: len(bucket)}
		for _, issue := range bucket {
			if issue.Status == models.Resolved {
				report.ResolvedIssues++
			}
			report.TotalCost += CostFor(issue.IssueType)
		}
		report.AvgResolutionTime = mean(resolutionDays(bucket))
		out = append(out, report)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Month < out[b].Month })
	return out
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyCounts counts issues created on each of the trailing days calendar
// days ending today, oldest first, in now's location.
func DailyCounts(list []models.Issue, now time.Time, days int) []DailyCount {
	if days < 1 {
		return nil
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	out := make([]DailyCount, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-days+1)
		key := day.Format("2006-01-02")
		out[i] = DailyCount{Date: key}
		index[key] = i
	}

	for _, issue := range list {
		key := issue.CreatedAt.In(now.Location()).Format("2006-01-02")
		if i, ok := index[key]; ok {
			out[i].Count++
		}
	}
	return out
}

// GeoPoint is one marker on the public issue map.
type GeoPoint struct {
	ID              primitive.ObjectID `json:"id"`
	Latitude        float64            `json:"latitude"`
	Longitude       float64            `json:"longitude"`
	IssueType       models.IssueType   `json:"issue_type"`
	Status          models.IssueStatus `json:"status"`
	Priority        models.Priority    `json:"priority"`
	LocationAddress string             `json:"location_address,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// GeoPoints returns up to limit map markers, newest first. limit <= 0 means all.
func GeoPoints(list []models.Issue, limit int) []GeoPoint {
	ordered := make([]models.Issue, len(list))
	copy(ordered, list)
	SortByCreated(ordered, Newest)
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	out := make([]GeoPoint, 0, len(ordered))
	for _, issue := range ordered {
		out = append(out, GeoPoint{
			ID:              issue.ID,
			Latitude:        issue.Latitude,
			Longitude:       issue.Longitude,
			IssueType:       issue.IssueType,
			Status:          issue.Status,
			Priority:        issue.EffectivePriority(),
			LocationAddress: issue.Address(),
			CreatedAt:       issue.CreatedAt,
		})
	}
	return out
}

// Analytics is the admin analytics payload for one period.
type Analytics struct {
	Period      DateRange        `json:"period"`
	Summary     Summary          `json:"summary"`
	Departments []DepartmentStat `json:"departments"`
	Monthly     []MonthlyReport  `json:"monthly"`
	Last7Days   []DailyCount     `json:"last_7_days"`
	Geographic  []GeoPoint       `json:"geographic"`
	TotalUsers  int64            `json:"total_users"`
}

// BuildAnalytics computes every analytics section over the issues in period.
func BuildAnalytics(list []models.Issue, period DateRange, now time.Time) Analytics {
	scoped := FilterByPeriod(list, period, now)
	return Analytics{
		Period:      period,
		Summary:     Summarize(scoped, now),
		Departments: DepartmentStats(scoped),
		Monthly:     MonthlyReports(scoped),
		Last7Days:   DailyCounts(list, now, 7),
		Geographic:  GeoPoints(scoped, 0),
	}
}
