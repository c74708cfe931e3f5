package issues

import (
	"time"

	"civicreport/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newIssue(t models.IssueType, status models.IssueStatus, desc string, age time.Duration) models.Issue {
	created := now.Add(-age)
	return models.Issue{
		ID:          primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		IssueType:   t,
		Description: desc,
		Latitude:    40.71,
		Longitude:   -74.00,
		Priority:    models.PriorityMedium,
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func resolvedAfter(issue models.Issue, d time.Duration) models.Issue {
	issue.Status = models.Resolved
	issue.UpdatedAt = issue.CreatedAt.Add(d)
	return issue
}

func ids(list []models.Issue) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(list))
	for i, issue := range list {
		out[i] = issue.ID
	}
	return out
}

func sampleIssues() []models.Issue {
	day := 24 * time.Hour
	return []models.Issue{
		newIssue(models.Pothole, models.Pending, "Large hole on Main St", 2*time.Hour),
		newIssue(models.Garbage, models.InProgress, "Bins overflowing behind the market", 3*day),
		resolvedAfter(newIssue(models.Streetlight, models.Pending, "Lamp out near the school", 20*day), 2*day),
		newIssue(models.WaterLeak, models.Pending, "Water pooling at the corner", 60*day),
		resolvedAfter(newIssue(models.Pothole, models.Pending, "Second pothole on Elm", 200*day), 4*day),
	}
}
