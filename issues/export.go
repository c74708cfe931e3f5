package issues

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"civicreport/models"

	json "github.com/goccy/go-json"
)

// ExportFormat is a downloadable rendering of the issue collection.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(raw) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q, use json or csv", raw)
}

// ContentType is the MIME type served for f.
func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Filename is the attachment name for an export taken on day.
func (f ExportFormat) Filename(day time.Time) string {
	return fmt.Sprintf("issues-export-%s.%s", day.Format("2006-01-02"), f)
}

// Export writes list to w in format f.
func Export(w io.Writer, f ExportFormat, list []models.Issue) error {
	if f == FormatCSV {
		return WriteCSV(w, list)
	}
	return WriteJSON(w, list)
}

// WriteJSON writes list as an indented JSON array.
func WriteJSON(w io.Writer, list []models.Issue) error {
	if list == nil {
		list = []models.Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

var csvHeader = []string{
	"id", "user_id", "issue_type", "description", "photo_url", "latitude",
	"longitude", "location_address", "priority", "status", "admin_notes",
	"created_at", "updated_at",
}

// WriteCSV writes one row per issue with a header row.
func WriteCSV(w io.Writer, list []models.Issue) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, issue := range list {
		row := []string{
			issue.ID.Hex(),
			issue.UserID.Hex(),
			string(issue.IssueType),
			issue.Description,
			deref(issue.PhotoURL),
			strconv.FormatFloat(issue.Latitude, 'f', -1, 64),
			strconv.FormatFloat(issue.Longitude, 'f', -1, 64),
			issue.Address(),
			string(issue.EffectivePriority()),
			string(issue.Status),
			deref(issue.AdminNotes),
			issue.CreatedAt.UTC().Format(time.RFC3339),
			issue.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMonthlyCSV writes the analytics monthly report table.
func WriteMonthlyCSV(w io.Writer, reports []MonthlyReport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Month", "Total Issues", "Resolved Issues", "Avg Resolution Time (days)", "Total Cost"}); err != nil {
		return err
	}
	for _, r := range reports {
		row := []string{
			r.Month,
			strconv.Itoa(r.TotalIssues),
			strconv.Itoa(r.ResolvedIssues),
			strconv.FormatFloat(r.AvgResolutionTime, 'f', 2, 64),
			strconv.FormatFloat(r.TotalCost, 'f', 2, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
