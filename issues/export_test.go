package issues

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"civicreport/models"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseExportFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())
	assert.Equal(t, "issues-export-2025-03-10.csv", f.Filename(now))

	_, err = ParseExportFormat("xml")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))

	buf.Reset()
	all := sampleIssues()
	require.NoError(t, Export(&buf, FormatJSON, all))

	var decoded []models.Issue
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, len(all))
	assert.Equal(t, all[0].ID, decoded[0].ID)
	assert.Equal(t, all[0].Description, decoded[0].Description)
}

func TestWriteCSV(t *testing.T) {
	issue := newIssue(models.Pothole, models.Pending, "Hole, with comma", time.Hour)
	issue.AdminNotes = ptr("crew booked")

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, []models.Issue{issue}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, issue.ID.Hex(), rows[1][0])
	assert.Equal(t, "Hole, with comma", rows[1][3])
	assert.Equal(t, "40.71", rows[1][5])
	assert.Equal(t, "crew booked", rows[1][10])
	assert.Equal(t, issue.CreatedAt.Format(time.RFC3339), rows[1][11])
}

func TestWriteMonthlyCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyCSV(&buf, []MonthlyReport{{Month: "2025-03", TotalIssues: 2, ResolvedIssues: 1, AvgResolutionTime: 1.5, TotalCost: 225}}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2025-03", "2", "1", "1.50", "225.00"}, rows[1])
}
