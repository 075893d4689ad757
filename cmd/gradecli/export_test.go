package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/programme-lv/grader/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeUploader struct {
	key       string
	mediaType string
	content   []byte
}

func (f *fakeUploader) Upload(ctx context.Context, content []byte, key string, mediaType string) (string, error) {
	f.key, f.mediaType, f.content = key, mediaType, content
	return "https://bucket.example/" + key, nil
}

func sampleReport() *report.Report {
	return &report.Report{
		Domain:      "pdf",
		Assignments: []string{"第1回"},
		Enrolled: []report.StudentRow{{
			StudentID: "B1", DisplayName: "Alice", Order: 0,
			Scores: []float64{52.5}, Statuses: []string{"○"}, Tags: []string{"遅"}, Indexes: []int{0},
			Average: 52.5, Letter: "D",
		}},
		Unlisted: []report.StudentRow{{
			StudentID: "B9", DisplayName: "Eve", Order: -1,
			Scores: []float64{0}, Statuses: []string{"×"}, Tags: []string{"×"}, Indexes: []int{-1},
			Average: 0, Letter: "D",
		}},
		Distribution: []report.GradeCount{
			{Letter: "S"}, {Letter: "A"}, {Letter: "B"}, {Letter: "C"},
			{Letter: "D", Count: 1, Percent: 100},
		},
	}
}

func TestExportReportToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")
	location, err := exportReport(context.Background(), sampleReport(), out, "reports/", nil)
	require.NoError(t, err)
	assert.Equal(t, out, location)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "enrolled")
}

func TestExportReportUploads(t *testing.T) {
	up := &fakeUploader{}
	location, err := exportReport(context.Background(), sampleReport(), "unused.xlsx", "reports/", up)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.key, "reports/pdf-"))
	assert.True(t, strings.HasSuffix(up.key, ".xlsx"))
	assert.Equal(t, xlsxMediaType, up.mediaType)
	assert.Equal(t, "https://bucket.example/"+up.key, location)

	f, err := excelize.OpenReader(bytes.NewReader(up.content))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "distribution")
}

func TestRenderReport(t *testing.T) {
	out := renderReport(sampleReport())
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "52.5 ○遅")
	assert.Contains(t, out, "Not on the roster")
	assert.Contains(t, out, "Eve")
	assert.Contains(t, out, "100")
}
