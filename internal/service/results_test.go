package service

import (
	"encoding/json"
	"testing"

	"finocr/internal/dto"
	"finocr/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedDoc(items ...models.ParsedLineItem) models.Document {
	return models.Document{
		ID:              "doc1",
		TaskID:          "task_123",
		Filename:        "financial_report_2024.pdf",
		UploadTimestamp: "2024-01-20T14:30:00Z",
		Status:          models.StatusCompleted,
		Result: &models.TaskResult{
			Success:        true,
			DocumentType:   models.DocumentTypePDF,
			ParsedDocument: items,
		},
	}
}

var twoItems = []models.ParsedLineItem{
	{Date: "2024-01-15", Name: "Office Supplies", Amount: "$125.50"},
	{Date: "2024-01-16", Name: "Software License", Amount: "$299.99"},
}

func TestSummarize(t *testing.T) {
	summary, err := Summarize(completedDoc(twoItems...))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, "425.49", summary.Total)
	assert.Equal(t, "2024-01-15 - 2024-01-16", summary.DateRange)
}

func TestSummarize_TotalIsOrderIndependent(t *testing.T) {
	items := []models.ParsedLineItem{
		{Amount: "$0.10"}, {Amount: "$0.20"}, {Amount: "1,000.30"}, {Amount: "garbage"},
	}
	reversed := []models.ParsedLineItem{items[3], items[2], items[1], items[0]}

	a, err := Summarize(completedDoc(items...))
	require.NoError(t, err)
	b, err := Summarize(completedDoc(reversed...))
	require.NoError(t, err)

	assert.Equal(t, "1000.60", a.Total)
	assert.Equal(t, a.Total, b.Total)
}

func TestSummarize_EmptyAndUnavailable(t *testing.T) {
	summary, err := Summarize(completedDoc())
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.Total)
	assert.Equal(t, "N/A", summary.DateRange)

	_, err = Summarize(models.Document{Status: models.StatusProcessing})
	assert.ErrorIs(t, err, ErrResultUnavailable)

	failed := completedDoc(twoItems...)
	failed.Result.Success = false
	_, err = Summarize(failed)
	assert.ErrorIs(t, err, ErrResultUnavailable)
}

func TestExportText(t *testing.T) {
	text, err := ExportText(completedDoc(twoItems...))
	require.NoError(t, err)
	assert.Equal(t,
		"Date: 2024-01-15\nName: Office Supplies\nAmount: $125.50\n---\n"+
			"Date: 2024-01-16\nName: Software License\nAmount: $299.99\n---",
		text)
}

func TestExportCSV(t *testing.T) {
	csv, err := ExportCSV(completedDoc(twoItems...))
	require.NoError(t, err)
	assert.Equal(t,
		"Date,Name,Amount\n"+
			`"2024-01-15","Office Supplies","$125.50"`+"\n"+
			`"2024-01-16","Software License","$299.99"`,
		csv)
}

func TestExportJSON_RoundTrips(t *testing.T) {
	doc := completedDoc(twoItems...)
	data, err := ExportJSON(doc)
	require.NoError(t, err)

	var envelope dto.ExportEnvelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, "financial_report_2024.pdf", envelope.Filename)
	assert.Equal(t, models.DocumentTypePDF, envelope.DocumentType)
	assert.True(t, envelope.Success)
	assert.Equal(t, "2024-01-20T14:30:00Z", envelope.UploadTimestamp)
	assert.Equal(t, twoItems, envelope.ParsedDocument)

	assert.Contains(t, string(data), "\n  \"filename\"")
}

func TestClipboardText(t *testing.T) {
	text, err := ClipboardText(completedDoc(twoItems...))
	require.NoError(t, err)
	assert.Equal(t,
		"Date: 2024-01-15, Name: Office Supplies, Amount: $125.50\n"+
			"Date: 2024-01-16, Name: Software License, Amount: $299.99",
		text)
}

func TestExport_Dispatch(t *testing.T) {
	doc := completedDoc(twoItems...)
	for _, format := range []ExportFormat{FormatText, FormatJSON, FormatCSV} {
		data, err := Export(doc, format)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}

	_, err := Export(doc, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = ParseExportFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := ParseExportFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "report.pdf_parsed.json", ExportFilename("report.pdf", FormatJSON))
	assert.Equal(t, "scan.png_parsed.txt", ExportFilename("scan.png", FormatText))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatFileSize(0))
	assert.Equal(t, "500.00 Bytes", FormatFileSize(500))
	assert.Equal(t, "1.50 KB", FormatFileSize(1536))
	assert.Equal(t, "2.50 MB", FormatFileSize(2621440))
}
