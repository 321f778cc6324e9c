package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"finocr/internal/dto"
	"finocr/internal/models"

	"github.com/shopspring/decimal"
)

type ExportFormat string

const (
	FormatText ExportFormat = "txt"
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Summary is the header block shown above a document's line items.
type Summary struct {
	ItemCount int
	Total     string
	DateRange string
}

// Summarize requires a completed, successful result.
func Summarize(doc models.Document) (Summary, error) {
	items, err := completedItems(doc)
	if err != nil {
		return Summary{}, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.AmountValue())
	}

	dateRange := "N/A"
	if len(items) > 0 {
		dateRange = items[0].Date + " - " + items[len(items)-1].Date
	}

	return Summary{
		ItemCount: len(items),
		Total:     total.StringFixed(2),
		DateRange: dateRange,
	}, nil
}

func completedItems(doc models.Document) ([]models.ParsedLineItem, error) {
	if doc.Status != models.StatusCompleted || doc.Result == nil || !doc.Result.Success {
		return nil, ErrResultUnavailable
	}
	return doc.Result.ParsedDocument, nil
}

// Export renders doc in the given format.
func Export(doc models.Document, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatText:
		s, err := ExportText(doc)
		return []byte(s), err
	case FormatJSON:
		return ExportJSON(doc)
	case FormatCSV:
		s, err := ExportCSV(doc)
		return []byte(s), err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func ExportText(doc models.Document) (string, error) {
	items, err := completedItems(doc)
	if err != nil {
		return "", err
	}
	blocks := make([]string, len(items))
	for i, item := range items {
		blocks[i] = fmt.Sprintf("Date: %s\nName: %s\nAmount: %s\n---", item.Date, item.Name, item.Amount)
	}
	return strings.Join(blocks, "\n"), nil
}

func ExportJSON(doc models.Document) ([]byte, error) {
	items, err := completedItems(doc)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ParsedLineItem{}
	}
	envelope := dto.ExportEnvelope{
		Filename:        doc.Filename,
		DocumentType:    doc.Result.DocumentType,
		Success:         doc.Result.Success,
		ParsedDocument:  items,
		UploadTimestamp: doc.UploadTimestamp,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// ExportCSV writes fields wrapped in quotes as-is. Embedded quotes are not
// escaped, matching what the web client has always produced.
func ExportCSV(doc models.Document) (string, error) {
	items, err := completedItems(doc)
	if err != nil {
		return "", err
	}
	rows := make([]string, len(items))
	for i, item := range items {
		rows[i] = `"` + item.Date + `","` + item.Name + `","` + item.Amount + `"`
	}
	return "Date,Name,Amount\n" + strings.Join(rows, "\n"), nil
}

// ClipboardText is the one-line-per-item form used by the copy action.
func ClipboardText(doc models.Document) (string, error) {
	items, err := completedItems(doc)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("Date: %s, Name: %s, Amount: %s", item.Date, item.Name, item.Amount)
	}
	return strings.Join(lines, "\n"), nil
}

// ExportFilename names a download after the source document.
func ExportFilename(filename string, format ExportFormat) string {
	return filename + "_parsed." + string(format)
}

// FormatFileSize renders a byte count in 1024-based units with two decimals.
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", value, units[i])
}
