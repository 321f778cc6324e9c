package models

import (
	"strings"
)

type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// IsTerminal reports whether no further transitions can happen.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Rank orders statuses along uploading -> queued -> processing -> terminal.
// Unknown statuses rank lowest.
func (s DocumentStatus) Rank() int {
	switch s {
	case StatusUploading:
		return 1
	case StatusQueued:
		return 2
	case StatusProcessing:
		return 3
	case StatusCompleted, StatusFailed:
		return 4
	default:
		return 0
	}
}

// ParseDocumentStatus accepts both document statuses and the task-queue
// state names the backend reports on /tasks/{id}.
func ParseDocumentStatus(raw string) (DocumentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "UPLOADING":
		return StatusUploading, true
	case "QUEUED", "PENDING":
		return StatusQueued, true
	case "PROCESSING", "RECEIVED", "STARTED", "RETRY", "PROGRESS":
		return StatusProcessing, true
	case "COMPLETED", "SUCCESS":
		return StatusCompleted, true
	case "FAILED", "FAILURE", "REVOKED":
		return StatusFailed, true
	default:
		return "", false
	}
}

type DocumentType string

const (
	DocumentTypeImage DocumentType = "image"
	DocumentTypePDF   DocumentType = "pdf"
)

type TaskResult struct {
	Success        bool             `json:"success"`
	DocumentType   DocumentType     `json:"document_type"`
	ParsedDocument []ParsedLineItem `json:"parsed_document"`
	Error          string           `json:"error,omitempty"`
}

type Document struct {
	ID               string         `json:"id"`
	TaskID           string         `json:"task_id"`
	Filename         string         `json:"filename"`
	UploadTimestamp  string         `json:"upload_timestamp"`
	Status           DocumentStatus `json:"status"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
	Result           *TaskResult    `json:"result"`
	OriginalImageURL *string        `json:"original_image_url,omitempty"`
}

// Normalize enforces that a result is only carried by a completed document.
// A completed task whose result reports failure is turned into a failed
// document carrying the result's error text.
func (d *Document) Normalize() {
	if st, ok := ParseDocumentStatus(string(d.Status)); ok {
		d.Status = st
	}
	if d.Status == StatusCompleted && d.Result != nil && !d.Result.Success {
		d.Status = StatusFailed
		if d.ErrorMessage == nil {
			msg := d.Result.Error
			if msg == "" {
				msg = "Document processing failed"
			}
			d.ErrorMessage = &msg
		}
	}
	if d.Status != StatusCompleted {
		d.Result = nil
	}
}

// Clone returns a deep copy so callers can hand out snapshots.
func (d Document) Clone() Document {
	out := d
	if d.ErrorMessage != nil {
		msg := *d.ErrorMessage
		out.ErrorMessage = &msg
	}
	if d.OriginalImageURL != nil {
		u := *d.OriginalImageURL
		out.OriginalImageURL = &u
	}
	if d.Result != nil {
		r := *d.Result
		r.ParsedDocument = append([]ParsedLineItem(nil), d.Result.ParsedDocument...)
		out.Result = &r
	}
	return out
}

// ItemCount is the number of extracted line items, zero without a result.
func (d Document) ItemCount() int {
	if d.Result == nil {
		return 0
	}
	return len(d.Result.ParsedDocument)
}
