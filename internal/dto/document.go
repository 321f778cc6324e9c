package dto

import (
	"finocr/internal/models"
)

type UploadedDocument struct {
	TaskID   string `json:"task_id"`
	Filename string `json:"filename"`
}

type UploadResponse struct {
	Message   string             `json:"message"`
	Documents []UploadedDocument `json:"documents"`
}

// TaskStatusResponse is the /tasks/{task_id} body. Status is kept raw because
// the backend reports task-queue state names (PENDING, SUCCESS, ...).
type TaskStatusResponse struct {
	TaskID string             `json:"task_id"`
	Status string             `json:"status"`
	Result *models.TaskResult `json:"result"`
}

type DocumentStatusResponse struct {
	ID           string  `json:"id"`
	TaskID       string  `json:"task_id"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// ExportEnvelope is the JSON export layout of a processed document.
type ExportEnvelope struct {
	Filename        string                  `json:"filename"`
	DocumentType    models.DocumentType     `json:"document_type"`
	Success         bool                    `json:"success"`
	ParsedDocument  []models.ParsedLineItem `json:"parsed_document"`
	UploadTimestamp string                  `json:"upload_timestamp"`
}
