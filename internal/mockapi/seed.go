package mockapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finocr/internal/models"
	"finocr/internal/repository"
)

const (
	SeedUserID   = "1"
	SeedAdminID  = "2"
	SeedUsername = "testuser"
	SeedEmail    = "test@example.com"
	SeedPassword = "TestPassword123!"

	SeedAdminUsername = "admin"
	SeedAdminEmail    = "admin@example.com"
	SeedAdminPassword = "AdminPassword123!"
)

// Seed loads the demo accounts and documents. Running it twice is harmless.
func (b *Backend) Seed(ctx context.Context) error {
	accounts := []struct {
		id, username, email, password string
		admin                         bool
		registered                    time.Time
	}{
		{SeedUserID, SeedUsername, SeedEmail, SeedPassword, false, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{SeedAdminID, SeedAdminUsername, SeedAdminEmail, SeedAdminPassword, true, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
	}
	for _, a := range accounts {
		_, err := b.createUser(ctx, a.id, a.username, a.email, a.password, a.admin, a.registered)
		if errors.Is(err, repository.ErrUserExists) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", a.username, err)
		}
	}

	failure := "Unable to extract text from image"
	seeded := []models.Document{
		{
			ID:              "doc3",
			TaskID:          "task_125",
			Filename:        "receipt_grocery.jpg",
			UploadTimestamp: "2024-01-18T16:45:00Z",
			Status:          models.StatusFailed,
			ErrorMessage:    &failure,
		},
		{
			ID:              "doc2",
			TaskID:          "task_124",
			Filename:        "invoice_001.png",
			UploadTimestamp: "2024-01-19T11:15:00Z",
			Status:          models.StatusProcessing,
		},
		{
			ID:              "doc1",
			TaskID:          "task_123",
			Filename:        "financial_report_2024.pdf",
			UploadTimestamp: "2024-01-20T14:30:00Z",
			Status:          models.StatusCompleted,
			Result: &models.TaskResult{
				Success:      true,
				DocumentType: models.DocumentTypePDF,
				ParsedDocument: []models.ParsedLineItem{
					{Date: "2024-01-15", Name: "Office Supplies", Amount: "$125.50"},
					{Date: "2024-01-16", Name: "Software License", Amount: "$299.99"},
					{Date: "2024-01-17", Name: "Travel Expenses", Amount: "$450.00"},
				},
			},
		},
	}
	// Create prepends, so insert oldest first.
	for _, doc := range seeded {
		if err := b.docs.Create(ctx, &repository.DocumentRecord{Document: doc, OwnerID: SeedUserID}); err != nil {
			return fmt.Errorf("failed to seed document %s: %w", doc.ID, err)
		}
	}

	b.logger.Info("Mock backend seeded")
	return nil
}
