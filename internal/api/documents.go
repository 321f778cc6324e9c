package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"finocr/internal/dto"
	"finocr/internal/models"
)

// UploadFile is one part of a multipart upload.
type UploadFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadFiles submits a batch as repeated "files" parts.
func (c *Client) UploadFiles(ctx context.Context, files []UploadFile) (*dto.UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Filename)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create part for %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var resp dto.UploadResponse
	err := c.request(ctx, http.MethodPost, "/documents/upload", requestOptions{
		body:            body,
		contentType:     writer.FormDataContentType(),
		fallbackMessage: "Upload failed",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	if err := c.request(ctx, http.MethodGet, "/documents/", requestOptions{}, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Normalize()
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := c.request(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), requestOptions{}, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

func (c *Client) GetDocumentStatus(ctx context.Context, id string) (*dto.DocumentStatusResponse, error) {
	var status dto.DocumentStatusResponse
	endpoint := "/documents/" + url.PathEscape(id) + "/status"
	if err := c.request(ctx, http.MethodGet, endpoint, requestOptions{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusResponse, error) {
	var status dto.TaskStatusResponse
	if err := c.request(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID), requestOptions{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
