package mockapi

import (
	"errors"

	"finocr/internal/dto"
	"finocr/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	backend *Backend
	logger  *zap.Logger
}

func NewDocumentHandler(backend *Backend, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		backend: backend,
		logger:  logger,
	}
}

// UploadDocuments godoc
// @Summary Upload financial documents
// @Description Upload one or more PDFs or images; each becomes a queued OCR task
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Document files (repeatable)"
// @Security Bearer
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /documents/upload [post]
func (h *DocumentHandler) UploadDocuments(c *fiber.Ctx) error {
	user, err := currentUser(c, h.backend)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return message(c, fiber.StatusBadRequest, "Invalid multipart body")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return message(c, fiber.StatusBadRequest, "No files provided")
	}

	files := make([]UploadedFile, len(headers))
	for i, fh := range headers {
		files[i] = UploadedFile{Filename: fh.Filename, Size: fh.Size}
	}

	resp, err := h.backend.Upload(c.UserContext(), user.ID, files)
	if err != nil {
		h.logger.Error("Upload failed", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Upload failed")
	}
	return c.JSON(resp)
}

// ListDocuments godoc
// @Summary List documents
// @Description List the caller's documents, newest first
// @Tags documents
// @Produce json
// @Security Bearer
// @Success 200 {array} models.Document
// @Failure 401 {object} dto.ErrorResponse
// @Router /documents/ [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	user, err := currentUser(c, h.backend)
	if err != nil {
		return err
	}

	docs, err := h.backend.Documents(c.UserContext(), user)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Failed to list documents")
	}
	return c.JSON(docs)
}

// GetDocument godoc
// @Summary Get document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} models.Document
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	user, err := currentUser(c, h.backend)
	if err != nil {
		return err
	}

	doc, err := h.backend.Document(c.UserContext(), user, c.Params("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return message(c, fiber.StatusNotFound, "Document not found")
	}
	if err != nil {
		h.logger.Error("Failed to get document", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Failed to get document")
	}
	return c.JSON(doc)
}

// GetDocumentStatus godoc
// @Summary Get document status
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentStatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /documents/{id}/status [get]
func (h *DocumentHandler) GetDocumentStatus(c *fiber.Ctx) error {
	user, err := currentUser(c, h.backend)
	if err != nil {
		return err
	}

	doc, err := h.backend.Document(c.UserContext(), user, c.Params("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return message(c, fiber.StatusNotFound, "Document not found")
	}
	if err != nil {
		h.logger.Error("Failed to get document status", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Failed to get document status")
	}
	return c.JSON(dto.DocumentStatusResponse{
		ID:           doc.ID,
		TaskID:       doc.TaskID,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
	})
}

// GetTask godoc
// @Summary Get task status
// @Description Task-queue state of an OCR task; the result is set once the task is ready
// @Tags tasks
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} dto.TaskStatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /tasks/{task_id} [get]
func (h *DocumentHandler) GetTask(c *fiber.Ctx) error {
	resp, err := h.backend.TaskStatus(c.UserContext(), c.Params("task_id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return message(c, fiber.StatusNotFound, "Task not found")
	}
	if err != nil {
		h.logger.Error("Failed to get task status", zap.Error(err))
		return message(c, fiber.StatusInternalServerError, "Failed to get task status")
	}
	return c.JSON(resp)
}
