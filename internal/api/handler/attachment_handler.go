package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmgr/task-manager-api/internal/api/middleware"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// AttachmentHandler serves the per-task file endpoints.
type AttachmentHandler struct {
	attachments ports.AttachmentService
}

func NewAttachmentHandler(attachments ports.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload stores one multipart file under the "file" form field.
func (h *AttachmentHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.NewValidationError([]string{`multipart field "file" is required`})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file upload")
	}
	defer src.Close()

	att, err := h.attachments.Upload(c.Request().Context(), middleware.Actor(c), ports.UploadInput{
		TaskID:      c.Param("id"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        src,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, att)
}

// Download streams the stored bytes back under the original filename.
func (h *AttachmentHandler) Download(c echo.Context) error {
	att, body, err := h.attachments.Download(c.Request().Context(), middleware.Actor(c), c.Param("attachmentId"))
	if err != nil {
		return err
	}
	defer body.Close()

	contentType := att.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", att.OriginalName))
	return c.Stream(http.StatusOK, contentType, body)
}

// List returns the task's attachment metadata.
func (h *AttachmentHandler) List(c echo.Context) error {
	atts, err := h.attachments.ListByTask(c.Request().Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, atts)
}

// Delete removes the attachment and its stored bytes.
func (h *AttachmentHandler) Delete(c echo.Context) error {
	if err := h.attachments.Delete(c.Request().Context(), middleware.Actor(c), c.Param("attachmentId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
