package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadintake_backend/internal/leads/service"
	"leadintake_backend/internal/leads/transport"
	"leadintake_backend/platform/httpkit"
)

// FilesHandler exposes lead attachment endpoints.
type FilesHandler struct {
	svc      *service.Service
	maxBytes int64
}

func NewFilesHandler(svc *service.Service, maxBytes int64) *FilesHandler {
	return &FilesHandler{svc: svc, maxBytes: maxBytes}
}

// Upload accepts a multipart form with a single "file" field.
func (h *FilesHandler) Upload(c *gin.Context) {
	leadID, ok := parseID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "missing file field", nil)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer src.Close()

	file, err := h.svc.UploadFile(c.Request.Context(), service.UploadFileParams{
		LeadID:      leadID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		MaxBytes:    h.maxBytes,
		Reader:      src,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToFileResponse(file))
}

// List returns all attachments for a lead.
func (h *FilesHandler) List(c *gin.Context) {
	leadID, ok := parseID(c)
	if !ok {
		return
	}

	files, err := h.svc.ListFiles(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToFileResponses(files))
}

// Delete removes one attachment.
func (h *FilesHandler) Delete(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteFile(c.Request.Context(), fileID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "file deleted"})
}

// DownloadURL returns a short-lived presigned link for an attachment.
func (h *FilesHandler) DownloadURL(c *gin.Context) {
	fileID, ok := parseFileID(c)
	if !ok {
		return
	}

	url, err := h.svc.FileDownloadURL(c.Request.Context(), fileID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"url": url})
}

func parseFileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid file id", nil)
		return uuid.Nil, false
	}
	return id, true
}
