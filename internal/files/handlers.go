package files

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
	"photofeed/internal/server"
	"photofeed/internal/storage"
)

// Handler handles HTTP requests for files service
type Handler struct {
	service *Service
}

// NewHandler creates a new files handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GenerateUploadURL handles POST /upload-url
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in", Code: "UNAUTHORIZED"})
		return
	}

	var req GenerateUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	response, err := h.service.GenerateUploadURL(c.Request.Context(), userID.String(), &req)
	if err != nil {
		respondError(c, "generate upload url", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GenerateDownloadURL handles POST /download-url
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	var req GenerateDownloadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	response, err := h.service.GenerateDownloadURL(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "generate download url", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// DeleteFile handles DELETE /*key. Keys contain slashes.
func (h *Handler) DeleteFile(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in", Code: "UNAUTHORIZED"})
		return
	}
	fileKey := strings.TrimPrefix(c.Param("key"), "/")

	if err := h.service.DeleteFile(c.Request.Context(), userID.String(), fileKey); err != nil {
		respondError(c, "delete file", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"file_key": fileKey,
	})
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	if err := h.service.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "files-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "files-service",
	})
}

func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UNSUPPORTED_TYPE"})
	case errors.Is(err, ErrTooLarge):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "TOO_LARGE"})
	case errors.Is(err, ErrInvalidKey):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_FILE_KEY"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "FORBIDDEN"})
	default:
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to " + op, Code: "STORAGE_ERROR"})
	}
}

// SetupRouter registers the files routes. Everything but the download URL needs a user.
func SetupRouter(service *Service) *gin.Engine {
	r := server.NewEngine("files-service")
	handler := NewHandler(service)

	r.GET("/health", handler.Health)
	r.POST("/download-url", handler.GenerateDownloadURL)

	authed := r.Group("/")
	authed.Use(identity.AuthMiddleware())
	{
		authed.POST("/upload-url", handler.GenerateUploadURL)
		authed.DELETE("/*key", handler.DeleteFile)
	}
	return r
}
