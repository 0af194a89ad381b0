package posts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
)

// Handler handles HTTP requests for posts
type Handler struct {
	service *Service
}

// NewHandler creates a new posts handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreatePost handles POST /posts
func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "must be logged in"})
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
		})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidPost) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
			return
		}
		slog.Error("create post failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, PostResponse{
		Success: true,
		Message: "Post created successfully",
		Data:    post,
	})
}

// GetPost handles GET /posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Post not found"})
			return
		}
		slog.Error("get post failed", "post_id", postID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "Failed to retrieve post"})
		return
	}

	c.JSON(http.StatusOK, PostResponse{Success: true, Data: post})
}

// DeletePost handles DELETE /posts/:id
func (h *Handler) DeletePost(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "must be logged in"})
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	err := h.service.DeletePost(c.Request.Context(), postID, userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, PostResponse{Success: true, Message: "Post deleted successfully"})
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Post not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Success: false, Error: "You can only delete your own posts"})
	default:
		slog.Error("delete post failed", "post_id", postID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "Failed to delete post"})
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "posts-service",
	})
}

func parsePostID(c *gin.Context) (int64, bool) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || postID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid post ID"})
		return 0, false
	}
	return postID, true
}
