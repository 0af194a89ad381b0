package comments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"photofeed/internal/identity"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

// POST /
// Create comment
func (h *Handler) Create(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}

	comment, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, "create comment", err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// PATCH /:id
func (h *Handler) Update(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}

	comment, err := h.svc.Update(c.Request.Context(), userID, id, req.Body)
	if err != nil {
		respondError(c, "update comment", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DELETE /:id
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	n, err := h.svc.Delete(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, "delete comment", err)
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Success: true, Deleted: n})
}

// GET /post/:post_id
func (h *Handler) List(c *gin.Context) {
	postID, ok := parseID(c, "post_id")
	if !ok {
		return
	}

	thread, n, err := h.svc.Thread(c.Request.Context(), postID)
	if err != nil {
		respondError(c, "list comments", err)
		return
	}
	c.JSON(http.StatusOK, ThreadResponse{PostID: postID, Count: n, Comments: thread})
}

// GET /post/:post_id/count
func (h *Handler) Count(c *gin.Context) {
	postID, ok := parseID(c, "post_id")
	if !ok {
		return
	}

	n, err := h.svc.Count(c.Request.Context(), postID)
	if err != nil {
		respondError(c, "count comments", err)
		return
	}
	c.JSON(http.StatusOK, CountResponse{PostID: postID, Count: n})
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "comments-service",
	})
}

func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrParentMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	default:
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to " + op})
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}
