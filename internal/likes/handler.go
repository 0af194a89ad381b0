package likes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photofeed/internal/identity"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

// Like handles POST /:post_id. Only the gateway-verified X-User-ID is accepted.
func (h *Handler) Like(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	like, err := h.svc.Like(c.Request.Context(), userID, postID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, LikeResponse{Success: true, Data: like})
	case errors.Is(err, ErrAlreadyLiked):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "post already liked"})
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "post not found"})
	default:
		slog.Error("like failed", "post_id", postID, "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to like post"})
	}
}

// Unlike handles DELETE /:post_id.
func (h *Handler) Unlike(c *gin.Context) {
	userID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	if _, err := h.svc.Unlike(c.Request.Context(), userID, postID); err != nil {
		slog.Error("unlike failed", "post_id", postID, "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to unlike post"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Check handles GET /:post_id/check?userId=. Read-only, so the query parameter
// is honoured; without it the authenticated viewer is used.
func (h *Handler) Check(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var userID uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid userId"})
			return
		}
		userID = parsed
	} else if viewer, ok := identity.GetUserID(c); ok {
		userID = viewer
	} else {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userId is required"})
		return
	}

	st, err := h.svc.Status(c.Request.Context(), userID, postID)
	if err != nil {
		slog.Error("like check failed", "post_id", postID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to check like"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// Count handles GET /:post_id/count.
func (h *Handler) Count(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	n, err := h.svc.Count(c.Request.Context(), postID)
	if err != nil {
		slog.Error("like count failed", "post_id", postID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to count likes"})
		return
	}
	c.JSON(http.StatusOK, CountResponse{PostID: postID, Count: n})
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "likes-service",
	})
}

func parsePostID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid post id"})
		return 0, false
	}
	return id, true
}
