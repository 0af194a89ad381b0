package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"photofeed/internal/identity"
)

// Lister is what the handler needs from the service.
type Lister interface {
	List(ctx context.Context, q Query) (*Page, error)
}

type Handler struct {
	feed Lister
}

func NewHandler(feed Lister) *Handler {
	return &Handler{feed: feed}
}

// List handles GET /?limit=&cursor=&followedOnly=&sort=&order=
func (h *Handler) List(c *gin.Context) {
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	h.serve(c, q)
}

// ListByUser handles GET /users/:user_id/posts.
func (h *Handler) ListByUser(c *gin.Context) {
	author, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}
	q, ok := parseQuery(c)
	if !ok {
		return
	}
	q.Author = author
	h.serve(c, q)
}

func (h *Handler) serve(c *gin.Context, q Query) {
	page, err := h.feed.List(c.Request.Context(), q)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, page)
	case errors.Is(err, ErrInvalidCursor), errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
	default:
		slog.Error("failed to list feed", "query", q.String(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load feed"})
	}
}

func parseQuery(c *gin.Context) (Query, bool) {
	q := Query{Cursor: c.Query("cursor")}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return Query{}, false
		}
		q.Limit = n
	}

	if raw := c.Query("followedOnly"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid followedOnly"})
			return Query{}, false
		}
		q.FollowedOnly = b
	}

	sort, err := ParseSort(c.Query("sort"), c.Query("order"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return Query{}, false
	}
	q.Sort = sort

	if viewer, ok := identity.GetUserID(c); ok {
		q.Viewer = viewer
	}
	return q, true
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "feed-service",
	})
}
