package follow

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

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Follow handles POST / with {"followee_id": "..."}.
func (h *Handler) Follow(c *gin.Context) {
	followerID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}

	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return
	}
	followeeID, err := uuid.Parse(req.FolloweeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid followee_id"})
		return
	}

	f, err := h.svc.Follow(c.Request.Context(), followerID, followeeID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, f)
	case errors.Is(err, ErrSelfFollow):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrAlreadyFollowing):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("follow failed", "follower_id", followerID, "followee_id", followeeID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to follow"})
	}
}

// Unfollow handles DELETE /:user_id.
func (h *Handler) Unfollow(c *gin.Context) {
	followerID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}
	followeeID, ok := userParam(c)
	if !ok {
		return
	}

	err := h.svc.Unfollow(c.Request.Context(), followerID, followeeID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, ErrNotFollowing):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("unfollow failed", "follower_id", followerID, "followee_id", followeeID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to unfollow"})
	}
}

func (h *Handler) FollowersCount(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	cnt, err := h.svc.FollowersCount(c.Request.Context(), userID)
	if err != nil {
		slog.Error("followers count failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to count followers"})
		return
	}
	c.JSON(http.StatusOK, CountResponse{UserID: userID, Count: cnt})
}

func (h *Handler) FollowingCount(c *gin.Context) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	cnt, err := h.svc.FollowingCount(c.Request.Context(), userID)
	if err != nil {
		slog.Error("following count failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to count following"})
		return
	}
	c.JSON(http.StatusOK, CountResponse{UserID: userID, Count: cnt})
}

// IsFollowing handles GET /:user_id/following/me: does the caller follow :user_id.
func (h *Handler) IsFollowing(c *gin.Context) {
	followerID, ok := identity.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "must be logged in"})
		return
	}
	followeeID, ok := userParam(c)
	if !ok {
		return
	}

	following, err := h.svc.IsFollowing(c.Request.Context(), followerID, followeeID)
	if err != nil {
		slog.Error("is-following failed", "follower_id", followerID, "followee_id", followeeID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to check follow"})
		return
	}
	c.JSON(http.StatusOK, FollowingResponse{UserID: followeeID, Following: following})
}

func (h *Handler) Followers(c *gin.Context) {
	h.list(c, h.svc.Followers)
}

func (h *Handler) Following(c *gin.Context) {
	h.list(c, h.svc.Following)
}

func (h *Handler) list(c *gin.Context, fetch func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)) {
	userID, ok := userParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	ids, err := fetch(c.Request.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("list follows failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list follows"})
		return
	}
	c.JSON(http.StatusOK, ListResponse{UserID: userID, Users: ids})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "follow-service",
	})
}

func userParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}
