// Package community provides REST API handlers for sustainability activities
// and the points leaderboard.
package community

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/service/activities"
	"github.com/wastenot/wastenot-backend/internal/service/leaderboard"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// ActivityService interface for activity operations.
type ActivityService interface {
	List(ctx context.Context) ([]models.Activity, error)
	Get(ctx context.Context, activityID uint) (*models.Activity, error)
	Join(ctx context.Context, activityID, userID uint) (*models.ActivityParticipant, error)
	MarkAttended(ctx context.Context, activityID, userID uint) error
}

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
}

// Handler handles community API requests.
type Handler struct {
	activityService    ActivityService
	leaderboardService LeaderboardService
	log                *logger.Logger
}

// NewHandler creates a new community handler.
func NewHandler(activityService *activities.Service, leaderboardService *leaderboard.Service, log *logger.Logger) *Handler {
	return &Handler{
		activityService:    activityService,
		leaderboardService: leaderboardService,
		log:                log,
	}
}

// NewHandlerWithInterfaces creates a new community handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(activityService ActivityService, leaderboardService LeaderboardService, log *logger.Logger) *Handler {
	return &Handler{
		activityService:    activityService,
		leaderboardService: leaderboardService,
		log:                log,
	}
}

type joinRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type attendRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// GetActivities returns all sustainability activities.
// GET /api/v1/activities.
func (h *Handler) GetActivities(c *gin.Context) {
	ctx := context.Background()
	list, err := h.activityService.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list activities")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": list,
		"total":      len(list),
	})
}

// GetActivity returns a single activity.
// GET /api/v1/activities/:id.
func (h *Handler) GetActivity(c *gin.Context) {
	activityID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	activity, err := h.activityService.Get(ctx, activityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Activity not found")
			return
		}
		h.log.Error().Err(err).Uint("activity_id", activityID).Msg("Failed to get activity")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// JoinActivity registers a user for an activity.
// POST /api/v1/activities/:id/join.
func (h *Handler) JoinActivity(c *gin.Context) {
	activityID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	participant, err := h.activityService.Join(ctx, activityID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.errorResponse(c, http.StatusNotFound, "Activity not found")
		case errors.Is(err, apperrors.ErrDuplicateKey):
			h.errorResponse(c, http.StatusConflict, "already registered for this activity")
		default:
			h.log.Error().Err(err).Uint("activity_id", activityID).Msg("Failed to join activity")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to join activity")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"participant": participant})
}

// MarkAttended records attendance and credits the activity's points.
// POST /api/v1/activities/:id/attend.
func (h *Handler) MarkAttended(c *gin.Context) {
	activityID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req attendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	if err := h.activityService.MarkAttended(ctx, activityID, req.UserID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.errorResponse(c, http.StatusNotFound, "Activity or registration not found")
		case errors.Is(err, apperrors.ErrDuplicateKey):
			h.errorResponse(c, http.StatusConflict, "attendance already recorded")
		default:
			h.log.Error().Err(err).Uint("activity_id", activityID).Msg("Failed to record attendance")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to record attendance")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity_id": activityID,
		"user_id":     req.UserID,
		"attended":    true,
	})
}

// GetLeaderboard returns the top users ranked by points.
// GET /api/v1/leaderboard?limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := h.parseLimit(c, leaderboard.DefaultLimit)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	entries, err := h.leaderboardService.Top(ctx, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}
	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}
	if limit > 100 {
		return 0, fmt.Errorf("limit must not exceed 100")
	}
	return limit, nil
}

// parseID extracts a positive integer path parameter.
func (h *Handler) parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	return uint(id), nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
