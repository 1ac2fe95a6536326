// Package tracking provides REST API handlers for the meal tracking flow:
// registration, login, profiles, the meal schedule, photo submissions and
// earned badges.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/service/meals"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// MealService interface for the meal tracking operations.
type MealService interface {
	Register(ctx context.Context, reg meals.Registration) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID uint, url string) error
	ListMeals(ctx context.Context, userID uint) ([]models.Meal, error)
	ListMealsForDay(ctx context.Context, userID uint, day int) ([]models.Meal, error)
	ListBadges(ctx context.Context, userID uint) ([]models.Badge, error)
	SubmitBeforePhoto(ctx context.Context, mealID uint, image []byte) (*models.Meal, error)
	SubmitAfterPhoto(ctx context.Context, mealID uint, image []byte, override *int) (*models.Meal, error)
}

// Handler handles meal tracking API requests.
type Handler struct {
	mealService   MealService
	maxUploadSize int64
	log           *logger.Logger
}

// NewHandler creates a new tracking handler.
func NewHandler(mealService *meals.Service, maxUploadMB int, log *logger.Logger) *Handler {
	return NewHandlerWithInterfaces(mealService, maxUploadMB, log)
}

// NewHandlerWithInterfaces creates a new tracking handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(mealService MealService, maxUploadMB int, log *logger.Logger) *Handler {
	return &Handler{
		mealService:   mealService,
		maxUploadSize: int64(maxUploadMB) << 20,
		log:           log,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,max=255"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type avatarRequest struct {
	AvatarURL string `json:"avatar_url" binding:"required,url"`
}

// Register creates a user account with the default meal schedule.
// POST /api/v1/users/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	user, err := h.mealService.Register(ctx, meals.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			h.errorResponse(c, http.StatusConflict, "username or email already taken")
			return
		}
		h.log.Error().Err(err).Msg("Failed to register user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login verifies credentials and returns the user profile.
// POST /api/v1/users/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	user, err := h.mealService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetUser returns a user profile with points and streak.
// GET /api/v1/users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	user, err := h.mealService.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateAvatar replaces the user's avatar URL.
// PUT /api/v1/users/:id/avatar.
func (h *Handler) UpdateAvatar(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	if err := h.mealService.UpdateAvatar(ctx, userID, req.AvatarURL); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to update avatar")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": req.AvatarURL})
}

// GetUserBadges returns the badges a user has earned.
// GET /api/v1/users/:id/badges.
func (h *Handler) GetUserBadges(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	badges, err := h.mealService.ListBadges(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"badges":       badges,
		"total_badges": len(badges),
	})
}

// GetMeals returns a user's meal schedule, optionally filtered by day.
// GET /api/v1/users/:id/meals?day=2.
func (h *Handler) GetMeals(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.Background()
	var mealList []models.Meal
	if dayStr := c.Query("day"); dayStr != "" {
		day, err := strconv.Atoi(dayStr)
		if err != nil || day < 1 || day > models.TrackedDays {
			h.errorResponse(c, http.StatusBadRequest,
				fmt.Sprintf("day must be between 1 and %d", models.TrackedDays))
			return
		}
		mealList, err = h.mealService.ListMealsForDay(ctx, userID, day)
		if err != nil {
			h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to list meals for day")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve meals")
			return
		}
	} else {
		mealList, err = h.mealService.ListMeals(ctx, userID)
		if err != nil {
			h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to list meals")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve meals")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"meals":   mealList,
		"total":   len(mealList),
	})
}

// SubmitBeforePhoto uploads the pre-meal photo.
// POST /api/v1/meals/:id/photos/before (multipart field "photo").
func (h *Handler) SubmitBeforePhoto(c *gin.Context) {
	mealID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	image, ok := h.readPhoto(c)
	if !ok {
		return
	}

	ctx := context.Background()
	meal, err := h.mealService.SubmitBeforePhoto(ctx, mealID, image)
	if err != nil {
		h.mealError(c, mealID, "before", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// SubmitAfterPhoto uploads the post-meal photo and completes the meal. An
// optional "waste_percentage" form field overrides the automatic estimate.
// POST /api/v1/meals/:id/photos/after (multipart field "photo").
func (h *Handler) SubmitAfterPhoto(c *gin.Context) {
	mealID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	image, ok := h.readPhoto(c)
	if !ok {
		return
	}

	var override *int
	if raw := c.PostForm("waste_percentage"); raw != "" {
		pct, err := strconv.Atoi(raw)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, "waste_percentage must be an integer")
			return
		}
		override = &pct
	}

	ctx := context.Background()
	meal, err := h.mealService.SubmitAfterPhoto(ctx, mealID, image, override)
	if err != nil {
		h.mealError(c, mealID, "after", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meal": meal})
}

// readPhoto extracts and size-checks the uploaded photo. On failure it has
// already written the error response.
func (h *Handler) readPhoto(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "photo file is required")
		return nil, false
	}
	if fileHeader.Size > h.maxUploadSize {
		h.errorResponse(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("photo exceeds the %d MB limit", h.maxUploadSize>>20))
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "failed to open uploaded photo")
		return nil, false
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "failed to read uploaded photo")
		return nil, false
	}
	if int64(len(image)) > h.maxUploadSize {
		h.errorResponse(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("photo exceeds the %d MB limit", h.maxUploadSize>>20))
		return nil, false
	}
	return image, true
}

// mealError maps photo submission errors to HTTP statuses.
func (h *Handler) mealError(c *gin.Context, mealID uint, phase string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.errorResponse(c, http.StatusNotFound, "Meal not found")
	case errors.Is(err, apperrors.ErrInvalidImage):
		h.errorResponse(c, http.StatusUnprocessableEntity, apperrors.ErrInvalidImage.Error())
	case errors.Is(err, apperrors.ErrMissingPrecondition):
		h.errorResponse(c, http.StatusConflict, apperrors.ErrMissingPrecondition.Error())
	case errors.Is(err, apperrors.ErrMealCompleted):
		h.errorResponse(c, http.StatusConflict, apperrors.ErrMealCompleted.Error())
	default:
		h.log.Error().Err(err).Uint("meal_id", mealID).Str("phase", phase).Msg("Photo submission failed")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to process photo")
	}
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
