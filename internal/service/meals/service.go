// Package meals orchestrates the meal photo lifecycle: registration with a
// default tracking schedule, photo submission, and the completion transition
// that awards points, streak and badges.
package meals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	prommetrics "github.com/wastenot/wastenot-backend/internal/metrics"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/photostore"
	"github.com/wastenot/wastenot-backend/internal/repository"
	"github.com/wastenot/wastenot-backend/internal/service/rewards"
	"github.com/wastenot/wastenot-backend/internal/service/waste"
	"github.com/wastenot/wastenot-backend/internal/vision"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// UserRepository interface for user operations.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	SetAvatar(userID uint, url string) error
}

// MealRepository interface for meal operations. CompleteMeal persists the
// meal, points, streak and optional badge atomically.
type MealRepository interface {
	CreateBatch(meals []models.Meal) error
	GetByID(id uint) (*models.Meal, error)
	ListByUser(userID uint) ([]models.Meal, error)
	ListByUserAndDay(userID uint, day int) ([]models.Meal, error)
	Update(meal *models.Meal) error
	CompleteMeal(meal *models.Meal, points int, award func(streak int) *models.Badge) (int, *models.Badge, error)
}

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	ListByUser(userID uint) ([]models.Badge, error)
}

// WasteResolver decides the final waste percentage for a completion.
type WasteResolver interface {
	Resolve(ctx context.Context, beforeLocator, afterLocator string, override *int) int
}

// Service is the meal lifecycle controller.
type Service struct {
	users    UserRepository
	meals    MealRepository
	badges   BadgeRepository
	photos   photostore.Store
	vision   vision.Analyzer
	resolver WasteResolver
	log      *logger.Logger

	// mealLocks serializes completion per meal id so concurrent after-photo
	// submissions cannot double-award points or badges.
	mealLocks sync.Map
}

// NewService creates a meal service with concrete repository types.
func NewService(
	users *repository.UserRepository,
	mealsRepo *repository.MealRepository,
	badges *repository.BadgeRepository,
	photos photostore.Store,
	analyzer vision.Analyzer,
	resolver *waste.Resolver,
	log *logger.Logger,
) *Service {
	return &Service{
		users:    users,
		meals:    mealsRepo,
		badges:   badges,
		photos:   photos,
		vision:   analyzer,
		resolver: resolver,
		log:      log,
	}
}

// NewServiceWithInterfaces creates a meal service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	users UserRepository,
	mealsRepo MealRepository,
	badges BadgeRepository,
	photos photostore.Store,
	analyzer vision.Analyzer,
	resolver WasteResolver,
	log *logger.Logger,
) *Service {
	return &Service{
		users:    users,
		meals:    mealsRepo,
		badges:   badges,
		photos:   photos,
		vision:   analyzer,
		resolver: resolver,
		log:      log,
	}
}

// Registration is the input for creating a new user.
type Registration struct {
	Username string
	Email    string
	Password string
	Name     string
}

// Register creates a user and their default meal tracking schedule:
// TrackedDays days of breakfast/lunch/dinner, all pending, starting today.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Name:         reg.Name,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	var schedule []models.Meal
	now := time.Now()
	for day := 1; day <= models.TrackedDays; day++ {
		date := now.AddDate(0, 0, day-1)
		for _, mealType := range models.DefaultMealTypes {
			schedule = append(schedule, models.Meal{
				UserID: user.ID,
				Type:   mealType,
				Date:   date,
				Day:    day,
				Status: models.MealPending,
			})
		}
	}
	if err := s.meals.CreateBatch(schedule); err != nil {
		return nil, fmt.Errorf("failed to create default meals: %w", err)
	}

	s.log.Info().
		Uint("user_id", user.ID).
		Str("username", user.Username).
		Int("meals", len(schedule)).
		Msg("User registered")

	return user, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, apperrors.ErrWrongCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.ErrWrongCredentials
	}
	return user, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(userID)
}

// UpdateAvatar replaces a user's avatar URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID uint, url string) error {
	return s.users.SetAvatar(userID, url)
}

// ListMeals returns all meals of a user.
func (s *Service) ListMeals(ctx context.Context, userID uint) ([]models.Meal, error) {
	return s.meals.ListByUser(userID)
}

// ListMealsForDay returns a user's meals for one tracked day.
func (s *Service) ListMealsForDay(ctx context.Context, userID uint, day int) ([]models.Meal, error) {
	return s.meals.ListByUserAndDay(userID, day)
}

// ListBadges returns the badges a user has earned.
func (s *Service) ListBadges(ctx context.Context, userID uint) ([]models.Badge, error) {
	return s.badges.ListByUser(userID)
}

// SubmitBeforePhoto attaches the pre-meal photo. The image must pass the
// food-presence check before anything is persisted; a rejected image is
// never stored.
func (s *Service) SubmitBeforePhoto(ctx context.Context, mealID uint, image []byte) (*models.Meal, error) {
	unlock := s.lockMeal(mealID)
	defer unlock()

	meal, err := s.meals.GetByID(mealID)
	if err != nil {
		return nil, err
	}
	if meal.Status == models.MealCompleted {
		return nil, apperrors.ErrMealCompleted
	}

	if err := s.checkFood(ctx, image, "before"); err != nil {
		return nil, err
	}

	locator, err := s.photos.Save(ctx, image, ".jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to store before photo: %w", err)
	}

	if err := meal.AttachBeforePhoto(locator); err != nil {
		s.discard(ctx, locator)
		return nil, err
	}
	if err := s.meals.Update(meal); err != nil {
		s.discard(ctx, locator)
		return nil, err
	}

	s.log.Info().
		Uint("meal_id", meal.ID).
		Uint("user_id", meal.UserID).
		Msg("Before photo accepted")

	return meal, nil
}

// SubmitAfterPhoto attaches the post-meal photo and completes the meal:
// waste is resolved, points and streak are persisted, and a streak badge is
// appended when a milestone is crossed. Completion is terminal; repeated
// submissions are rejected without mutating anything.
func (s *Service) SubmitAfterPhoto(ctx context.Context, mealID uint, image []byte, override *int) (*models.Meal, error) {
	unlock := s.lockMeal(mealID)
	defer unlock()

	meal, err := s.meals.GetByID(mealID)
	if err != nil {
		return nil, err
	}
	switch meal.Status {
	case models.MealCompleted:
		return nil, apperrors.ErrMealCompleted
	case models.MealPending:
		return nil, apperrors.ErrMissingPrecondition
	}

	if err := s.checkFood(ctx, image, "after"); err != nil {
		return nil, err
	}

	locator, err := s.photos.Save(ctx, image, ".jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to store after photo: %w", err)
	}

	wastePct := s.resolver.Resolve(ctx, meal.BeforePhotoURL, locator, override)
	points := rewards.Points(wastePct)

	if err := meal.Complete(locator, wastePct, points); err != nil {
		s.discard(ctx, locator)
		return nil, err
	}

	streak, awarded, err := s.meals.CompleteMeal(meal, points, func(streak int) *models.Badge {
		level, ok := rewards.Milestone(streak)
		if !ok {
			return nil
		}
		return &models.Badge{
			UserID:   meal.UserID,
			Type:     models.BadgeTypeStreak,
			Level:    level,
			Count:    streak,
			EarnedAt: time.Now(),
		}
	})
	if err != nil {
		s.discard(ctx, locator)
		return nil, err
	}
	if awarded != nil {
		prommetrics.RecordBadgeAwarded(string(awarded.Level))
	}

	prommetrics.RecordMealCompleted(string(meal.Type))
	prommetrics.ObserveCompletion(wastePct, points)

	event := s.log.Info().
		Uint("meal_id", meal.ID).
		Uint("user_id", meal.UserID).
		Int("waste", wastePct).
		Int("points", points).
		Int("streak", streak)
	if awarded != nil {
		event = event.Str("badge_level", string(awarded.Level))
	}
	event.Msg("Meal completed")

	return meal, nil
}

// checkFood runs the food-presence gate. Provider failures and negative
// judgements both reject the upload.
func (s *Service) checkFood(ctx context.Context, image []byte, phase string) error {
	ok, err := s.vision.ContainsFood(ctx, image)
	if err != nil {
		s.log.Warn().Err(err).Str("phase", phase).Msg("Food-presence check unavailable, rejecting upload")
	}
	if !ok {
		prommetrics.RecordPhotoRejected(phase)
		return apperrors.ErrInvalidImage
	}
	return nil
}

// discard removes a stored photo after a failed transition.
func (s *Service) discard(ctx context.Context, locator string) {
	if err := s.photos.Delete(ctx, locator); err != nil {
		s.log.Warn().Err(err).Str("photo", locator).Msg("Failed to discard rejected photo")
	}
}

func (s *Service) lockMeal(mealID uint) func() {
	v, _ := s.mealLocks.LoadOrStore(mealID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
