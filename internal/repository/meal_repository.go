package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
)

// MealRepository handles meal-related database operations.
type MealRepository struct {
	db *DB
}

// NewMealRepository creates a new meal repository.
func NewMealRepository(db *DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a new meal.
func (r *MealRepository) Create(meal *models.Meal) error {
	if err := r.db.Create(meal).Error; err != nil {
		return fmt.Errorf("failed to create meal: %w", err)
	}
	return nil
}

// CreateBatch inserts a set of meals in one transaction. Used at registration
// to create the default tracking schedule.
func (r *MealRepository) CreateBatch(meals []models.Meal) error {
	if len(meals) == 0 {
		return nil
	}
	if err := r.db.Create(&meals).Error; err != nil {
		return fmt.Errorf("failed to create meals: %w", err)
	}
	return nil
}

// GetByID retrieves a meal by ID.
func (r *MealRepository) GetByID(id uint) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.First(&meal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("meal %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get meal by id %d: %w", id, err)
	}
	return &meal, nil
}

// ListByUser returns all meals of a user.
func (r *MealRepository) ListByUser(userID uint) ([]models.Meal, error) {
	var meals []models.Meal
	err := r.db.Where("user_id = ?", userID).Order("day ASC, id ASC").Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meals for user %d: %w", userID, err)
	}
	return meals, nil
}

// ListByUserAndDay returns a user's meals for one tracked day.
func (r *MealRepository) ListByUserAndDay(userID uint, day int) ([]models.Meal, error) {
	var meals []models.Meal
	err := r.db.Where("user_id = ? AND day = ?", userID, day).Order("id ASC").Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meals for user %d day %d: %w", userID, day, err)
	}
	return meals, nil
}

// Update persists a modified meal.
func (r *MealRepository) Update(meal *models.Meal) error {
	if err := r.db.Save(meal).Error; err != nil {
		return fmt.Errorf("failed to update meal %d: %w", meal.ID, err)
	}
	return nil
}

// CompleteMeal persists a completed meal together with its rewards in one
// transaction: the meal row, the points credit, the recomputed streak and,
// when award returns a badge for the new streak, the badge row. A failure
// in any step rolls back the whole completion so it can be retried.
//
// It returns the user's new streak and the badge that was created, if any.
func (r *MealRepository) CompleteMeal(meal *models.Meal, points int, award func(streak int) *models.Badge) (int, *models.Badge, error) {
	var (
		streak int
		badge  *models.Badge
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(meal).Error; err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", meal.UserID).
			UpdateColumn("points", gorm.Expr("points + ?", points))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		var count int64
		if err := tx.Model(&models.Meal{}).
			Where("user_id = ? AND status = ?", meal.UserID, models.MealCompleted).
			Count(&count).Error; err != nil {
			return err
		}
		streak = int(count)

		if err := tx.Model(&models.User{}).
			Where("id = ?", meal.UserID).
			UpdateColumn("streak", streak).Error; err != nil {
			return err
		}

		if badge = award(streak); badge != nil {
			if err := tx.Create(badge).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		badge = nil
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, nil, fmt.Errorf("user %d: %w", meal.UserID, err)
		}
		return 0, nil, fmt.Errorf("failed to complete meal %d: %w", meal.ID, err)
	}
	return streak, badge, nil
}

// CountCompleted returns the number of completed meals of a user. The value
// is the user's streak.
func (r *MealRepository) CountCompleted(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Meal{}).
		Where("user_id = ? AND status = ?", userID, models.MealCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed meals for user %d: %w", userID, err)
	}
	return int(count), nil
}
