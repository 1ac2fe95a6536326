package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. Username and email uniqueness is checked
// case-insensitively inside the same transaction as the insert, so two
// concurrent registrations cannot both succeed.
func (r *UserRepository) Create(user *models.User) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("LOWER(username) = ? OR LOWER(email) = ?",
				strings.ToLower(user.Username), strings.ToLower(user.Email)).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrDuplicateKey
		}
		return tx.Create(user).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			return fmt.Errorf("username or email taken: %w", apperrors.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username, case-insensitively.
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("LOWER(username) = ?", strings.ToLower(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", email, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// AddPoints atomically increments a user's points by delta.
func (r *UserRepository) AddPoints(userID uint, delta int) error {
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to add points for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

// SetStreak replaces a user's streak with an absolute value.
func (r *UserRepository) SetStreak(userID uint, streak int) error {
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("streak", streak)
	if res.Error != nil {
		return fmt.Errorf("failed to set streak for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

// SetAvatar replaces a user's avatar URL.
func (r *UserRepository) SetAvatar(userID uint, url string) error {
	res := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("avatar_url", url)
	if res.Error != nil {
		return fmt.Errorf("failed to set avatar for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

// ListByPoints returns users ordered by points descending.
func (r *UserRepository) ListByPoints(limit int) ([]models.User, error) {
	var users []models.User
	q := r.db.Order("points DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users by points: %w", err)
	}
	return users, nil
}
