package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
)

// ActivityRepository handles sustainability activity database operations.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity.
func (r *ActivityRepository) Create(activity *models.Activity) error {
	if err := r.db.Create(activity).Error; err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// List returns all activities ordered by date.
func (r *ActivityRepository) List() ([]models.Activity, error) {
	var activities []models.Activity
	if err := r.db.Order("date ASC").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// GetByID retrieves an activity by ID.
func (r *ActivityRepository) GetByID(id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.First(&activity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("activity %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get activity by id %d: %w", id, err)
	}
	return &activity, nil
}

// AddParticipants atomically increments an activity's participant count.
func (r *ActivityRepository) AddParticipants(id uint, delta int) error {
	res := r.db.Model(&models.Activity{}).
		Where("id = ?", id).
		UpdateColumn("participants_count", gorm.Expr("participants_count + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to update participants for activity %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("activity %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// GetParticipant retrieves a user's registration for an activity.
func (r *ActivityRepository) GetParticipant(userID, activityID uint) (*models.ActivityParticipant, error) {
	var participant models.ActivityParticipant
	err := r.db.Where("user_id = ? AND activity_id = ?", userID, activityID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("participant: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &participant, nil
}

// AddParticipant registers a user for an activity and increments the
// activity's participant count in the same transaction. The unique index on
// (activity_id, user_id) rejects duplicate registrations.
func (r *ActivityRepository) AddParticipant(participant *models.ActivityParticipant) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ActivityParticipant{}).
			Where("user_id = ? AND activity_id = ?", participant.UserID, participant.ActivityID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrDuplicateKey
		}
		if err := tx.Create(participant).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Activity{}).
			Where("id = ?", participant.ActivityID).
			UpdateColumn("participants_count", gorm.Expr("participants_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) || errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// MarkAttended flags a participant as having attended the activity.
func (r *ActivityRepository) MarkAttended(id uint) error {
	res := r.db.Model(&models.ActivityParticipant{}).
		Where("id = ?", id).
		UpdateColumn("attended", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark participant %d attended: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("participant %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
