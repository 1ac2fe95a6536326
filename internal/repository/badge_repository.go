package repository

import (
	"fmt"

	"github.com/wastenot/wastenot-backend/internal/models"
)

// BadgeRepository handles badge-related database operations.
// Badges form an append-only ledger; there are no update or delete paths.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create appends a badge award record.
func (r *BadgeRepository) Create(badge *models.Badge) error {
	if err := r.db.Create(badge).Error; err != nil {
		return fmt.Errorf("failed to create badge: %w", err)
	}
	return nil
}

// ListByUser returns all badges earned by a user, most recent first.
func (r *BadgeRepository) ListByUser(userID uint) ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.Where("user_id = ?", userID).Order("earned_at DESC, id DESC").Find(&badges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list badges for user %d: %w", userID, err)
	}
	return badges, nil
}

// CountByUser returns the number of badges a user has earned.
func (r *BadgeRepository) CountByUser(userID uint) (int, error) {
	var count int64
	err := r.db.Model(&models.Badge{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count badges for user %d: %w", userID, err)
	}
	return int(count), nil
}
