package models

import (
	"time"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
)

// MealType identifies which meal of the day an entry tracks.
type MealType string

// Meal types.
const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// DefaultMealTypes is the set of meals created per tracked day at registration.
var DefaultMealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

// MealStatus is the lifecycle state of a meal entry.
//
// A meal starts pending, moves to has_before once its before-photo is
// accepted, and becomes completed once the after-photo is accepted. The
// progression is one-way.
type MealStatus string

// Meal lifecycle states.
const (
	MealPending   MealStatus = "pending"
	MealHasBefore MealStatus = "has_before"
	MealCompleted MealStatus = "completed"
)

// TrackedDays is the number of days of meals created at registration.
const TrackedDays = 5

// Meal represents a single tracked meal of a user.
type Meal struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Type            MealType   `gorm:"not null;size:20" json:"type"`
	Date            time.Time  `gorm:"not null" json:"date"`
	Day             int        `gorm:"not null" json:"day"` // 1..TrackedDays
	BeforePhotoURL  string     `gorm:"size:512" json:"before_photo_url,omitempty"`
	AfterPhotoURL   string     `gorm:"size:512" json:"after_photo_url,omitempty"`
	Status          MealStatus `gorm:"not null;size:20;default:pending" json:"status"`
	WastePercentage *int       `json:"waste_percentage,omitempty"`
	PointsEarned    int        `gorm:"not null;default:0" json:"points_earned"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Meal model.
func (Meal) TableName() string {
	return "meals"
}

// AttachBeforePhoto records the before-photo location. Valid from the pending
// and has_before states; a re-submitted before-photo simply replaces the
// previous one as long as the meal is not completed.
func (m *Meal) AttachBeforePhoto(url string) error {
	if m.Status == MealCompleted {
		return apperrors.ErrMealCompleted
	}
	m.BeforePhotoURL = url
	m.Status = MealHasBefore
	return nil
}

// Complete finalizes the meal with its after-photo, resolved waste percentage
// and the points awarded for it. Valid only from the has_before state.
func (m *Meal) Complete(afterURL string, wastePercentage, pointsEarned int) error {
	switch m.Status {
	case MealCompleted:
		return apperrors.ErrMealCompleted
	case MealPending:
		return apperrors.ErrMissingPrecondition
	}
	m.AfterPhotoURL = afterURL
	m.WastePercentage = &wastePercentage
	m.PointsEarned = pointsEarned
	m.Status = MealCompleted
	return nil
}
