package models

import (
	"time"
)

// Activity is a sustainability event users can join for points.
type Activity struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Title             string    `gorm:"not null;size:255" json:"title"`
	Description       string    `gorm:"type:text" json:"description"`
	Type              string    `gorm:"not null;size:50" json:"type"` // garden, recycling, ...
	Date              time.Time `gorm:"not null" json:"date"`
	Points            int       `gorm:"not null" json:"points"`
	Location          string    `gorm:"size:255" json:"location"`
	ParticipantsCount int       `gorm:"not null;default:0" json:"participants_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName specifies the table name for Activity model.
func (Activity) TableName() string {
	return "activities"
}

// ActivityParticipant records a user's registration for an activity.
// A user may register for a given activity at most once.
type ActivityParticipant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActivityID uint      `gorm:"not null;index;uniqueIndex:idx_activity_user" json:"activity_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_activity_user" json:"user_id"`
	Registered bool      `gorm:"not null;default:true" json:"registered"`
	Attended   bool      `gorm:"not null;default:false" json:"attended"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for ActivityParticipant model.
func (ActivityParticipant) TableName() string {
	return "activity_participants"
}
