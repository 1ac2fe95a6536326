// Package models defines the domain models for the meal waste tracker.
package models

import (
	"time"
)

// User represents a registered user.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	Points       int       `gorm:"not null;default:0" json:"points"`
	Streak       int       `gorm:"not null;default:0" json:"streak"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}
