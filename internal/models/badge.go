package models

import (
	"time"
)

// BadgeLevel is the tier of an earned badge.
type BadgeLevel string

// Badge levels.
const (
	BadgeBronze BadgeLevel = "bronze"
	BadgeSilver BadgeLevel = "silver"
	BadgeGold   BadgeLevel = "gold"
)

// BadgeTypeStreak marks badges earned by crossing a streak milestone.
const BadgeTypeStreak = "streak"

// Badge is an achievement record. The badges table is an append-only ledger:
// one row per award event, never deduplicated across milestones.
type Badge struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	UserID   uint       `gorm:"not null;index" json:"user_id"`
	Type     string     `gorm:"not null;size:50" json:"type"`
	Level    BadgeLevel `gorm:"not null;size:20" json:"level"`
	Count    int        `gorm:"not null;default:1" json:"count"`
	EarnedAt time.Time  `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}
