// Package rewards maps resolved waste percentages to points and decides
// streak badge milestones.
package rewards

import (
	"github.com/wastenot/wastenot-backend/internal/models"
)

// badgeMilestoneInterval is the streak interval at which badges are issued.
const badgeMilestoneInterval = 10

// Points returns the points awarded for a resolved waste percentage.
// The tiers are non-overlapping with inclusive upper bounds.
func Points(wastePercentage int) int {
	switch {
	case wastePercentage <= 10:
		return 150 // almost no waste
	case wastePercentage <= 30:
		return 100 // some waste
	case wastePercentage <= 50:
		return 50 // significant waste
	default:
		return 25 // lots of waste
	}
}

// Milestone reports whether a streak value earns a badge, and at which level.
// Badges fire only at multiples of ten, starting at ten.
func Milestone(streak int) (models.BadgeLevel, bool) {
	if streak < badgeMilestoneInterval || streak%badgeMilestoneInterval != 0 {
		return "", false
	}
	switch {
	case streak >= 50:
		return models.BadgeGold, true
	case streak >= 25:
		return models.BadgeSilver, true
	default:
		return models.BadgeBronze, true
	}
}
