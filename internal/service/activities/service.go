// Package activities manages sustainability activities and participation.
package activities

import (
	"context"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/repository"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// ActivityRepository interface for activity operations.
type ActivityRepository interface {
	List() ([]models.Activity, error)
	GetByID(id uint) (*models.Activity, error)
	AddParticipant(participant *models.ActivityParticipant) error
	GetParticipant(userID, activityID uint) (*models.ActivityParticipant, error)
	MarkAttended(id uint) error
}

// UserRepository interface for the points side effect of attendance.
type UserRepository interface {
	AddPoints(userID uint, delta int) error
}

// Service manages activities.
type Service struct {
	activities ActivityRepository
	users      UserRepository
	log        *logger.Logger
}

// NewService creates an activity service with concrete repository types.
func NewService(activities *repository.ActivityRepository, users *repository.UserRepository, log *logger.Logger) *Service {
	return &Service{activities: activities, users: users, log: log}
}

// NewServiceWithInterfaces creates an activity service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(activities ActivityRepository, users UserRepository, log *logger.Logger) *Service {
	return &Service{activities: activities, users: users, log: log}
}

// List returns all activities.
func (s *Service) List(ctx context.Context) ([]models.Activity, error) {
	return s.activities.List()
}

// Get returns a single activity.
func (s *Service) Get(ctx context.Context, activityID uint) (*models.Activity, error) {
	return s.activities.GetByID(activityID)
}

// Join signs a user up for an activity. Joining twice returns
// apperrors.ErrDuplicateKey and leaves the participant count untouched.
func (s *Service) Join(ctx context.Context, activityID, userID uint) (*models.ActivityParticipant, error) {
	if _, err := s.activities.GetByID(activityID); err != nil {
		return nil, err
	}

	participant := &models.ActivityParticipant{
		ActivityID: activityID,
		UserID:     userID,
		Registered: true,
	}
	if err := s.activities.AddParticipant(participant); err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("activity_id", activityID).
		Uint("user_id", userID).
		Msg("User joined activity")

	return participant, nil
}

// MarkAttended records attendance and credits the activity's points to the
// participant. Attendance is recorded at most once.
func (s *Service) MarkAttended(ctx context.Context, activityID, userID uint) error {
	activity, err := s.activities.GetByID(activityID)
	if err != nil {
		return err
	}
	participant, err := s.activities.GetParticipant(userID, activityID)
	if err != nil {
		return err
	}
	if participant.Attended {
		return apperrors.ErrDuplicateKey
	}

	if err := s.activities.MarkAttended(participant.ID); err != nil {
		return err
	}
	if err := s.users.AddPoints(userID, activity.Points); err != nil {
		return err
	}

	s.log.Info().
		Uint("activity_id", activityID).
		Uint("user_id", userID).
		Int("points", activity.Points).
		Msg("Attendance recorded")

	return nil
}
