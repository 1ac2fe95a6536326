// Package apperrors defines the sentinel errors shared across services.
package apperrors

import "errors"

var (
	// ErrNotFound is returned when a referenced user, meal or activity does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned on a username/email collision at registration,
	// or when a user registers twice for the same activity.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidImage is returned when an uploaded photo fails the food-presence
	// check. The upload must not be persisted.
	ErrInvalidImage = errors.New("image does not show a plate of food")

	// ErrMissingPrecondition is returned when an after-photo is submitted for a
	// meal that has no before-photo yet.
	ErrMissingPrecondition = errors.New("before photo must be uploaded first")

	// ErrMealCompleted is returned when a photo is submitted for a meal that has
	// already been completed. Completion is terminal.
	ErrMealCompleted = errors.New("meal already completed")

	// ErrEstimatorUnavailable signals that the vision backend could not produce a
	// usable estimate. It is always recovered internally with the fallback
	// percentage and never surfaced to callers.
	ErrEstimatorUnavailable = errors.New("waste estimator unavailable")

	// ErrWrongCredentials is returned on a failed login attempt.
	ErrWrongCredentials = errors.New("invalid username or password")
)
