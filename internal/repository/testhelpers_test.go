package repository

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wastenot/wastenot-backend/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Meal{},
		&models.Badge{},
		&models.Activity{},
		&models.ActivityParticipant{},
	)
	if err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, repo *UserRepository, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Name:         "Test " + username,
	}
	if err := repo.Create(user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestMeal creates a pending test meal in the database.
func createTestMeal(t *testing.T, repo *MealRepository, userID uint, day int, mealType models.MealType) *models.Meal {
	t.Helper()

	meal := &models.Meal{
		UserID: userID,
		Type:   mealType,
		Date:   time.Now(),
		Day:    day,
		Status: models.MealPending,
	}
	if err := repo.Create(meal); err != nil {
		t.Fatalf("Failed to create test meal: %v", err)
	}
	return meal
}
