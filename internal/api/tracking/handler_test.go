//nolint:noctx // Test file uses http.NewRequest for simplicity
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/service/meals"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// Mock Meal Service
type mockMealService struct {
	users      map[uint]*models.User
	byUsername map[string]*models.User
	meals      map[uint]*models.Meal
	badges     map[uint][]models.Badge
	nextUserID uint
	submitErr  error
}

func newMockMealService() *mockMealService {
	return &mockMealService{
		users:      make(map[uint]*models.User),
		byUsername: make(map[string]*models.User),
		meals:      make(map[uint]*models.Meal),
		badges:     make(map[uint][]models.Badge),
	}
}

func (m *mockMealService) addUser(username string) *models.User {
	m.nextUserID++
	user := &models.User{ID: m.nextUserID, Username: username, Email: username + "@example.com", Name: username}
	m.users[user.ID] = user
	m.byUsername[username] = user
	return user
}

func (m *mockMealService) addMeal(id uint, userID uint, status models.MealStatus) *models.Meal {
	meal := &models.Meal{ID: id, UserID: userID, Type: models.MealLunch, Day: 1, Status: status}
	m.meals[id] = meal
	return meal
}

func (m *mockMealService) Register(ctx context.Context, reg meals.Registration) (*models.User, error) {
	if _, exists := m.byUsername[reg.Username]; exists {
		return nil, apperrors.ErrDuplicateKey
	}
	return m.addUser(reg.Username), nil
}

func (m *mockMealService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, exists := m.byUsername[username]
	if !exists || password != "correct-horse" {
		return nil, apperrors.ErrWrongCredentials
	}
	return user, nil
}

func (m *mockMealService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, exists := m.users[userID]
	if !exists {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return user, nil
}

func (m *mockMealService) UpdateAvatar(ctx context.Context, userID uint, url string) error {
	user, exists := m.users[userID]
	if !exists {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	user.AvatarURL = url
	return nil
}

func (m *mockMealService) ListMeals(ctx context.Context, userID uint) ([]models.Meal, error) {
	var list []models.Meal
	for _, meal := range m.meals {
		if meal.UserID == userID {
			list = append(list, *meal)
		}
	}
	return list, nil
}

func (m *mockMealService) ListMealsForDay(ctx context.Context, userID uint, day int) ([]models.Meal, error) {
	var list []models.Meal
	for _, meal := range m.meals {
		if meal.UserID == userID && meal.Day == day {
			list = append(list, *meal)
		}
	}
	return list, nil
}

func (m *mockMealService) ListBadges(ctx context.Context, userID uint) ([]models.Badge, error) {
	return m.badges[userID], nil
}

func (m *mockMealService) SubmitBeforePhoto(ctx context.Context, mealID uint, image []byte) (*models.Meal, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	meal, exists := m.meals[mealID]
	if !exists {
		return nil, fmt.Errorf("meal %d: %w", mealID, apperrors.ErrNotFound)
	}
	if err := meal.AttachBeforePhoto("photo-1.jpg"); err != nil {
		return nil, err
	}
	return meal, nil
}

func (m *mockMealService) SubmitAfterPhoto(ctx context.Context, mealID uint, image []byte, override *int) (*models.Meal, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	meal, exists := m.meals[mealID]
	if !exists {
		return nil, fmt.Errorf("meal %d: %w", mealID, apperrors.ErrNotFound)
	}
	waste := 5
	if override != nil {
		waste = *override
	}
	if err := meal.Complete("photo-2.jpg", waste, 150); err != nil {
		return nil, err
	}
	return meal, nil
}

// Test Setup
func setupTestHandler() (*Handler, *mockMealService) {
	mealService := newMockMealService()
	log := logger.New("debug", "text", "stdout")

	handler := NewHandlerWithInterfaces(mealService, 5, log)

	return handler, mealService
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api/v1")
	api.POST("/users/register", handler.Register)
	api.POST("/users/login", handler.Login)
	api.GET("/users/:id", handler.GetUser)
	api.PUT("/users/:id/avatar", handler.UpdateAvatar)
	api.GET("/users/:id/badges", handler.GetUserBadges)
	api.GET("/users/:id/meals", handler.GetMeals)
	api.POST("/meals/:id/photos/before", handler.SubmitBeforePhoto)
	api.POST("/meals/:id/photos/after", handler.SubmitAfterPhoto)

	return router
}

// photoRequest builds a multipart request with a "photo" file and optional
// extra form fields.
func photoRequest(t *testing.T, url string, photo []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", "plate.jpg")
	assert.NoError(t, err)
	_, err = part.Write(photo)
	assert.NoError(t, err)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	assert.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// Tests

func TestRegister_Success(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	payload := `{"username":"alice","email":"alice@example.com","password":"correct-horse","name":"Alice"}`
	req, _ := http.NewRequest("POST", "/api/v1/users/register", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	user := response["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
}

func TestRegister_DuplicateUsername(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	mealService.addUser("alice")

	payload := `{"username":"alice","email":"alice@example.com","password":"correct-horse","name":"Alice"}`
	req, _ := http.NewRequest("POST", "/api/v1/users/register", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("POST", "/api/v1/users/register", bytes.NewBufferString(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	mealService.addUser("alice")

	req, _ := http.NewRequest("POST", "/api/v1/users/login",
		bytes.NewBufferString(`{"username":"alice","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest("POST", "/api/v1/users/login",
		bytes.NewBufferString(`{"username":"alice","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUser_NotFound(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/users/42", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUser_InvalidID(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/users/abc", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAvatar(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")

	payload := `{"avatar_url":"https://cdn.example.com/a.png"}`
	req, _ := http.NewRequest("PUT", fmt.Sprintf("/api/v1/users/%d/avatar", user.ID), bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.example.com/a.png", user.AvatarURL)
}

func TestGetMeals(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	mealService.addMeal(1, user.ID, models.MealPending)
	mealService.addMeal(2, user.ID, models.MealPending)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/users/%d/meals", user.ID), http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(2), response["total"])
}

func TestGetMeals_InvalidDay(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/users/%d/meals?day=9", user.ID), http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitBeforePhoto_Success(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	mealService.addMeal(1, user.ID, models.MealPending)

	req := photoRequest(t, "/api/v1/meals/1/photos/before", []byte("plate"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	meal := response["meal"].(map[string]interface{})
	assert.Equal(t, string(models.MealHasBefore), meal["status"])
}

func TestSubmitBeforePhoto_MissingFile(t *testing.T) {
	handler, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("POST", "/api/v1/meals/1/photos/before", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitBeforePhoto_TooLarge(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	mealService.addMeal(1, user.ID, models.MealPending)

	big := bytes.Repeat([]byte("x"), 6<<20)
	req := photoRequest(t, "/api/v1/meals/1/photos/before", big, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSubmitBeforePhoto_NotFood(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	mealService.submitErr = apperrors.ErrInvalidImage

	req := photoRequest(t, "/api/v1/meals/1/photos/before", []byte("cat"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitAfterPhoto_Success(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	meal := mealService.addMeal(1, user.ID, models.MealPending)
	assert.NoError(t, meal.AttachBeforePhoto("photo-1.jpg"))

	req := photoRequest(t, "/api/v1/meals/1/photos/after", []byte("empty"), map[string]string{
		"waste_percentage": "10",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	respMeal := response["meal"].(map[string]interface{})
	assert.Equal(t, string(models.MealCompleted), respMeal["status"])
	assert.Equal(t, float64(10), respMeal["waste_percentage"])
}

func TestSubmitAfterPhoto_BadOverride(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	meal := mealService.addMeal(1, user.ID, models.MealPending)
	assert.NoError(t, meal.AttachBeforePhoto("photo-1.jpg"))

	req := photoRequest(t, "/api/v1/meals/1/photos/after", []byte("empty"), map[string]string{
		"waste_percentage": "a-lot",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAfterPhoto_WithoutBefore(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	mealService.addMeal(1, user.ID, models.MealPending)

	req := photoRequest(t, "/api/v1/meals/1/photos/after", []byte("empty"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitAfterPhoto_AlreadyCompleted(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	meal := mealService.addMeal(1, user.ID, models.MealPending)
	assert.NoError(t, meal.AttachBeforePhoto("photo-1.jpg"))
	assert.NoError(t, meal.Complete("photo-2.jpg", 5, 150))

	req := photoRequest(t, "/api/v1/meals/1/photos/after", []byte("empty"), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetUserBadges(t *testing.T) {
	handler, mealService := setupTestHandler()
	router := setupRouter(handler)
	user := mealService.addUser("alice")
	mealService.badges[user.ID] = []models.Badge{
		{ID: 1, UserID: user.ID, Type: models.BadgeTypeStreak, Level: models.BadgeBronze, Count: 10},
	}

	req, _ := http.NewRequest("GET", fmt.Sprintf("/api/v1/users/%d/badges", user.ID), http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["total_badges"])
}
