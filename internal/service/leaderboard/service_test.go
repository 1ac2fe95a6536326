package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/repository"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

type fakeUserRepo struct {
	users []models.User
	calls int
	err   error
}

func (f *fakeUserRepo) ListByPoints(limit int) ([]models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.users) {
		return f.users[:limit], nil
	}
	return f.users, nil
}

type fakeBadgeRepo struct {
	counts map[uint]int
}

func (f *fakeBadgeRepo) CountByUser(userID uint) (int, error) {
	return f.counts[userID], nil
}

// fakeCache records sets and serves gets from memory, ignoring TTLs.
type fakeCache struct {
	data map[string]string
	sets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.sets++
	f.data[key] = value.(string)
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCache) Health(context.Context) error { return nil }
func (f *fakeCache) Close() error                 { return nil }

func testUsers() []models.User {
	return []models.User{
		{ID: 1, Username: "alice", Name: "Alice", Points: 1500, Streak: 10},
		{ID: 2, Username: "bob", Name: "Bob", Points: 700, Streak: 5},
		{ID: 3, Username: "carol", Name: "Carol", Points: 100, Streak: 1},
	}
}

func TestTop_RanksUsers(t *testing.T) {
	users := &fakeUserRepo{users: testUsers()}
	badges := &fakeBadgeRepo{counts: map[uint]int{1: 1}}
	svc := NewServiceWithInterfaces(users, badges, nil, time.Minute, logger.New("error", "json", "stdout"))

	entries, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Rank != i+1 {
			t.Errorf("Entry %d: expected rank %d, got %d", i, i+1, entry.Rank)
		}
	}
	if entries[0].Username != "alice" || entries[0].Points != 1500 || entries[0].Badges != 1 {
		t.Errorf("Unexpected top entry: %+v", entries[0])
	}
	if entries[1].Badges != 0 {
		t.Errorf("Expected 0 badges for bob, got %d", entries[1].Badges)
	}
}

func TestTop_DefaultLimit(t *testing.T) {
	users := &fakeUserRepo{users: testUsers()}
	svc := NewServiceWithInterfaces(users, &fakeBadgeRepo{counts: map[uint]int{}}, nil, time.Minute, logger.New("error", "json", "stdout"))

	if _, err := svc.Top(context.Background(), 0); err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if _, err := svc.Top(context.Background(), -3); err != nil {
		t.Fatalf("Top failed: %v", err)
	}
}

func TestTop_ServesFromCache(t *testing.T) {
	users := &fakeUserRepo{users: testUsers()}
	c := newFakeCache()
	svc := NewServiceWithInterfaces(users, &fakeBadgeRepo{counts: map[uint]int{}}, c, time.Minute, logger.New("error", "json", "stdout"))

	first, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("First Top failed: %v", err)
	}
	second, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Second Top failed: %v", err)
	}

	if users.calls != 1 {
		t.Errorf("Expected one database query, got %d", users.calls)
	}
	if c.sets != 1 {
		t.Errorf("Expected one cache write, got %d", c.sets)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("Cached result differs: %+v vs %+v", first[0], second[0])
	}
}

func TestTop_SeparateCacheKeysPerLimit(t *testing.T) {
	users := &fakeUserRepo{users: testUsers()}
	c := newFakeCache()
	svc := NewServiceWithInterfaces(users, &fakeBadgeRepo{counts: map[uint]int{}}, c, time.Minute, logger.New("error", "json", "stdout"))

	top2, err := svc.Top(context.Background(), 2)
	if err != nil {
		t.Fatalf("Top(2) failed: %v", err)
	}
	top3, err := svc.Top(context.Background(), 3)
	if err != nil {
		t.Fatalf("Top(3) failed: %v", err)
	}
	if len(top2) != 2 || len(top3) != 3 {
		t.Errorf("Expected 2 and 3 entries, got %d and %d", len(top2), len(top3))
	}
	if users.calls != 2 {
		t.Errorf("Expected two database queries, got %d", users.calls)
	}
}

// The concrete repositories must satisfy the service's interfaces the same
// way the server wires them.
func TestTop_WithDatabaseRepositories(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db := &repository.DB{DB: gdb}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	users := repository.NewUserRepository(db)
	badges := repository.NewBadgeRepository(db)
	for _, u := range []models.User{
		{Username: "alice", Email: "alice@example.com", PasswordHash: "x", Name: "Alice", Points: 1500},
		{Username: "bob", Email: "bob@example.com", PasswordHash: "x", Name: "Bob", Points: 700},
	} {
		user := u
		if err := users.Create(&user); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
		if user.Username == "alice" {
			badge := &models.Badge{
				UserID: user.ID, Type: models.BadgeTypeStreak,
				Level: models.BadgeBronze, Count: 10, EarnedAt: time.Now(),
			}
			if err := badges.Create(badge); err != nil {
				t.Fatalf("Failed to create badge: %v", err)
			}
		}
	}

	svc := NewService(users, badges, nil, time.Minute, logger.New("error", "json", "stdout"))
	entries, err := svc.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Username != "alice" || entries[0].Badges != 1 {
		t.Errorf("Unexpected top entry: %+v", entries[0])
	}
}

func TestTop_DatabaseError(t *testing.T) {
	users := &fakeUserRepo{err: errors.New("connection lost")}
	svc := NewServiceWithInterfaces(users, &fakeBadgeRepo{counts: map[uint]int{}}, nil, time.Minute, logger.New("error", "json", "stdout"))

	if _, err := svc.Top(context.Background(), 10); err == nil {
		t.Fatal("Expected error from database failure")
	}
}
