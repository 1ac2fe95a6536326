// Package leaderboard ranks users by points, with an optional Redis cache
// in front of the ranking query.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wastenot/wastenot-backend/internal/cache"
	"github.com/wastenot/wastenot-backend/internal/models"
	"github.com/wastenot/wastenot-backend/internal/repository"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// DefaultLimit is the number of entries returned when the caller does not
// ask for a specific size.
const DefaultLimit = 20

// UserRepository interface for the ranking query.
type UserRepository interface {
	ListByPoints(limit int) ([]models.User, error)
}

// BadgeRepository interface for per-user badge counts.
type BadgeRepository interface {
	CountByUser(userID uint) (int, error)
}

// Entry is one leaderboard row.
type Entry struct {
	Rank      int    `json:"rank"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Points    int    `json:"points"`
	Streak    int    `json:"streak"`
	Badges    int    `json:"badges"`
}

// Service computes leaderboards.
type Service struct {
	users  UserRepository
	badges BadgeRepository
	cache  cache.Cache
	ttl    time.Duration
	log    *logger.Logger
}

// NewService creates a leaderboard service with concrete repository types.
// A nil cache disables caching.
func NewService(users *repository.UserRepository, badges *repository.BadgeRepository, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{users: users, badges: badges, cache: c, ttl: ttl, log: log}
}

// NewServiceWithInterfaces creates a leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(users UserRepository, badges BadgeRepository, c cache.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{users: users, badges: badges, cache: c, ttl: ttl, log: log}
}

// Top returns the highest-scoring users, ranked from 1. Results are served
// from cache when fresh; cache failures fall through to the database.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := fmt.Sprintf("leaderboard:%d", limit)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("Leaderboard cache read failed")
		} else if cached != "" {
			var entries []Entry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
			s.log.Warn().Str("key", key).Msg("Discarding malformed leaderboard cache entry")
		}
	}

	users, err := s.users.ListByPoints(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(users))
	for i, user := range users {
		badgeCount, err := s.badges.CountByUser(user.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Rank:      i + 1,
			UserID:    user.ID,
			Username:  user.Username,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
			Points:    user.Points,
			Streak:    user.Streak,
			Badges:    badgeCount,
		})
	}

	if s.cache != nil {
		payload, err := json.Marshal(entries)
		if err == nil {
			if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
				s.log.Warn().Err(err).Msg("Leaderboard cache write failed")
			}
		}
	}

	return entries, nil
}
