package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mausam360/backend/internal/weather"
)

// Repository persists preference records.
type Repository interface {
	// Get returns the record for userID or ErrNotFound.
	Get(ctx context.Context, userID string) (Record, error)

	// Mutate applies fn to the record of userID as one read-modify-write and
	// returns the stored result. When no record exists, init builds the
	// starting record; a nil init makes Mutate return ErrNotFound instead.
	Mutate(ctx context.Context, userID string, init func() Record, fn func(*Record)) (Record, error)
}

// Service implements the preference operations on top of a Repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) initFor(userID string) func() Record {
	return func() Record {
		return NewRecord(userID, s.now())
	}
}

// GetOrCreate returns the record for userID, creating and persisting a
// default one when none exists.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (Record, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, fmt.Errorf("get preferences: %w", err)
	}

	rec, err = s.repo.Mutate(ctx, userID, s.initFor(userID), func(*Record) {})
	if err != nil {
		return Record{}, fmt.Errorf("create preferences: %w", err)
	}
	s.logger.Info("created default preferences", zap.String("user_id", userID))
	return rec, nil
}

// Update merges the non-nil fields of u into the record, creating the
// record first if needed.
func (s *Service) Update(ctx context.Context, userID string, u Update) (Record, error) {
	if u.TemperatureUnit != nil && !u.TemperatureUnit.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidUnit, *u.TemperatureUnit)
	}

	rec, err := s.repo.Mutate(ctx, userID, s.initFor(userID), func(r *Record) {
		if u.DefaultCity != nil {
			r.DefaultCity = *u.DefaultCity
		}
		if u.TemperatureUnit != nil {
			r.TemperatureUnit = *u.TemperatureUnit
		}
		s.touch(r)
	})
	if err != nil {
		return Record{}, fmt.Errorf("update preferences: %w", err)
	}
	return rec, nil
}

// AddRecentSearch records a search at the front of the history, replacing
// an earlier entry for the same city name. A user without a record gets a
// default record holding only this search.
func (s *Service) AddRecentSearch(ctx context.Context, userID, cityName string, coords weather.Coordinates) (Record, error) {
	rec, err := s.repo.Mutate(ctx, userID, s.initFor(userID), func(r *Record) {
		r.RecentSearches = applySearch(r.RecentSearches, RecentSearch{
			CityName:    cityName,
			Coordinates: coords,
			SearchedAt:  s.now(),
		})
		s.touch(r)
	})
	if err != nil {
		return Record{}, fmt.Errorf("add recent search: %w", err)
	}
	return rec, nil
}

// ClearRecentSearches empties the history. Unlike the other operations it
// does not create a record: an unknown user yields ErrNotFound.
func (s *Service) ClearRecentSearches(ctx context.Context, userID string) (Record, error) {
	rec, err := s.repo.Mutate(ctx, userID, nil, func(r *Record) {
		r.RecentSearches = []RecentSearch{}
		s.touch(r)
	})
	if err != nil {
		return Record{}, fmt.Errorf("clear recent searches: %w", err)
	}
	return rec, nil
}

func (s *Service) touch(r *Record) {
	now := s.now()
	r.LastActive = now
	r.UpdatedAt = now
}

// applySearch is the only place the history invariant is enforced: the new
// entry goes first, any case-insensitive duplicate is dropped and the list
// is cut to MaxRecentSearches.
func applySearch(history []RecentSearch, search RecentSearch) []RecentSearch {
	out := make([]RecentSearch, 0, MaxRecentSearches)
	out = append(out, search)
	for _, h := range history {
		if len(out) == MaxRecentSearches {
			break
		}
		if strings.EqualFold(h.CityName, search.CityName) {
			continue
		}
		out = append(out, h)
	}
	return out
}
