package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/mausam360/backend/internal/weather"
)

// Sweeper removes expired cache entries.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Warmer refreshes the bundle of a location when its cache entry is stale.
type Warmer interface {
	GetCompleteWeatherData(ctx context.Context, lat, lon float64, cityHint string) (weather.Bundle, error)
}

// Scheduler runs the periodic cache jobs: removing expired entries and
// keeping configured locations warm.
type Scheduler struct {
	scheduler     *gocron.Scheduler
	sweeper       Sweeper
	warmer        Warmer
	locations     []weather.Coordinates
	sweepInterval time.Duration
	warmInterval  time.Duration
	logger        *zap.Logger
}

// Config holds the job settings.
type Config struct {
	SweepInterval time.Duration
	WarmInterval  time.Duration
	Locations     []weather.Coordinates
}

// New creates a new Scheduler. A nil sweeper or warmer disables that job.
func New(cfg Config, sweeper Sweeper, warmer Warmer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler:     gocron.NewScheduler(time.UTC),
		sweeper:       sweeper,
		warmer:        warmer,
		locations:     cfg.Locations,
		sweepInterval: cfg.SweepInterval,
		warmInterval:  cfg.WarmInterval,
		logger:        logger,
	}
}

// Start schedules the jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.sweeper != nil {
		interval := s.sweepInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		if _, err := s.scheduler.Every(interval).SingletonMode().Do(s.sweep); err != nil {
			return err
		}
	}

	if s.warmer != nil && len(s.locations) > 0 {
		interval := s.warmInterval
		if interval <= 0 {
			interval = weather.CacheTTL
		}
		if _, err := s.scheduler.Every(interval).SingletonMode().Do(s.warm); err != nil {
			return err
		}
	} else {
		s.logger.Info("scheduler: no warm locations configured")
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Warn("scheduler: cache sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Debug("scheduler: removed expired cache entries", zap.Int("removed", removed))
	}
}

func (s *Scheduler) warm() {
	s.logger.Debug("scheduler: warming locations", zap.Int("locations", len(s.locations)))

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := s.warmer.GetCompleteWeatherData(ctx, loc.Lat, loc.Lon, ""); err != nil {
				s.logger.Warn("scheduler: warm failed",
					zap.String("key", weather.LocationKey(loc.Lat, loc.Lon)), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}
