package service

import (
	"context"
	"time"

	"innkeeper/config"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically expires overdue holds. The sweep interval bounds how
// long an abandoned hold can keep rooms off the shelf past its TTL.
type Sweeper struct {
	holds    Holds
	interval time.Duration
}

func NewSweeper(holds Holds, config *config.Config) *Sweeper {
	return &Sweeper{
		holds:    holds,
		interval: time.Duration(config.Inventory.SweepIntervalSeconds) * time.Second,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("hold sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hold sweeper stopped")

			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) {
	if _, err := s.holds.SweepExpired(ctx); err != nil {
		log.Error().Err(err).Msg("hold sweep failed")
	}
}
