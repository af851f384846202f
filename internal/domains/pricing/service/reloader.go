package service

import (
	"context"
	"time"

	"innkeeper/config"

	"github.com/rs/zerolog/log"
)

// Reloader refreshes the rule snapshot on a fixed interval so staff edits
// reach the engine without a restart.
type Reloader struct {
	engine   Engine
	interval time.Duration
}

func NewReloader(engine Engine, config *config.Config) *Reloader {
	return &Reloader{
		engine:   engine,
		interval: time.Duration(config.Pricing.ReloadIntervalSeconds) * time.Second,
	}
}

func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("pricing rule reloader started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("pricing rule reloader stopped")

			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

func (r *Reloader) RunOnce(ctx context.Context) {
	if err := r.engine.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("pricing rule reload failed")
	}
}
