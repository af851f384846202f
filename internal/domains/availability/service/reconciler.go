package service

import (
	"context"
	"time"

	"innkeeper/config"

	"github.com/rs/zerolog/log"
)

// Reconciler periodically rebuilds the availability cache from the ledger.
type Reconciler struct {
	availability Availability
	interval     time.Duration
}

func NewReconciler(availability Availability, config *config.Config) *Reconciler {
	return &Reconciler{
		availability: availability,
		interval:     time.Duration(config.Inventory.ReconcileIntervalSeconds) * time.Second,
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("availability reconciler started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("availability reconciler stopped")

			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

func (r *Reconciler) RunOnce(ctx context.Context) {
	if err := r.availability.Reconcile(ctx); err != nil {
		log.Error().Err(err).Msg("availability reconciliation failed")
	}
}
