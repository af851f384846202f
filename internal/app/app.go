package app

import (
	"context"

	availabilityService "innkeeper/internal/domains/availability/service"
	holdService "innkeeper/internal/domains/hold/service"
	pricingService "innkeeper/internal/domains/pricing/service"
	"innkeeper/internal/events"
	"innkeeper/transport/http"
)

// App bundles the HTTP server with the background workers that keep
// holds swept, caches reconciled, rules fresh and events forwarded.
type App struct {
	HTTP       *http.HTTP
	Dispatcher events.Dispatcher
	Sweeper    *holdService.Sweeper
	Reconciler *availabilityService.Reconciler
	Reloader   *pricingService.Reloader
	Forwarder  *events.Forwarder
}

func New(
	httpServer *http.HTTP,
	dispatcher events.Dispatcher,
	sweeper *holdService.Sweeper,
	reconciler *availabilityService.Reconciler,
	reloader *pricingService.Reloader,
	forwarder *events.Forwarder,
) *App {
	return &App{
		HTTP:       httpServer,
		Dispatcher: dispatcher,
		Sweeper:    sweeper,
		Reconciler: reconciler,
		Reloader:   reloader,
		Forwarder:  forwarder,
	}
}

// Run warms the pricing snapshot and the availability cache, starts the
// workers, then blocks serving HTTP until the process exits.
func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Reloader.RunOnce(ctx)
	a.Reconciler.RunOnce(ctx)

	// Drain in-flight events before the process exits.
	a.HTTP.RegisterCleanup(a.Dispatcher.Close)

	go a.Sweeper.Run(ctx)
	go a.Reconciler.Run(ctx)
	go a.Reloader.Run(ctx)
	go a.Forwarder.Run(ctx)

	a.HTTP.Serve()
}
