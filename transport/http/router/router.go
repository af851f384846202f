package router

import (
	"innkeeper/internal/handlers/availability"
	"innkeeper/internal/handlers/hold"
	"innkeeper/internal/handlers/inventory"
	"innkeeper/internal/handlers/pricing"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Availability availability.Handler
	Hold         hold.Handler
	Inventory    inventory.Handler
	Pricing      pricing.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Availability.Router(routerGroup)
		r.DomainHandlers.Hold.Router(routerGroup)
		r.DomainHandlers.Inventory.Router(routerGroup)
		r.DomainHandlers.Pricing.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
