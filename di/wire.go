//go:build wireinject
// +build wireinject

package di

import (
	"innkeeper/config"
	"innkeeper/infras/kafka"
	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/infras/redis"
	"innkeeper/internal/app"
	"innkeeper/internal/clock"
	"innkeeper/internal/events"
	"innkeeper/shared/cache"
	"innkeeper/transport/http"
	"innkeeper/transport/http/middleware"
	"innkeeper/transport/http/router"

	availabilityService "innkeeper/internal/domains/availability/service"
	holdRepository "innkeeper/internal/domains/hold/repository"
	holdService "innkeeper/internal/domains/hold/service"
	inventoryRepository "innkeeper/internal/domains/inventory/repository"
	inventoryService "innkeeper/internal/domains/inventory/service"
	pricingRepository "innkeeper/internal/domains/pricing/repository"
	pricingService "innkeeper/internal/domains/pricing/service"

	availabilityHandler "innkeeper/internal/handlers/availability"
	holdHandler "innkeeper/internal/handlers/hold"
	inventoryHandler "innkeeper/internal/handlers/inventory"
	pricingHandler "innkeeper/internal/handlers/pricing"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	clock.NewSystem,
	events.NewDispatcher,
)

var inventoryDomain = wire.NewSet(
	inventoryRepository.New,
	inventoryService.New,
	provideCloseoutSource,
	provideRefresher,
)

var holdDomain = wire.NewSet(
	holdRepository.New,
	holdService.New,
	holdService.NewSweeper,
)

var pricingDomain = wire.NewSet(
	pricingRepository.New,
	pricingService.New,
	pricingService.NewReloader,
)

var availabilityDomain = wire.NewSet(
	availabilityService.New,
	availabilityService.NewReconciler,
)

var eventForwarding = wire.NewSet(
	events.NewForwarder,
)

var domains = wire.NewSet(
	inventoryDomain,
	holdDomain,
	pricingDomain,
	availabilityDomain,
	eventForwarding,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	availabilityHandler.New,
	holdHandler.New,
	inventoryHandler.New,
	pricingHandler.New,
	router.New,
)

func InitializeApp() *app.App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		app.New,
	)

	return &app.App{}
}
