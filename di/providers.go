package di

import (
	availabilityService "innkeeper/internal/domains/availability/service"
	inventoryService "innkeeper/internal/domains/inventory/service"
	pricingRepository "innkeeper/internal/domains/pricing/repository"
)

// The ledger depends on close-out dates and cache refreshes through narrow
// interfaces so the inventory package stays free of pricing and cache imports.

func provideCloseoutSource(repo pricingRepository.Pricing) inventoryService.CloseoutSource {
	return repo
}

func provideRefresher(availability availabilityService.Availability) inventoryService.Refresher {
	return availability
}
