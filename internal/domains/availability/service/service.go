package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innkeeper/config"
	"innkeeper/infras/otel"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	inventoryRepository "innkeeper/internal/domains/inventory/repository"
	"innkeeper/shared"
	"innkeeper/shared/cache"
	"innkeeper/shared/constant"

	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "availability"

// DaySnapshot is one cached availability row. It is a projection of the
// ledger, never a source of truth.
type DaySnapshot struct {
	Date           time.Time `json:"date"`
	TotalRooms     int       `json:"totalRooms"`
	AvailableRooms int       `json:"availableRooms"`
	NetAvailable   int       `json:"netAvailable"`
}

// Availability serves search and browse reads from the cache. Booking
// decisions never go through here; they read the ledger directly.
type Availability interface {
	Search(ctx context.Context, propertyID, categoryID string, stay inventoryModel.StayRange) ([]DaySnapshot, error)
	Refresh(ctx context.Context, propertyID, categoryID string, stay inventoryModel.StayRange)
	Reconcile(ctx context.Context) error
}

type serviceImpl struct {
	repo   inventoryRepository.Inventory
	cache  cache.RedisCache
	config *config.Config
	otel   otel.Otel
}

func New(repo inventoryRepository.Inventory, redisCache cache.RedisCache, config *config.Config, otel otel.Otel) Availability {
	return &serviceImpl{
		repo:   repo,
		cache:  redisCache,
		config: config,
		otel:   otel,
	}
}

// Search reads each date from the cache and falls through to the ledger for
// misses, populating the cache on the way out. Dates without a ledger row
// come back as zero-capacity snapshots.
func (s *serviceImpl) Search(ctx context.Context, propertyID, categoryID string, stay inventoryModel.StayRange) (snapshots []DaySnapshot, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Search")
	defer scope.End()
	defer scope.TraceIfError(err)

	snapshots = make([]DaySnapshot, 0, stay.Nights())

	var misses []time.Time
	for _, date := range stay.Dates() {
		var snapshot DaySnapshot
		cacheErr := s.cache.Get(ctx, s.key(propertyID, categoryID, date), &snapshot)
		if cacheErr == nil {
			snapshots = append(snapshots, snapshot)

			continue
		}

		if !errors.Is(cacheErr, cache.Nil) {
			log.Warn().Err(cacheErr).Msg("availability cache read failed, falling through to ledger")
		}

		misses = append(misses, date)
		snapshots = append(snapshots, DaySnapshot{Date: date})
	}

	if len(misses) == 0 {
		return snapshots, nil
	}

	days, err := s.repo.Days(ctx, propertyID, categoryID, stay)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for search: %w", err)
	}

	byDate := make(map[string]inventoryModel.InventoryDay, len(days))
	for _, day := range days {
		byDate[day.Date.Format(constant.StayDateFormat)] = day
	}

	for i := range snapshots {
		if !containsDate(misses, snapshots[i].Date) {
			continue
		}

		if day, ok := byDate[snapshots[i].Date.Format(constant.StayDateFormat)]; ok {
			snapshots[i] = snapshotOf(day)
		}

		s.save(ctx, propertyID, categoryID, snapshots[i])
	}

	return snapshots, nil
}

// Refresh re-projects the ledger rows for the range into the cache. It is
// called after every ledger mutation and never fails the caller.
func (s *serviceImpl) Refresh(ctx context.Context, propertyID, categoryID string, stay inventoryModel.StayRange) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Refresh")
	defer scope.End()

	days, err := s.repo.Days(ctx, propertyID, categoryID, stay)
	if err != nil {
		log.Error().Err(err).Msg("availability refresh failed to read ledger")

		return
	}

	byDate := make(map[string]inventoryModel.InventoryDay, len(days))
	for _, day := range days {
		byDate[day.Date.Format(constant.StayDateFormat)] = day
	}

	for _, date := range stay.Dates() {
		snapshot := DaySnapshot{Date: date}
		if day, ok := byDate[date.Format(constant.StayDateFormat)]; ok {
			snapshot = snapshotOf(day)
		}

		s.save(ctx, propertyID, categoryID, snapshot)
	}
}

// Reconcile recomputes every cached row within the horizon directly from
// the ledger. It corrects any incremental refresh the cache missed; the
// ledger always wins.
func (s *serviceImpl) Reconcile(ctx context.Context) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".availability.Reconcile")
	defer scope.End()
	defer scope.TraceIfError(err)

	keys, err := s.repo.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ledger partitions: %w", err)
	}

	start := inventoryModel.Midnight(time.Now().UTC())
	horizon, err := inventoryModel.NewStayRange(start, start.AddDate(0, 0, s.config.Inventory.CacheHorizonDays))
	if err != nil {
		return fmt.Errorf("failed to build reconcile horizon: %w", err)
	}

	for _, key := range keys {
		s.Refresh(ctx, key.PropertyID, key.RoomCategoryID, horizon)
	}

	log.Info().Int("partitions", len(keys)).Msg("availability cache reconciled")

	return nil
}

func (s *serviceImpl) key(propertyID, categoryID string, date time.Time) string {
	return shared.BuildCacheKey(cacheKeyPrefix, propertyID, categoryID, date.Format(constant.StayDateFormat))
}

func (s *serviceImpl) save(ctx context.Context, propertyID, categoryID string, snapshot DaySnapshot) {
	ttl := s.config.Inventory.CacheHorizonDays * 24 * 60 * 60
	if err := s.cache.Save(ctx, s.key(propertyID, categoryID, snapshot.Date), snapshot, ttl); err != nil {
		log.Warn().Err(err).Msg("failed to write availability cache")
	}
}

func snapshotOf(day inventoryModel.InventoryDay) DaySnapshot {
	return DaySnapshot{
		Date:           day.Date,
		TotalRooms:     day.TotalRooms,
		AvailableRooms: day.AvailableRooms(),
		NetAvailable:   day.NetAvailable(),
	}
}

func containsDate(dates []time.Time, date time.Time) bool {
	for _, d := range dates {
		if d.Equal(date) {
			return true
		}
	}

	return false
}
