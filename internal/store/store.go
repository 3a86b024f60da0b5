package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vso023/smartpark-project/internal/model"
)

// Store defines the durable side of the service: search history and web
// push subscriptions. The core search pipeline never touches it.
type Store interface {
	RecordSearch(ctx context.Context, entry model.SearchHistory) error
	RecentSearches(ctx context.Context, limit int) ([]model.SearchHistory, error)
	SaveSubscription(ctx context.Context, sub model.PushSubscription, facilityIDs []int64) error
	Subscription(ctx context.Context, endpoint string) (model.PushSubscription, []int64, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	WatchersOf(ctx context.Context, facilityID int64) ([]model.PushSubscription, error)
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// RecordSearch appends one history row.
func (s *gormStore) RecordSearch(ctx context.Context, entry model.SearchHistory) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// RecentSearches returns the newest history rows, most recent first.
func (s *gormStore) RecentSearches(ctx context.Context, limit int) ([]model.SearchHistory, error) {
	var entries []model.SearchHistory
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	return entries, nil
}

// SaveSubscription upserts a subscription and replaces its watched
// facilities transactionally.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription, facilityIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.FacilityWatch{}).Error; err != nil {
			return fmt.Errorf("failed to clear facility watches: %w", err)
		}

		if len(facilityIDs) == 0 {
			return nil
		}
		watches := make([]model.FacilityWatch, len(facilityIDs))
		for i, id := range facilityIDs {
			watches[i] = model.FacilityWatch{Endpoint: sub.Endpoint, FacilityID: id}
		}
		if err := tx.Create(&watches).Error; err != nil {
			return fmt.Errorf("failed to save facility watches: %w", err)
		}
		return nil
	})
}

// Subscription loads a subscription and the facility IDs it watches.
func (s *gormStore) Subscription(ctx context.Context, endpoint string) (model.PushSubscription, []int64, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Preload("Watches").
		First(&sub, "endpoint = ?", endpoint).Error
	if err != nil {
		return model.PushSubscription{}, nil, err
	}

	ids := make([]int64, len(sub.Watches))
	for i, w := range sub.Watches {
		ids[i] = w.FacilityID
	}
	return sub, ids, nil
}

// DeleteSubscription removes a subscription and its watches.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.FacilityWatch{}).Error; err != nil {
			return fmt.Errorf("failed to delete facility watches: %w", err)
		}
		if err := tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// WatchersOf returns every subscription watching the given facility.
func (s *gormStore) WatchersOf(ctx context.Context, facilityID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN facility_watches fw ON fw.endpoint = push_subscriptions.endpoint").
		Where("fw.facility_id = ?", facilityID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watchers for facility %d: %w", facilityID, err)
	}
	return subs, nil
}
