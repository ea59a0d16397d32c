package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// FeedStorage implements the FeedStorage interface for Badger
type FeedStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFeedStorage creates a new FeedStorage instance
func NewFeedStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FeedStorage {
	return &FeedStorage{db: db, logger: logger}
}

func (s *FeedStorage) SaveFeed(ctx context.Context, feed *models.Feed) error {
	if feed.TenantID == "" {
		return fmt.Errorf("feed tenant ID is required")
	}
	if feed.FeedID == "" {
		return fmt.Errorf("feed ID is required")
	}
	if feed.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	now := time.Now()
	if feed.CreatedAt.IsZero() {
		feed.CreatedAt = now
	}
	feed.UpdatedAt = now

	if err := s.db.Store().Upsert(feed.Key(), feed); err != nil {
		return fmt.Errorf("failed to save feed: %w", err)
	}
	return nil
}

func (s *FeedStorage) GetFeed(ctx context.Context, tenantID, feedID string) (*models.Feed, error) {
	var feed models.Feed
	if err := s.db.Store().Get(models.FeedKey(tenantID, feedID), &feed); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return &feed, nil
}

func (s *FeedStorage) ListFeeds(ctx context.Context, tenantID string) ([]*models.Feed, error) {
	var feeds []models.Feed
	if err := s.db.Store().Find(&feeds, badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID")); err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	sort.Slice(feeds, func(i, j int) bool { return feeds[i].Company < feeds[j].Company })

	result := make([]*models.Feed, len(feeds))
	for i := range feeds {
		result[i] = &feeds[i]
	}
	return result, nil
}

func (s *FeedStorage) ListIngestibleFeeds(ctx context.Context, tenantID string) ([]*models.Feed, error) {
	feeds, err := s.ListFeeds(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Feed, 0, len(feeds))
	for _, feed := range feeds {
		if feed.Ingestible() {
			result = append(result, feed)
		}
	}
	return result, nil
}

func (s *FeedStorage) ArchiveFeed(ctx context.Context, tenantID, feedID string) error {
	feed, err := s.GetFeed(ctx, tenantID, feedID)
	if err != nil {
		return err
	}
	if feed.ArchivedAt != nil {
		return nil
	}

	now := time.Now()
	feed.ArchivedAt = &now
	feed.UpdatedAt = now

	if err := s.db.Store().Upsert(feed.Key(), feed); err != nil {
		return fmt.Errorf("failed to archive feed: %w", err)
	}
	return nil
}

func (s *FeedStorage) RestoreFeed(ctx context.Context, tenantID, feedID string) error {
	feed, err := s.GetFeed(ctx, tenantID, feedID)
	if err != nil {
		return err
	}
	if feed.ArchivedAt == nil {
		return nil
	}

	feed.ArchivedAt = nil
	feed.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(feed.Key(), feed); err != nil {
		return fmt.Errorf("failed to restore feed: %w", err)
	}
	return nil
}

func (s *FeedStorage) SetFeedError(ctx context.Context, tenantID, feedID, message string) error {
	feed, err := s.GetFeed(ctx, tenantID, feedID)
	if err != nil {
		return err
	}

	feed.LastError = message
	feed.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(feed.Key(), feed); err != nil {
		return fmt.Errorf("failed to set feed error: %w", err)
	}
	return nil
}
