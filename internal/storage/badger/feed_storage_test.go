package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/models"
)

func testFeed(tenantID, feedID, company string) *models.Feed {
	return &models.Feed{
		TenantID: tenantID,
		FeedID:   feedID,
		Company:  company,
		URL:      "https://boards-api.greenhouse.io/v1/boards/" + company + "/jobs",
		Active:   true,
		Source:   models.SourceGreenhouse,
	}
}

func TestFeedStorage_SaveAndList(t *testing.T) {
	db := newTestDB(t)
	store := NewFeedStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveFeed(ctx, testFeed("t1", "f1", "zeta")))
	require.NoError(t, store.SaveFeed(ctx, testFeed("t1", "f2", "acme")))
	require.NoError(t, store.SaveFeed(ctx, testFeed("t2", "f3", "other")))

	feeds, err := store.ListFeeds(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	// Sorted by company
	assert.Equal(t, "acme", feeds[0].Company)
	assert.Equal(t, "zeta", feeds[1].Company)
}

func TestFeedStorage_IngestibleExcludesInactiveAndArchived(t *testing.T) {
	db := newTestDB(t)
	store := NewFeedStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveFeed(ctx, testFeed("t1", "f1", "active")))

	inactive := testFeed("t1", "f2", "inactive")
	inactive.Active = false
	require.NoError(t, store.SaveFeed(ctx, inactive))

	require.NoError(t, store.SaveFeed(ctx, testFeed("t1", "f3", "archived")))
	require.NoError(t, store.ArchiveFeed(ctx, "t1", "f3"))

	feeds, err := store.ListIngestibleFeeds(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "f1", feeds[0].FeedID)
}

func TestFeedStorage_ArchiveRestore(t *testing.T) {
	db := newTestDB(t)
	store := NewFeedStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveFeed(ctx, testFeed("t1", "f1", "acme")))
	require.NoError(t, store.ArchiveFeed(ctx, "t1", "f1"))

	feed, err := store.GetFeed(ctx, "t1", "f1")
	require.NoError(t, err)
	require.NotNil(t, feed.ArchivedAt)
	assert.False(t, feed.Ingestible())

	// Archiving twice is a no-op.
	require.NoError(t, store.ArchiveFeed(ctx, "t1", "f1"))

	require.NoError(t, store.RestoreFeed(ctx, "t1", "f1"))
	feed, err = store.GetFeed(ctx, "t1", "f1")
	require.NoError(t, err)
	assert.Nil(t, feed.ArchivedAt)
	assert.True(t, feed.Ingestible())
}

func TestFeedStorage_SetFeedError(t *testing.T) {
	db := newTestDB(t)
	store := NewFeedStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, store.SaveFeed(ctx, testFeed("t1", "f1", "acme")))
	require.NoError(t, store.SetFeedError(ctx, "t1", "f1", "status 503"))

	feed, err := store.GetFeed(ctx, "t1", "f1")
	require.NoError(t, err)
	assert.Equal(t, "status 503", feed.LastError)

	require.NoError(t, store.SetFeedError(ctx, "t1", "f1", ""))
	feed, err = store.GetFeed(ctx, "t1", "f1")
	require.NoError(t, err)
	assert.Empty(t, feed.LastError)
}

func TestFeedStorage_MissingFeed(t *testing.T) {
	db := newTestDB(t)
	store := NewFeedStorage(db, arbor.NewLogger())

	_, err := store.GetFeed(context.Background(), "t1", "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, store.ArchiveFeed(context.Background(), "t1", "nope"), models.ErrNotFound)
}
