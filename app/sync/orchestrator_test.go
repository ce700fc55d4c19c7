package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbox38/cignite/app/database"
	"github.com/kbox38/cignite/app/linkedin"
	"github.com/kbox38/cignite/app/post"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

type fakeClient struct {
	snapshot      []map[string]any
	snapshotErr   error
	events        []linkedin.ChangelogEvent
	eventsErr     error
	snapshotCalls int
	changelogCalls int
}

func (f *fakeClient) FetchSnapshot(ctx context.Context, token, domain string) ([]map[string]any, error) {
	f.snapshotCalls++
	return f.snapshot, f.snapshotErr
}

func (f *fakeClient) FetchChangelog(ctx context.Context, token string, startTime int64) ([]linkedin.ChangelogEvent, error) {
	f.changelogCalls++
	return f.events, f.eventsErr
}

type fakeCache struct {
	entry    *database.CacheEntry
	getErr   error
	putErr   error
	putCalls int
}

func (f *fakeCache) Get(ownerID string) (*database.CacheEntry, error) {
	return f.entry, f.getErr
}

func (f *fakeCache) Put(ownerID string, posts []post.Post) error {
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.entry = &database.CacheEntry{OwnerID: ownerID, Posts: posts, FetchedAt: fixedNow()}
	return nil
}

func (f *fakeCache) Delete(ownerID string) error {
	f.entry = nil
	return nil
}

func newTestOrchestrator(client *fakeClient, cache *fakeCache) *Orchestrator {
	normalizer := post.NewNormalizer(fixedNow)
	return NewOrchestrator(client, cache, normalizer, linkedin.DomainMemberShareInfo, 6*time.Hour, 0, fixedNow)
}

func cachedPosts(n int) []post.Post {
	var posts []post.Post
	for i := 0; i < n; i++ {
		posts = append(posts, post.Post{
			ID:         string(rune('a' + i)),
			OwnerID:    "user-1",
			CreatedAt:  int64(1000 * (i + 1)),
			Text:       "cached post",
			SourceKind: post.SourceSnapshot,
		})
	}
	return posts
}

func TestSyncFreshCacheShortCircuits(t *testing.T) {
	client := &fakeClient{}
	cache := &fakeCache{entry: &database.CacheEntry{
		OwnerID:   "user-1",
		Posts:     cachedPosts(3),
		FetchedAt: fixedNow().Add(-1 * time.Hour),
	}}

	result, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceCache {
		t.Errorf("Expected source CACHE, got %s", result.Source)
	}
	if len(result.Posts) != 3 {
		t.Errorf("Expected 3 cached posts, got %d", len(result.Posts))
	}
	if client.snapshotCalls != 0 || client.changelogCalls != 0 {
		t.Error("Fresh cache must not trigger network calls")
	}
}

func TestSyncForceBypassesFreshCache(t *testing.T) {
	client := &fakeClient{
		snapshot: []map[string]any{
			{"ShareCommentary": "Fresh snapshot post", "Date": "2024-05-01"},
		},
	}
	cache := &fakeCache{entry: &database.CacheEntry{
		OwnerID:   "user-1",
		Posts:     cachedPosts(1),
		FetchedAt: fixedNow().Add(-1 * time.Minute),
	}}

	result, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{Force: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if client.snapshotCalls != 1 || client.changelogCalls != 1 {
		t.Error("Force must fetch both feeds")
	}
	if result.PostsProcessed != 1 {
		t.Errorf("Expected 1 processed post, got %d", result.PostsProcessed)
	}
}

func TestSyncPartialProviderFailure(t *testing.T) {
	// Snapshot is empty (404 path); changelog returns 3 valid events.
	client := &fakeClient{
		events: []linkedin.ChangelogEvent{
			{Method: "CREATE", CapturedAt: 1706832000000, Activity: map[string]any{"commentary": "First changelog post"}},
			{Method: "CREATE", CapturedAt: 1706832100000, Activity: map[string]any{"commentary": "Second changelog post"}},
			{Method: "UPDATE", CapturedAt: 1706832200000, Activity: map[string]any{"commentary": "Third changelog post"}},
		},
	}
	cache := &fakeCache{}

	result, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{})
	if err != nil {
		t.Fatalf("Expected no fatal error, got: %v", err)
	}

	if result.Source != SourceLive {
		t.Errorf("Expected source LIVE, got %s", result.Source)
	}
	if result.PostsProcessed != 3 {
		t.Errorf("Expected 3 processed posts, got %d", result.PostsProcessed)
	}
	if cache.putCalls != 1 {
		t.Errorf("Expected one cache write, got %d", cache.putCalls)
	}
}

func TestSyncTotalProviderFailureWithCache(t *testing.T) {
	client := &fakeClient{
		snapshotErr: &linkedin.TransientError{StatusCode: 502, Endpoint: "memberSnapshotData"},
		eventsErr:   &linkedin.TransientError{StatusCode: 502, Endpoint: "memberChangeLogs"},
	}
	cache := &fakeCache{entry: &database.CacheEntry{
		OwnerID:   "user-1",
		Posts:     cachedPosts(5),
		FetchedAt: fixedNow().Add(-2 * time.Hour),
	}}

	// 2-hour-old cache with a 24h threshold is fresh, so force the fetch.
	orchestrator := NewOrchestrator(client, cache, post.NewNormalizer(fixedNow),
		linkedin.DomainMemberShareInfo, 24*time.Hour, 0, fixedNow)
	result, err := orchestrator.Sync(context.Background(), "user-1", "token", Options{Force: true})
	if err != nil {
		t.Fatalf("Expected degraded result, not fatal error: %v", err)
	}

	if result.Source != SourceCache {
		t.Errorf("Expected source CACHE, got %s", result.Source)
	}
	if len(result.Posts) != 5 {
		t.Errorf("Expected 5 cached posts, got %d", len(result.Posts))
	}
	if len(result.Errors) != 2 {
		t.Errorf("Expected both feed errors reported, got %v", result.Errors)
	}
}

func TestSyncTotalProviderFailureWithoutCache(t *testing.T) {
	client := &fakeClient{
		snapshotErr: &linkedin.TransientError{StatusCode: 500, Endpoint: "memberSnapshotData"},
		eventsErr:   &linkedin.TransientError{StatusCode: 500, Endpoint: "memberChangeLogs"},
	}
	cache := &fakeCache{}

	_, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{})
	if err == nil {
		t.Fatal("Expected hard failure with no data and no cache")
	}
}

func TestSyncCacheWriteFailureIsFatal(t *testing.T) {
	client := &fakeClient{
		snapshot: []map[string]any{
			{"ShareCommentary": "Post one here", "Date": "2024-05-01"},
			{"ShareCommentary": "Post two here", "Date": "2024-05-02"},
		},
	}
	previous := &database.CacheEntry{
		OwnerID:   "user-1",
		Posts:     cachedPosts(2),
		FetchedAt: fixedNow().Add(-48 * time.Hour),
	}
	cache := &fakeCache{entry: previous, putErr: errors.New("disk full")}

	_, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{})

	var writeErr *CacheWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected CacheWriteError, got: %v", err)
	}

	// The previous entry must be untouched.
	entry, _ := cache.Get("user-1")
	if entry != previous {
		t.Error("Failed write must leave the previous cache entry in place")
	}
}

func TestSyncMergesWithExistingCache(t *testing.T) {
	client := &fakeClient{
		snapshot: []map[string]any{
			{
				"ShareCommentary": "Updated snapshot post",
				"ShareLink":       "https://www.linkedin.com/feed/update/activity-111/",
				"Date":            "2024-05-01",
				"LikesCount":      "10",
			},
		},
	}
	cache := &fakeCache{entry: &database.CacheEntry{
		OwnerID: "user-1",
		Posts: []post.Post{{
			ID:         "activity-111",
			OwnerID:    "user-1",
			CreatedAt:  1714521600000,
			Text:       "Stale cached copy",
			SourceKind: post.SourceSnapshot,
			Engagement: post.Engagement{Likes: 2},
		}},
		FetchedAt: fixedNow().Add(-48 * time.Hour),
	}}

	result, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceMixed {
		t.Errorf("Expected source MIXED, got %s", result.Source)
	}
	if len(result.Posts) != 1 {
		t.Fatalf("Expected 1 deduplicated post, got %d", len(result.Posts))
	}
	if result.Posts[0].Engagement.Likes != 10 {
		t.Errorf("Expected fresh engagement to win, got %d likes", result.Posts[0].Engagement.Likes)
	}
}

func TestSyncSkipsNoiseRecords(t *testing.T) {
	client := &fakeClient{
		snapshot: []map[string]any{
			{"ShareCommentary": "ok"}, // too short, no media
			{"ShareCommentary": "A real post", "Date": "2024-05-01"},
		},
	}
	cache := &fakeCache{}

	result, err := newTestOrchestrator(client, cache).Sync(context.Background(), "user-1", "token", Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.PostsProcessed != 1 {
		t.Errorf("Expected 1 processed, got %d", result.PostsProcessed)
	}
	if result.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", result.Skipped)
	}
}

func TestSyncLimitTruncatesResponse(t *testing.T) {
	cache := &fakeCache{entry: &database.CacheEntry{
		OwnerID:   "user-1",
		Posts:     cachedPosts(8),
		FetchedAt: fixedNow().Add(-1 * time.Hour),
	}}

	result, err := newTestOrchestrator(&fakeClient{}, cache).Sync(context.Background(), "user-1", "token", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(result.Posts) != 5 {
		t.Errorf("Expected 5 posts, got %d", len(result.Posts))
	}
}

func TestSyncMaxPostsCapsPersistedList(t *testing.T) {
	var snapshot []map[string]any
	for i := 0; i < 4; i++ {
		snapshot = append(snapshot, map[string]any{
			"ShareCommentary": "a post with enough text",
			"ShareLink":       "https://www.linkedin.com/feed/update/urn:li:activity:70000000" + string(rune('0'+i)),
			"Date":            "2024-01-05",
		})
	}

	client := &fakeClient{snapshot: snapshot}
	cache := &fakeCache{}

	orchestrator := NewOrchestrator(client, cache, post.NewNormalizer(fixedNow),
		linkedin.DomainMemberShareInfo, 6*time.Hour, 2, fixedNow)

	result, err := orchestrator.Sync(context.Background(), "user-1", "token", Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.PostsProcessed != 4 {
		t.Errorf("Expected 4 processed, got %d", result.PostsProcessed)
	}
	if len(result.Posts) != 2 {
		t.Errorf("Expected persisted list capped at 2, got %d", len(result.Posts))
	}
	if cache.entry == nil || len(cache.entry.Posts) != 2 {
		t.Errorf("Expected cached list capped at 2, got %+v", cache.entry)
	}
}
