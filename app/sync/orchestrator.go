package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kbox38/cignite/app/database"
	"github.com/kbox38/cignite/app/linkedin"
	"github.com/kbox38/cignite/app/post"
)

// Source reports where a sync result's posts came from.
type Source string

const (
	SourceCache Source = "CACHE"
	SourceLive  Source = "LIVE"
	SourceMixed Source = "MIXED"
)

type Options struct {
	// Force skips the freshness gate and always refetches.
	Force bool
	// Limit truncates the merged list; <= 0 keeps everything.
	Limit int
}

type Result struct {
	// PostsProcessed counts freshly normalized records from this attempt.
	PostsProcessed int
	Source         Source
	Posts          []post.Post
	Skipped        int
	Errors         []string
}

// CacheWriteError is the one fatal sync failure: data was fetched but not
// durably saved, so the caller must not believe the sync succeeded.
type CacheWriteError struct {
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write failed: %v", e.Err)
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

// ProviderClient is the slice of the LinkedIn client the orchestrator
// needs.
type ProviderClient interface {
	FetchSnapshot(ctx context.Context, token, domain string) ([]map[string]any, error)
	FetchChangelog(ctx context.Context, token string, startTime int64) ([]linkedin.ChangelogEvent, error)
}

// Orchestrator is the single sync verb: decide whether to refetch, fetch
// both provider feeds, normalize, merge with the cached list, persist, and
// report the outcome. Provider and per-record failures degrade; only a
// cache write failure is fatal.
type Orchestrator struct {
	client         ProviderClient
	cache          database.PostCacheRepository
	normalizer     *post.Normalizer
	snapshotDomain string
	threshold      time.Duration
	maxPosts       int
	now            func() time.Time
}

// NewOrchestrator builds the sync orchestrator. maxPosts caps the persisted
// list after merging; <= 0 keeps everything.
func NewOrchestrator(client ProviderClient, cache database.PostCacheRepository,
	normalizer *post.Normalizer, snapshotDomain string, threshold time.Duration,
	maxPosts int, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		client:         client,
		cache:          cache,
		normalizer:     normalizer,
		snapshotDomain: snapshotDomain,
		threshold:      threshold,
		maxPosts:       maxPosts,
		now:            now,
	}
}

func (o *Orchestrator) Sync(ctx context.Context, ownerID, token string, opts Options) (*Result, error) {
	var syncErrors []string

	entry, err := o.cache.Get(ownerID)
	if err != nil {
		// A failed cache read degrades to a miss; the sync can still
		// produce a fresh result.
		slog.Warn("Cache read failed, treating as miss", "owner", ownerID, "error", err)
		syncErrors = append(syncErrors, err.Error())
		entry = nil
	}

	if !opts.Force && !StaleAt(entry, o.threshold, o.now()) {
		return &Result{
			PostsProcessed: 0,
			Source:         SourceCache,
			Posts:          truncate(entry.Posts, opts.Limit),
			Errors:         syncErrors,
		}, nil
	}

	// The two feeds are independent reads; fetch them concurrently and let
	// each fail on its own.
	var (
		wg          sync.WaitGroup
		snapshot    []map[string]any
		snapshotErr error
		events      []linkedin.ChangelogEvent
		eventsErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snapshot, snapshotErr = o.client.FetchSnapshot(ctx, token, o.snapshotDomain)
	}()
	go func() {
		defer wg.Done()
		events, eventsErr = o.client.FetchChangelog(ctx, token, 0)
	}()
	wg.Wait()

	if snapshotErr != nil {
		slog.Warn("Snapshot feed failed", "owner", ownerID, "error", snapshotErr)
		syncErrors = append(syncErrors, snapshotErr.Error())
	}
	if eventsErr != nil {
		slog.Warn("Changelog feed failed", "owner", ownerID, "error", eventsErr)
		syncErrors = append(syncErrors, eventsErr.Error())
	}

	if snapshotErr != nil && eventsErr != nil {
		if entry != nil {
			// Stale data beats no data.
			return &Result{
				Source: SourceCache,
				Posts:  truncate(entry.Posts, opts.Limit),
				Errors: syncErrors,
			}, nil
		}
		return nil, fmt.Errorf("both provider feeds failed with no usable cache: %s; %s",
			snapshotErr, eventsErr)
	}

	fresh, skipped := o.normalize(ownerID, snapshot, events)

	var cached []post.Post
	if entry != nil {
		cached = entry.Posts
	}

	var snapshotPosts, changelogPosts []post.Post
	for _, p := range fresh {
		if p.SourceKind == post.SourceChangelog {
			changelogPosts = append(changelogPosts, p)
		} else {
			snapshotPosts = append(snapshotPosts, p)
		}
	}

	merged := post.Merge(cached, snapshotPosts, changelogPosts, o.maxPosts)

	if err := o.cache.Put(ownerID, merged); err != nil {
		return nil, &CacheWriteError{Err: err}
	}

	source := SourceLive
	if len(cached) > 0 {
		source = SourceMixed
	}

	slog.Info("Sync completed",
		"owner", ownerID,
		"source", string(source),
		"processed", len(fresh),
		"skipped", skipped,
		"total", len(merged),
		"feed_errors", len(syncErrors))

	return &Result{
		PostsProcessed: len(fresh),
		Source:         source,
		Posts:          truncate(merged, opts.Limit),
		Skipped:        skipped,
		Errors:         syncErrors,
	}, nil
}

// normalize maps both raw batches to canonical posts. Per-record failures
// are logged and counted, never fatal.
func (o *Orchestrator) normalize(ownerID string, snapshot []map[string]any,
	events []linkedin.ChangelogEvent) ([]post.Post, int) {
	var posts []post.Post
	skipped := 0

	for i, rec := range snapshot {
		p, err := o.normalizer.FromSnapshot(ownerID, rec, i)
		if err != nil {
			if !errors.Is(err, post.ErrSkipped) {
				slog.Warn("Snapshot record normalization failed", "owner", ownerID, "index", i, "error", err)
			} else {
				slog.Debug("Snapshot record skipped", "owner", ownerID, "index", i, "reason", err)
			}
			skipped++
			continue
		}
		posts = append(posts, *p)
	}

	for i, event := range events {
		if event.Method != "" && event.Method != "CREATE" && event.Method != "UPDATE" {
			continue
		}
		p, err := o.normalizer.FromChangelog(ownerID, event.Activity, event.CapturedAt, i)
		if err != nil {
			if !errors.Is(err, post.ErrSkipped) {
				slog.Warn("Changelog event normalization failed", "owner", ownerID, "index", i, "error", err)
			} else {
				slog.Debug("Changelog event skipped", "owner", ownerID, "index", i, "reason", err)
			}
			skipped++
			continue
		}
		posts = append(posts, *p)
	}

	return posts, skipped
}

func truncate(posts []post.Post, limit int) []post.Post {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}
