package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kbox38/cignite/app/post"
)

var _ PostCacheRepository = (*postCacheRepository)(nil)

type postCacheRepository struct {
	db *DB
}

func NewPostCacheRepository(db *DB) PostCacheRepository {
	return &postCacheRepository{db: db}
}

func (r *postCacheRepository) Get(ownerID string) (*CacheEntry, error) {
	var entry CacheEntry
	var serialized []byte

	err := r.db.QueryRow(`
		SELECT owner_id, posts, fetched_at
		FROM post_cache
		WHERE owner_id = $1
	`, ownerID).Scan(&entry.OwnerID, &serialized, &entry.FetchedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal(serialized, &entry.Posts); err != nil {
		return nil, fmt.Errorf("failed to decode cached posts: %w", err)
	}

	return &entry, nil
}

// Put replaces the owner's entire cached post list in a single upsert
// statement. Concurrent syncs for the same owner resolve last-writer-wins;
// readers never observe a partially replaced list.
func (r *postCacheRepository) Put(ownerID string, posts []post.Post) error {
	if posts == nil {
		posts = []post.Post{}
	}

	serialized, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO post_cache (owner_id, posts, fetched_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id) DO UPDATE SET
			posts = EXCLUDED.posts,
			fetched_at = EXCLUDED.fetched_at
	`, ownerID, serialized)

	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

func (r *postCacheRepository) Delete(ownerID string) error {
	_, err := r.db.Exec(`DELETE FROM post_cache WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}
