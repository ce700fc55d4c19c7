package post

import (
	"testing"
)

func mkPost(id string, createdAt int64, kind SourceKind, likes int) Post {
	return Post{
		ID:         id,
		OwnerID:    "user-1",
		CreatedAt:  createdAt,
		Text:       "post " + id,
		SourceKind: kind,
		Engagement: Engagement{Likes: likes},
	}
}

func TestMergeDeduplicates(t *testing.T) {
	cached := []Post{mkPost("a", 100, SourceSnapshot, 1), mkPost("b", 200, SourceSnapshot, 2)}
	snapshot := []Post{mkPost("b", 200, SourceSnapshot, 5), mkPost("c", 300, SourceSnapshot, 0)}
	changelog := []Post{mkPost("c", 300, SourceChangelog, 0)}

	merged := Merge(cached, snapshot, changelog, 0)

	if len(merged) != 3 {
		t.Fatalf("Expected 3 unique posts, got %d", len(merged))
	}

	seen := make(map[string]int)
	for _, p := range merged {
		seen[p.ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("Post %s appears %d times", id, count)
		}
	}

	if len(merged) > len(cached)+len(snapshot)+len(changelog) {
		t.Error("Merged size exceeds sum of inputs")
	}
}

func TestMergeChangelogWinsOnCollision(t *testing.T) {
	cached := []Post{mkPost("a", 100, SourceChangelog, 2)}
	snapshot := []Post{mkPost("a", 100, SourceSnapshot, 7)}
	changelog := []Post{mkPost("a", 100, SourceChangelog, 9)}

	merged := Merge(cached, snapshot, changelog, 0)

	if len(merged) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(merged))
	}
	if merged[0].Engagement.Likes != 9 {
		t.Errorf("Expected changelog engagement (9 likes) to win, got %d", merged[0].Engagement.Likes)
	}
}

func TestMergeTextNeverBlended(t *testing.T) {
	older := mkPost("a", 100, SourceSnapshot, 0)
	older.Text = "post with a tpyo"
	newer := mkPost("a", 100, SourceChangelog, 0)
	newer.Text = "post with a typo fixed"

	merged := Merge(nil, []Post{older}, []Post{newer}, 0)

	if merged[0].Text != "post with a typo fixed" {
		t.Errorf("Expected higher-priority text to win wholesale, got '%s'", merged[0].Text)
	}
}

func TestMergeOrdersNewestFirst(t *testing.T) {
	posts := []Post{
		mkPost("old", 100, SourceSnapshot, 0),
		mkPost("new", 300, SourceSnapshot, 0),
		mkPost("mid", 200, SourceSnapshot, 0),
	}

	merged := Merge(nil, posts, nil, 0)

	expected := []string{"new", "mid", "old"}
	for i, id := range expected {
		if merged[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, merged[i].ID)
		}
	}
}

func TestMergeRealDateBeatsFallbackOnTie(t *testing.T) {
	fallback := mkPost("fallback", 200, SourceSnapshot, 0)
	fallback.DateIsFallback = true
	real := mkPost("real", 200, SourceSnapshot, 0)

	merged := Merge(nil, []Post{fallback, real}, nil, 0)

	if merged[0].ID != "real" {
		t.Errorf("Expected real-dated post first on timestamp tie, got %s", merged[0].ID)
	}
}

func TestMergeTruncatesToLimit(t *testing.T) {
	var posts []Post
	for i := 0; i < 10; i++ {
		posts = append(posts, mkPost(syntheticID(SourceSnapshot, int64(i), i), int64(i*100), SourceSnapshot, 0))
	}

	merged := Merge(nil, posts, nil, 5)

	if len(merged) != 5 {
		t.Fatalf("Expected 5 posts after truncation, got %d", len(merged))
	}
	// Truncation keeps the newest
	if merged[0].CreatedAt != 900 {
		t.Errorf("Expected newest post retained, got createdAt %d", merged[0].CreatedAt)
	}
}

func TestMergeSkipsEmptyIDs(t *testing.T) {
	posts := []Post{{OwnerID: "user-1", CreatedAt: 100}, mkPost("a", 200, SourceSnapshot, 0)}

	merged := Merge(nil, posts, nil, 0)

	if len(merged) != 1 {
		t.Fatalf("Expected empty-id post to be skipped, got %d posts", len(merged))
	}
}
