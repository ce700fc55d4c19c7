package post

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestFromSnapshotRoundTrip(t *testing.T) {
	n := NewNormalizer(fixedNow)

	rec := map[string]any{
		"ShareCommentary": "Hello #world @bob",
		"ShareLink":       "https://www.linkedin.com/feed/update/activity-7123456789/",
		"Date":            "2024-01-05",
		"LikesCount":      "3",
		"CommentsCount":   "1",
	}

	p, err := n.FromSnapshot("user-1", rec, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if p.Text != "Hello #world @bob" {
		t.Errorf("Expected text 'Hello #world @bob', got '%s'", p.Text)
	}
	if len(p.Hashtags) != 1 || p.Hashtags[0] != "world" {
		t.Errorf("Expected hashtags [world], got %v", p.Hashtags)
	}
	if len(p.Mentions) != 1 || p.Mentions[0] != "bob" {
		t.Errorf("Expected mentions [bob], got %v", p.Mentions)
	}
	if p.Engagement.Likes != 3 {
		t.Errorf("Expected 3 likes, got %d", p.Engagement.Likes)
	}
	if p.Engagement.Comments != 1 {
		t.Errorf("Expected 1 comment, got %d", p.Engagement.Comments)
	}

	// 2024-01-05 00:00:00 UTC
	if p.CreatedAt != 1704412800000 {
		t.Errorf("Expected createdAt 1704412800000, got %d", p.CreatedAt)
	}
	if p.DateIsFallback {
		t.Error("Expected real date, not fallback")
	}

	if p.ID != "activity-7123456789" {
		t.Errorf("Expected id 'activity-7123456789', got '%s'", p.ID)
	}
	if p.OwnerID != "user-1" {
		t.Errorf("Expected owner 'user-1', got '%s'", p.OwnerID)
	}
	if p.SourceKind != SourceSnapshot {
		t.Errorf("Expected source %s, got %s", SourceSnapshot, p.SourceKind)
	}
}

func TestFromSnapshotAliasDrift(t *testing.T) {
	n := NewNormalizer(fixedNow)

	variants := []map[string]any{
		{"ShareCommentary": "Alias drift test post"},
		{"Share Commentary": "Alias drift test post"},
		{"shareCommentary": "Alias drift test post"},
		{"share_commentary": "Alias drift test post"},
	}

	for i, rec := range variants {
		p, err := n.FromSnapshot("user-1", rec, i)
		if err != nil {
			t.Fatalf("Variant %d: expected no error, got: %v", i, err)
		}
		if p.Text != "Alias drift test post" {
			t.Errorf("Variant %d: expected resolved text, got '%s'", i, p.Text)
		}
	}
}

func TestFromSnapshotDropsNoise(t *testing.T) {
	n := NewNormalizer(fixedNow)

	// 2 chars, no media, no permalink: not a real post
	_, err := n.FromSnapshot("user-1", map[string]any{"ShareCommentary": "ok"}, 0)
	if err == nil {
		t.Fatal("Expected short text without media to be dropped")
	}

	// Same text with media survives
	p, err := n.FromSnapshot("user-1", map[string]any{
		"ShareCommentary": "ok",
		"MediaUrl":        "https://media.example.com/photo.png",
	}, 0)
	if err != nil {
		t.Fatalf("Expected record with media to survive, got: %v", err)
	}
	if p.MediaType != MediaImage {
		t.Errorf("Expected IMAGE media type, got %s", p.MediaType)
	}
}

func TestFromSnapshotIdempotent(t *testing.T) {
	n := NewNormalizer(fixedNow)

	rec := map[string]any{
		"ShareCommentary": "Deterministic normalization",
		"Date":            "not a date at all",
	}

	first, err := n.FromSnapshot("user-1", rec, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := n.FromSnapshot("user-1", rec, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !first.DateIsFallback {
		t.Error("Expected fallback date for unparseable value")
	}
	if first.CreatedAt != second.CreatedAt || first.ID != second.ID || first.Text != second.Text {
		t.Error("Expected identical posts from identical input")
	}
	if first.CreatedAt != fixedNow().UnixMilli() {
		t.Errorf("Expected fallback to fixed now, got %d", first.CreatedAt)
	}
}

func TestFromSnapshotSyntheticID(t *testing.T) {
	n := NewNormalizer(fixedNow)

	p, err := n.FromSnapshot("user-1", map[string]any{
		"ShareCommentary": "No permalink on this one",
		"Date":            "2024-02-01",
	}, 7)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if p.ID == "" {
		t.Fatal("Expected synthetic id")
	}
	if p.ID != syntheticID(SourceSnapshot, p.CreatedAt, 7) {
		t.Errorf("Unexpected synthetic id: %s", p.ID)
	}
}

func TestFromSnapshotTruncatesPreview(t *testing.T) {
	n := NewNormalizer(fixedNow)

	long := make([]rune, 800)
	for i := range long {
		long[i] = 'a'
	}

	p, err := n.FromSnapshot("user-1", map[string]any{"ShareCommentary": string(long)}, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len([]rune(p.Text)) != textPreviewLength {
		t.Errorf("Expected preview of %d runes, got %d", textPreviewLength, len([]rune(p.Text)))
	}
	if p.TextLength != 800 {
		t.Errorf("Expected original length 800, got %d", p.TextLength)
	}
}

func TestFromSnapshotEpochDates(t *testing.T) {
	n := NewNormalizer(fixedNow)

	// Seconds and milliseconds variants of the same instant
	secs, err := n.FromSnapshot("user-1", map[string]any{
		"ShareCommentary": "Epoch seconds post",
		"Date":            "1704412800",
	}, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	millis, err := n.FromSnapshot("user-1", map[string]any{
		"ShareCommentary": "Epoch millis post",
		"Date":            "1704412800000",
	}, 1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if secs.CreatedAt != 1704412800000 {
		t.Errorf("Expected seconds scaled to millis, got %d", secs.CreatedAt)
	}
	if millis.CreatedAt != 1704412800000 {
		t.Errorf("Expected millis kept as-is, got %d", millis.CreatedAt)
	}
}

func TestFromChangelog(t *testing.T) {
	n := NewNormalizer(fixedNow)

	activity := map[string]any{
		"id": "urn:li:share:9876543210",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary": map[string]any{
					"text": "Changelog post #golang",
				},
				"shareMediaCategory": "IMAGE",
				"media": []any{
					map[string]any{"originalUrl": "https://media.example.com/a.jpg"},
				},
			},
		},
		"created": map[string]any{"time": float64(1706745600000)},
	}

	p, err := n.FromChangelog("user-1", activity, 1706832000000, 0)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if p.ID != "activity-9876543210" {
		t.Errorf("Expected id 'activity-9876543210', got '%s'", p.ID)
	}
	if p.Text != "Changelog post #golang" {
		t.Errorf("Unexpected text: '%s'", p.Text)
	}
	if p.CreatedAt != 1706745600000 {
		t.Errorf("Expected created time from activity, got %d", p.CreatedAt)
	}
	if p.MediaType != MediaImage {
		t.Errorf("Expected IMAGE, got %s", p.MediaType)
	}
	if len(p.MediaURLs) != 1 || p.MediaURLs[0] != "https://media.example.com/a.jpg" {
		t.Errorf("Unexpected media URLs: %v", p.MediaURLs)
	}
	if p.SourceKind != SourceChangelog {
		t.Errorf("Expected source %s, got %s", SourceChangelog, p.SourceKind)
	}

	// Changelog events carry no engagement counts; they stay zero.
	if p.Engagement.Likes != 0 || p.Engagement.Comments != 0 || p.Engagement.Shares != 0 {
		t.Errorf("Expected zero engagement, got %+v", p.Engagement)
	}
}

func TestFromChangelogBareCommentary(t *testing.T) {
	n := NewNormalizer(fixedNow)

	p, err := n.FromChangelog("user-1", map[string]any{
		"commentary": "Plain commentary string",
	}, 1706832000000, 3)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if p.Text != "Plain commentary string" {
		t.Errorf("Unexpected text: '%s'", p.Text)
	}
	// Falls back to capture time, which is a real timestamp
	if p.CreatedAt != 1706832000000 {
		t.Errorf("Expected capture time, got %d", p.CreatedAt)
	}
	if p.DateIsFallback {
		t.Error("Capture time is not a fallback date")
	}
}

func TestChangelogDropsEmptyActivity(t *testing.T) {
	n := NewNormalizer(fixedNow)

	_, err := n.FromChangelog("user-1", map[string]any{"id": "urn:li:share:1"}, 0, 0)
	if err == nil {
		t.Fatal("Expected empty activity to be dropped")
	}
}

func TestExtractActivityID(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"https://www.linkedin.com/feed/update/activity-7123/", "activity-7123"},
		{"urn:li:activity:42", "activity-42"},
		{"urn:li:ugcPost:99", "activity-99"},
		{"https://example.com/no-activity-id-here", ""},
		{"", ""},
	}

	for _, c := range cases {
		if got := extractActivityID(c.input); got != c.expected {
			t.Errorf("extractActivityID(%q) = %q, expected %q", c.input, got, c.expected)
		}
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		input    string
		expected int
	}{
		{"3", 3},
		{"1,204", 1204},
		{"12.0", 12},
		{"", 0},
		{"n/a", 0},
		{"-5", 0},
	}

	for _, c := range cases {
		if got := parseCount(c.input); got != c.expected {
			t.Errorf("parseCount(%q) = %d, expected %d", c.input, got, c.expected)
		}
	}
}

func TestClassifyMediaURL(t *testing.T) {
	cases := []struct {
		url      string
		expected MediaType
	}{
		{"https://cdn.example.com/photo.png", MediaImage},
		{"https://cdn.example.com/clip.mp4", MediaVideo},
		{"https://cdn.example.com/deck.pdf", MediaDocument},
		{"https://www.linkedin.com/pulse/some-article", MediaArticle},
	}

	for _, c := range cases {
		if got := classifyMediaURL(c.url); got != c.expected {
			t.Errorf("classifyMediaURL(%q) = %s, expected %s", c.url, got, c.expected)
		}
	}
}

func TestExtractTagsDeduplicates(t *testing.T) {
	tags := extractTags("go #Go #go #golang again #Go", hashtagPattern)
	if len(tags) != 2 {
		t.Fatalf("Expected 2 unique tags, got %v", tags)
	}
	if tags[0] != "go" || tags[1] != "golang" {
		t.Errorf("Expected insertion order [go golang], got %v", tags)
	}
}

func TestFromSnapshotExtraAliases(t *testing.T) {
	n := NewNormalizer(fixedNow)
	n.AddFieldAliases(FieldText, "Custom Body")
	n.AddFieldAliases(FieldLikes, "Reactions Total")

	rec := map[string]any{
		"Custom Body":     "A post arriving under a renamed export column",
		"Reactions Total": "12",
		"ShareLink":       "https://www.linkedin.com/feed/update/urn:li:activity:7000000000",
	}

	p, err := n.FromSnapshot("owner-1", rec, 0)
	if err != nil {
		t.Fatal(err)
	}

	if p.Text != "A post arriving under a renamed export column" {
		t.Errorf("Expected text resolved through extra alias, got %q", p.Text)
	}
	if p.Engagement.Likes != 12 {
		t.Errorf("Expected 12 likes through extra alias, got %d", p.Engagement.Likes)
	}
}
