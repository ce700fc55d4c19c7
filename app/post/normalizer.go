package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"
)

const (
	// Stored text is a bounded preview; the original length is kept in
	// TextLength.
	textPreviewLength = 500

	// Records with shorter text and no media or permalink are noise, not
	// posts.
	minTextLength = 3
)

// ErrSkipped marks a raw record that could not be turned into a usable Post.
// Callers log and move on; a skipped record never aborts a batch.
var ErrSkipped = errors.New("record skipped")

var (
	activityIDPattern = regexp.MustCompile(`activity[-:](\d+)`)
	shareURNPattern   = regexp.MustCompile(`urn:li:(?:activity|share|ugcPost):(\d+)`)
	hashtagPattern    = regexp.MustCompile(`#(\w+)`)
	mentionPattern    = regexp.MustCompile(`@(\w+)`)
)

// Logical field names accepted by AddFieldAliases.
const (
	FieldText      = "text"
	FieldPermalink = "permalink"
	FieldDate      = "date"
	FieldMediaType = "media_type"
	FieldMediaURL  = "media_url"
	FieldLikes     = "likes"
	FieldComments  = "comments"
	FieldShares    = "shares"
)

type Normalizer struct {
	now          func() time.Time
	extraAliases map[string][]string
}

// NewNormalizer creates a normalizer. The now function is injected so the
// date-fallback path stays deterministic under test; nil means time.Now.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now, extraAliases: make(map[string][]string)}
}

// AddFieldAliases registers additional snapshot field names for a logical
// field. Extra aliases are consulted after the built-in ones.
func (n *Normalizer) AddFieldAliases(field string, names ...string) {
	n.extraAliases[field] = append(n.extraAliases[field], names...)
}

func (n *Normalizer) aliases(field string, base []string) []string {
	extra := n.extraAliases[field]
	if len(extra) == 0 {
		return base
	}
	return append(append([]string{}, base...), extra...)
}

// FromSnapshot maps one flat key/value record from the bulk snapshot export
// to a canonical Post. Field names are resolved through the alias tables.
func (n *Normalizer) FromSnapshot(ownerID string, rec map[string]any, index int) (*Post, error) {
	indexed := indexRecord(rec)

	text := normalizeText(resolveField(indexed, n.aliases(FieldText, textAliases)))
	permalink := resolveField(indexed, n.aliases(FieldPermalink, permalinkAliases))
	mediaURL := resolveField(indexed, n.aliases(FieldMediaURL, mediaURLAliases))

	if utf8.RuneCountInString(text) < minTextLength && mediaURL == "" && permalink == "" {
		return nil, fmt.Errorf("%w: text too short and no media or permalink", ErrSkipped)
	}

	createdAt, dateFallback := n.resolveDate(resolveField(indexed, n.aliases(FieldDate, dateAliases)))

	id := extractActivityID(permalink)
	if id == "" {
		id = syntheticID(SourceSnapshot, createdAt, index)
	}

	var mediaURLs []string
	if mediaURL != "" {
		mediaURLs = []string{mediaURL}
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: unserializable record: %v", ErrSkipped, err)
	}

	return &Post{
		ID:             id,
		OwnerID:        ownerID,
		CreatedAt:      createdAt,
		DateIsFallback: dateFallback,
		Text:           truncateText(text),
		TextLength:     utf8.RuneCountInString(text),
		MediaType:      resolveMediaType(resolveField(indexed, n.aliases(FieldMediaType, mediaTypeAliases)), mediaURL, text),
		MediaURLs:      mediaURLs,
		Hashtags:       extractTags(text, hashtagPattern),
		Mentions:       extractTags(text, mentionPattern),
		Engagement: Engagement{
			Likes:    parseCount(resolveField(indexed, n.aliases(FieldLikes, likesAliases))),
			Comments: parseCount(resolveField(indexed, n.aliases(FieldComments, commentsAliases))),
			Shares:   parseCount(resolveField(indexed, n.aliases(FieldShares, sharesAliases))),
		},
		SourceKind: SourceSnapshot,
		Raw:        raw,
	}, nil
}

// FromChangelog maps one changelog activity payload to a canonical Post.
// Changelog events carry nested share content rather than flat export
// fields, and never carry engagement counts; those stay zero rather than
// being invented.
func (n *Normalizer) FromChangelog(ownerID string, activity map[string]any, capturedAt int64, index int) (*Post, error) {
	text := normalizeText(changelogText(activity))
	mediaType, mediaURLs := changelogMedia(activity)

	if utf8.RuneCountInString(text) < minTextLength && len(mediaURLs) == 0 {
		return nil, fmt.Errorf("%w: text too short and no media", ErrSkipped)
	}

	createdAt, dateFallback := n.changelogDate(activity, capturedAt)

	id := extractActivityID(stringify(activity["id"]))
	if id == "" {
		id = syntheticID(SourceChangelog, createdAt, index)
	}

	if mediaType == MediaNone && text != "" {
		mediaType = MediaText
	}

	raw, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("%w: unserializable activity: %v", ErrSkipped, err)
	}

	return &Post{
		ID:             id,
		OwnerID:        ownerID,
		CreatedAt:      createdAt,
		DateIsFallback: dateFallback,
		Text:           truncateText(text),
		TextLength:     utf8.RuneCountInString(text),
		MediaType:      mediaType,
		MediaURLs:      mediaURLs,
		Hashtags:       extractTags(text, hashtagPattern),
		Mentions:       extractTags(text, mentionPattern),
		SourceKind:     SourceChangelog,
		Raw:            raw,
	}, nil
}

// resolveDate parses a date alias value. Unparseable or missing values fall
// back to ingestion time with the fallback flag set.
func (n *Normalizer) resolveDate(val string) (int64, bool) {
	if val == "" {
		return n.now().UnixMilli(), true
	}

	// Numeric values are epoch timestamps; the snapshot export has shipped
	// both seconds and milliseconds.
	if epoch, err := strconv.ParseInt(val, 10, 64); err == nil {
		return epochToMillis(epoch), false
	}

	parsed, err := dateparse.ParseIn(val, time.UTC)
	if err != nil {
		return n.now().UnixMilli(), true
	}

	return parsed.UnixMilli(), false
}

func (n *Normalizer) changelogDate(activity map[string]any, capturedAt int64) (int64, bool) {
	if created, ok := activity["created"].(map[string]any); ok {
		if t, ok := created["time"].(float64); ok && t > 0 {
			return epochToMillis(int64(t)), false
		}
	}
	if capturedAt > 0 {
		return epochToMillis(capturedAt), false
	}
	return n.now().UnixMilli(), true
}

// changelogText resolves post text from the shapes the changelog has used:
// a bare commentary string, a commentary object, or the nested ugc share
// content.
func changelogText(activity map[string]any) string {
	switch c := activity["commentary"].(type) {
	case string:
		return c
	case map[string]any:
		if t, ok := c["text"].(string); ok {
			return t
		}
	}

	if content := shareContent(activity); content != nil {
		if commentary, ok := content["shareCommentary"].(map[string]any); ok {
			if t, ok := commentary["text"].(string); ok {
				return t
			}
		}
	}

	return ""
}

func changelogMedia(activity map[string]any) (MediaType, []string) {
	content := shareContent(activity)
	if content == nil {
		return MediaNone, nil
	}

	mediaType := MediaNone
	if category, ok := content["shareMediaCategory"].(string); ok {
		mediaType = classifyMediaType(category)
	}

	var urls []string
	if media, ok := content["media"].([]any); ok {
		for _, m := range media {
			entry, ok := m.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"originalUrl", "originalURL", "url", "link"} {
				if u, ok := entry[key].(string); ok && u != "" {
					urls = append(urls, u)
					break
				}
			}
		}
	}

	if mediaType == MediaNone && len(urls) > 0 {
		mediaType = classifyMediaURL(urls[0])
	}

	return mediaType, urls
}

func shareContent(activity map[string]any) map[string]any {
	specific, ok := activity["specificContent"].(map[string]any)
	if !ok {
		return nil
	}
	content, ok := specific["com.linkedin.ugc.ShareContent"].(map[string]any)
	if !ok {
		return nil
	}
	return content
}

// resolveMediaType prefers an explicit provider type field, then URL
// heuristics, then the presence of text.
func resolveMediaType(explicit, mediaURL, text string) MediaType {
	if explicit != "" {
		if t := classifyMediaType(explicit); t != MediaNone {
			return t
		}
	}
	if mediaURL != "" {
		return classifyMediaURL(mediaURL)
	}
	if text != "" {
		return MediaText
	}
	return MediaNone
}

func classifyMediaType(val string) MediaType {
	v := strings.ToUpper(strings.TrimSpace(val))
	switch v {
	case "TEXT", "NONE", "IMAGE", "VIDEO", "ARTICLE", "DOCUMENT", "URN_REFERENCE":
		return MediaType(v)
	}

	lower := strings.ToLower(v)
	switch {
	case strings.HasPrefix(lower, "urn:"):
		return MediaURNReference
	case containsAny(lower, "image", "photo", "jpg", "jpeg", "png", "gif", "webp"):
		return MediaImage
	case containsAny(lower, "video", "mp4", "mov", "webm"):
		return MediaVideo
	case containsAny(lower, "article", "pulse"):
		return MediaArticle
	case containsAny(lower, "document", "pdf", "doc", "ppt"):
		return MediaDocument
	}
	return MediaNone
}

func classifyMediaURL(url string) MediaType {
	lower := strings.ToLower(url)
	switch {
	case containsAny(lower, "image", "jpg", "jpeg", "png", "gif", "webp"):
		return MediaImage
	case containsAny(lower, "video", "mp4", "mov", "webm"):
		return MediaVideo
	case containsAny(lower, "pdf", "doc", "ppt"):
		return MediaDocument
	case containsAny(lower, "/pulse/", "article"):
		return MediaArticle
	case strings.HasPrefix(lower, "urn:"):
		return MediaURNReference
	}
	return MediaImage
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// extractActivityID pulls the stable numeric activity id out of a permalink
// or URN. Returns "" when no known pattern matches.
func extractActivityID(val string) string {
	if val == "" {
		return ""
	}
	if m := activityIDPattern.FindStringSubmatch(val); m != nil {
		return "activity-" + m[1]
	}
	if m := shareURNPattern.FindStringSubmatch(val); m != nil {
		return "activity-" + m[1]
	}
	return ""
}

func syntheticID(kind SourceKind, createdAt int64, index int) string {
	return fmt.Sprintf("%s-%d-%d", strings.ToLower(string(kind)), createdAt, index)
}

// extractTags returns lower-cased, prefix-stripped tags in order of first
// appearance.
func extractTags(text string, pattern *regexp.Regexp) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

func normalizeText(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

func truncateText(text string) string {
	runes := []rune(text)
	if len(runes) <= textPreviewLength {
		return text
	}
	return string(runes[:textPreviewLength])
}

// parseCount parses an engagement count defensively. Non-numeric and
// negative values become 0; counts are never invented.
func parseCount(val string) int {
	if val == "" {
		return 0
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		if f, ferr := strconv.ParseFloat(cleaned, 64); ferr == nil {
			n = int(f)
		} else {
			return 0
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

func epochToMillis(epoch int64) int64 {
	// Values below ~1e12 are seconds (would otherwise be dates in 1970).
	if epoch < 1_000_000_000_000 {
		return epoch * 1000
	}
	return epoch
}
