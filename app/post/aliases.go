package post

import (
	"fmt"
	"strings"
)

// Snapshot export field names have drifted across provider versions and
// locales ("ShareCommentary", "Share Commentary", "shareCommentary", ...).
// Each logical field is an ordered alias list resolved via first-match
// lookup, so supporting a new export version is a one-line change.

var textAliases = []string{
	"ShareCommentary", "Share Commentary", "shareCommentary",
	"Commentary", "commentary", "ShareText", "Message", "Text",
}

var permalinkAliases = []string{
	"ShareLink", "Share Link", "shareLink",
	"Permalink", "permalink", "ShareURL", "Share URL", "Link", "URL",
}

var dateAliases = []string{
	"Date", "Share Date", "ShareDate", "shareDate",
	"Created Date", "CreatedDate", "createdAt", "Created Time", "firstPublishedAt",
}

var mediaTypeAliases = []string{
	"MediaType", "Media Type", "mediaType", "SharedUrl Type", "Type",
}

var mediaURLAliases = []string{
	"MediaUrl", "Media URL", "mediaUrl", "MediaLink", "Media",
	"SharedUrl", "Shared URL", "ImageUrl", "VideoUrl",
}

var likesAliases = []string{
	"LikesCount", "Likes Count", "likesCount", "Likes", "NumLikes", "likeCount",
}

var commentsAliases = []string{
	"CommentsCount", "Comments Count", "commentsCount", "Comments", "NumComments", "commentCount",
}

var sharesAliases = []string{
	"SharesCount", "Shares Count", "sharesCount", "Shares", "NumShares", "shareCount",
}

// canonicalKey folds case and separator drift so "Share Commentary" and
// "share_commentary" resolve to the same field.
func canonicalKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// indexRecord builds a canonical-key lookup over a raw record. Values are
// stringified; nil and empty values are excluded.
func indexRecord(rec map[string]any) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		s := stringify(v)
		if s == "" {
			continue
		}
		ck := canonicalKey(k)
		if _, exists := out[ck]; !exists {
			out[ck] = s
		}
	}
	return out
}

// resolveField returns the first non-empty value matching the ordered alias
// list, or "" when no alias is present.
func resolveField(indexed map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := indexed[canonicalKey(alias)]; ok {
			return v
		}
	}
	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
