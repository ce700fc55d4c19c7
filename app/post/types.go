package post

import (
	"encoding/json"
)

// SourceKind identifies which provider feed produced a record. Merge
// precedence depends on it: changelog events carry fresher engagement
// numbers than snapshot exports.
type SourceKind string

const (
	SourceSnapshot  SourceKind = "BULK_EXPORT"
	SourceChangelog SourceKind = "INCREMENTAL_EVENT"
)

type MediaType string

const (
	MediaText         MediaType = "TEXT"
	MediaImage        MediaType = "IMAGE"
	MediaVideo        MediaType = "VIDEO"
	MediaArticle      MediaType = "ARTICLE"
	MediaDocument     MediaType = "DOCUMENT"
	MediaURNReference MediaType = "URN_REFERENCE"
	MediaNone         MediaType = "NONE"
)

type Engagement struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// Post is the canonical representation all downstream consumers operate on,
// regardless of originating feed.
type Post struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	CreatedAt      int64           `json:"createdAt"` // epoch milliseconds
	DateIsFallback bool            `json:"dateIsFallback,omitempty"`
	Text           string          `json:"text"`
	TextLength     int             `json:"textLength"`
	MediaType      MediaType       `json:"mediaType"`
	MediaURLs      []string        `json:"mediaUrls,omitempty"`
	Hashtags       []string        `json:"hashtags,omitempty"`
	Mentions       []string        `json:"mentions,omitempty"`
	Engagement     Engagement      `json:"engagement"`
	SourceKind     SourceKind      `json:"sourceKind"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}
