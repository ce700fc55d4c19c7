package database

import (
	"time"

	"github.com/kbox38/cignite/app/post"
)

type User struct {
	ID           string // Database UUID
	MemberURN    string // LinkedIn member URN (urn:li:person:...)
	Name         string
	Email        string
	AccessToken  string
	DMAActive    bool // Member Data Portability consent is active
	SyncEnabled  bool
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CacheEntry is one user's complete cached post list. It is fully replaced
// on every successful sync; it is never patched in place.
type CacheEntry struct {
	OwnerID   string
	Posts     []post.Post
	FetchedAt time.Time
}

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

type PartnerInvitation struct {
	ID         string
	FromUserID string
	ToUserID   string
	Message    string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
