package database

import (
	"time"

	"github.com/kbox38/cignite/app/post"
)

type UserRepository interface {
	GetUser(id string) (*User, error)
	GetUserByMemberURN(memberURN string) (*User, error)
	UpsertUser(memberURN, name, email, accessToken string, dmaActive bool) (string, error)
	UpdateDMAStatus(id string, active bool) error
	SetSyncEnabled(id string, enabled bool) error
	TouchLastSynced(id string) error
	GetUsersDueForSync(threshold time.Duration, limit int) ([]User, error)
	GetUserCount() (int, error)
}

// PostCacheRepository is the freshness-gated cache. Put is a full replace:
// the stored entry is always a complete snapshot from exactly one sync
// attempt, last writer wins.
type PostCacheRepository interface {
	Get(ownerID string) (*CacheEntry, error)
	Put(ownerID string, posts []post.Post) error
	Delete(ownerID string) error
}

type PartnerRepository interface {
	CreateInvitation(fromUserID, toUserID, message string) (string, error)
	GetInvitation(id string) (*PartnerInvitation, error)
	ListInvitationsForUser(userID string) ([]PartnerInvitation, error)
	UpdateInvitationStatus(id, status string) error
	ListPartners(userID string) ([]User, error)
}
