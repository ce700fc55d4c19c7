package api

import (
	"context"

	"github.com/kbox38/cignite/app/cache"
	"github.com/kbox38/cignite/app/database"
	"github.com/kbox38/cignite/app/linkedin"
	"github.com/kbox38/cignite/app/post"
	"github.com/kbox38/cignite/app/suggest"
	postsync "github.com/kbox38/cignite/app/sync"
	"golang.org/x/oauth2"
)

// SyncInterface is the sync surface the handlers need.
type SyncInterface interface {
	Sync(ctx context.Context, ownerID, token string, opts postsync.Options) (*postsync.Result, error)
}

var _ SyncInterface = (*postsync.Orchestrator)(nil)

// ProviderInterface covers the provider calls made directly from handlers.
type ProviderInterface interface {
	FetchMemberAuthorization(ctx context.Context, token string) (*linkedin.MemberAuthorization, error)
	FetchSnapshot(ctx context.Context, token, domain string) ([]map[string]any, error)
}

var _ ProviderInterface = (*linkedin.Client)(nil)

// SuggestionInterface generates comment suggestions for a post.
type SuggestionInterface interface {
	CommentSuggestions(ctx context.Context, p post.Post) []suggest.Suggestion
}

var _ SuggestionInterface = (*suggest.Generator)(nil)

type Handler struct {
	userRepo    database.UserRepository
	cacheRepo   database.PostCacheRepository
	partnerRepo database.PartnerRepository
	syncService SyncInterface
	provider    ProviderInterface
	generator   SuggestionInterface
	oauthConf   *oauth2.Config
	redisCache  *cache.Cache
	jwtSecret   string
	dmaTTL      int // minutes
	version     string
}
