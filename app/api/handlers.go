package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/oauth2"

	"github.com/kbox38/cignite/app/analytics"
	"github.com/kbox38/cignite/app/cache"
	"github.com/kbox38/cignite/app/database"
	"github.com/kbox38/cignite/app/linkedin"
	"github.com/kbox38/cignite/app/post"
	postsync "github.com/kbox38/cignite/app/sync"
)

const defaultPartnerPostLimit = 5

const stateCookieName = "oauth_state"

func NewHandler(userRepo database.UserRepository, cacheRepo database.PostCacheRepository,
	partnerRepo database.PartnerRepository, syncService SyncInterface,
	provider ProviderInterface, generator SuggestionInterface,
	oauthConf *oauth2.Config, redisCache *cache.Cache,
	jwtSecret string, dmaTTLMinutes int, version string) *Handler {
	return &Handler{
		userRepo:    userRepo,
		cacheRepo:   cacheRepo,
		partnerRepo: partnerRepo,
		syncService: syncService,
		provider:    provider,
		generator:   generator,
		oauthConf:   oauthConf,
		redisCache:  redisCache,
		jwtSecret:   jwtSecret,
		dmaTTL:      dmaTTLMinutes,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if userCount, err := h.userRepo.GetUserCount(); err == nil {
		health["users"] = userCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) BeginLinkedInAuth(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(stateCookieName, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.oauthConf.AuthCodeURL(state))
}

// AuthCallback completes the OAuth flow: exchange the code, confirm the
// member's data portability consent, upsert the user, and mint a session
// token.
func (h *Handler) AuthCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Authorization denied",
			"details": errParam,
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	expectedState, err := c.Cookie(stateCookieName)
	if err != nil || c.Query("state") != expectedState {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}

	token, err := linkedin.ExchangeCode(c.Request.Context(), h.oauthConf, code)
	if err != nil {
		slog.Error("OAuth code exchange failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	auth, err := h.provider.FetchMemberAuthorization(c.Request.Context(), token.AccessToken)
	if err != nil {
		slog.Error("Member authorization check failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to verify data portability consent"})
		return
	}

	if auth == nil || auth.MemberURN == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Data portability consent not granted"})
		return
	}

	name, email := h.fetchProfile(c.Request.Context(), token.AccessToken)

	userID, err := h.userRepo.UpsertUser(auth.MemberURN, name, email, token.AccessToken, auth.Active)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store user"})
		return
	}

	if auth.Active {
		if err := h.userRepo.SetSyncEnabled(userID, true); err != nil {
			slog.Warn("Failed to enable sync", "user", userID, "error", err)
		}
	}

	session, err := issueSessionToken(h.jwtSecret, userID)
	if err != nil {
		slog.Error("Failed to issue session token", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     session,
		"userId":    userID,
		"dmaActive": auth.Active,
	})
}

// fetchProfile pulls name and email from the profile snapshot domain.
// Best effort; the user record works without them.
func (h *Handler) fetchProfile(ctx context.Context, token string) (string, string) {
	records, err := h.provider.FetchSnapshot(ctx, token, linkedin.DomainProfile)
	if err != nil || len(records) == 0 {
		return "", ""
	}

	rec := records[0]
	first := profileField(rec, "First Name", "firstName")
	last := profileField(rec, "Last Name", "lastName")
	email := profileField(rec, "Email Address", "emailAddress", "Email")

	name := first
	if last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}

	return name, email
}

func profileField(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := rec[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) GetPosts(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	result, err := h.syncService.Sync(c.Request.Context(), user.ID, user.AccessToken, postsync.Options{Limit: limit})
	if err != nil {
		h.syncError(c, user.ID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":     result.Posts,
		"total":     len(result.Posts),
		"source":    result.Source,
		"processed": result.PostsProcessed,
		"skipped":   result.Skipped,
		"errors":    result.Errors,
	})
}

func (h *Handler) SyncPosts(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	var body struct {
		Force bool `json:"force"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	result, err := h.syncService.Sync(c.Request.Context(), user.ID, user.AccessToken, postsync.Options{Force: body.Force})
	if err != nil {
		h.syncError(c, user.ID, err)
		return
	}

	if err := h.userRepo.TouchLastSynced(user.ID); err != nil {
		slog.Warn("Failed to record sync time", "user", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"source":    result.Source,
		"processed": result.PostsProcessed,
		"skipped":   result.Skipped,
		"total":     len(result.Posts),
		"errors":    result.Errors,
	})
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	result, err := h.syncService.Sync(c.Request.Context(), user.ID, user.AccessToken, postsync.Options{})
	if err != nil {
		h.syncError(c, user.ID, err)
		return
	}

	summary := analytics.Compute(result.Posts)

	c.JSON(http.StatusOK, gin.H{
		"analytics": summary,
		"source":    result.Source,
		"errors":    result.Errors,
	})
}

// GetDMAStatus reports the member's data portability consent, re-checked
// against the provider at most once per TTL window.
func (h *Handler) GetDMAStatus(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}

	key := cache.DMAStatusKey(user.ID)

	var cached linkedin.MemberAuthorization
	if found, err := h.redisCache.GetJSON(c.Request.Context(), key, &cached); err == nil && found {
		c.JSON(http.StatusOK, gin.H{
			"active":      cached.Active,
			"scopes":      cached.Scopes,
			"regulatedAt": cached.RegulatedAt,
			"cached":      true,
		})
		return
	}

	auth, err := h.provider.FetchMemberAuthorization(c.Request.Context(), user.AccessToken)
	if err != nil {
		var unavailable *linkedin.UnavailableError
		if errors.As(err, &unavailable) {
			// Revoked or expired credentials mean consent is gone.
			auth = &linkedin.MemberAuthorization{Active: false}
		} else {
			slog.Error("Member authorization check failed", "user", user.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to check consent status"})
			return
		}
	}

	if err := h.userRepo.UpdateDMAStatus(user.ID, auth.Active); err != nil {
		slog.Warn("Failed to persist DMA status", "user", user.ID, "error", err)
	}

	ttl := time.Duration(h.dmaTTL) * time.Minute
	if err := h.redisCache.SetJSON(c.Request.Context(), key, auth, ttl); err != nil {
		slog.Warn("Failed to cache DMA status", "user", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"active":      auth.Active,
		"scopes":      auth.Scopes,
		"regulatedAt": auth.RegulatedAt,
		"cached":      false,
	})
}

func (h *Handler) ListPartners(c *gin.Context) {
	userID := currentUserID(c)

	partners, err := h.partnerRepo.ListPartners(userID)
	if err != nil {
		slog.Error("Database error", "operation", "list_partners", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list partners"})
		return
	}

	out := make([]gin.H, 0, len(partners))
	for _, p := range partners {
		out = append(out, gin.H{
			"id":    p.ID,
			"name":  p.Name,
			"email": p.Email,
		})
	}

	c.JSON(http.StatusOK, gin.H{"partners": out, "total": len(out)})
}

func (h *Handler) ListInvitations(c *gin.Context) {
	userID := currentUserID(c)

	invitations, err := h.partnerRepo.ListInvitationsForUser(userID)
	if err != nil {
		slog.Error("Database error", "operation", "list_invitations", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invitations"})
		return
	}

	out := make([]gin.H, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, gin.H{
			"id":         inv.ID,
			"fromUserId": inv.FromUserID,
			"toUserId":   inv.ToUserID,
			"message":    inv.Message,
			"status":     inv.Status,
			"createdAt":  inv.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"invitations": out, "total": len(out)})
}

func (h *Handler) CreateInvitation(c *gin.Context) {
	userID := currentUserID(c)

	var body struct {
		ToUserID string `json:"toUserId"`
		Message  string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if body.ToUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing toUserId"})
		return
	}
	if body.ToUserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot invite yourself"})
		return
	}

	target, err := h.userRepo.GetUser(body.ToUserID)
	if err != nil {
		slog.Error("Database error", "operation", "get_user", "user", body.ToUserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	id, err := h.partnerRepo.CreateInvitation(userID, body.ToUserID, body.Message)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "Invitation already exists"})
			return
		}
		slog.Error("Database error", "operation", "create_invitation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "status": database.InvitationPending})
}

func (h *Handler) AcceptInvitation(c *gin.Context) {
	h.resolveInvitation(c, database.InvitationAccepted)
}

func (h *Handler) DeclineInvitation(c *gin.Context) {
	h.resolveInvitation(c, database.InvitationDeclined)
}

// resolveInvitation transitions a pending invitation. Only the invited user
// can accept or decline.
func (h *Handler) resolveInvitation(c *gin.Context, status string) {
	userID := currentUserID(c)
	id := c.Param("id")

	inv, err := h.partnerRepo.GetInvitation(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_invitation", "invitation", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up invitation"})
		return
	}
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}
	if inv.ToUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invitation is not addressed to you"})
		return
	}

	if err := h.partnerRepo.UpdateInvitationStatus(id, status); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation is not pending", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// GetPartnerPosts serves a partner's cached posts. The partner's own sync
// schedule keeps the cache current; no live fetch happens with someone
// else's token.
func (h *Handler) GetPartnerPosts(c *gin.Context) {
	userID := currentUserID(c)
	partnerID := c.Param("id")

	isPartner, err := h.isPartner(userID, partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify partnership"})
		return
	}
	if !isPartner {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a partner"})
		return
	}

	limit := defaultPartnerPostLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	entry, err := h.cacheRepo.Get(partnerID)
	if err != nil {
		slog.Error("Database error", "operation", "get_post_cache", "owner", partnerID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read partner posts"})
		return
	}

	var posts []post.Post
	var fetchedAt *time.Time
	if entry != nil {
		posts = entry.Posts
		fetchedAt = &entry.FetchedAt
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":     posts,
		"total":     len(posts),
		"fetchedAt": fetchedAt,
	})
}

func (h *Handler) CreateSuggestions(c *gin.Context) {
	userID := currentUserID(c)

	var body struct {
		PostID string `json:"postId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PostID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing postId"})
		return
	}

	target, err := h.findAccessiblePost(userID, body.PostID)
	if err != nil {
		slog.Error("Database error", "operation", "find_post", "post", body.PostID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up post"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	suggestions := h.generator.CommentSuggestions(c.Request.Context(), *target)

	c.JSON(http.StatusOK, gin.H{
		"postId":      body.PostID,
		"suggestions": suggestions,
	})
}

// findAccessiblePost looks for the post in the user's own cache, then in
// each partner's cache.
func (h *Handler) findAccessiblePost(userID, postID string) (*post.Post, error) {
	owners := []string{userID}

	partners, err := h.partnerRepo.ListPartners(userID)
	if err != nil {
		return nil, err
	}
	for _, p := range partners {
		owners = append(owners, p.ID)
	}

	for _, owner := range owners {
		entry, err := h.cacheRepo.Get(owner)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		for i := range entry.Posts {
			if entry.Posts[i].ID == postID {
				return &entry.Posts[i], nil
			}
		}
	}

	return nil, nil
}

func (h *Handler) isPartner(userID, partnerID string) (bool, error) {
	partners, err := h.partnerRepo.ListPartners(userID)
	if err != nil {
		return false, err
	}
	for _, p := range partners {
		if p.ID == partnerID {
			return true, nil
		}
	}
	return false, nil
}

// requireUser loads the authenticated user's record.
func (h *Handler) requireUser(c *gin.Context) (*database.User, bool) {
	userID := currentUserID(c)

	user, err := h.userRepo.GetUser(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_user", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}

	return user, true
}

func (h *Handler) syncError(c *gin.Context, userID string, err error) {
	var cacheWrite *postsync.CacheWriteError
	if errors.As(err, &cacheWrite) {
		slog.Error("Cache write failed during sync", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist synced posts"})
		return
	}

	slog.Error("Sync failed", "user", userID, "error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "Sync failed", "details": err.Error()})
}
