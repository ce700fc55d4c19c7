package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kbox38/cignite/app/cache"
	"github.com/kbox38/cignite/app/database"
)

const dmaStatusTTL = 15 * time.Minute

// RefreshAuthStatusTask re-checks the member's data portability consent.
// Revoked consent disables background sync for the user; existing cached
// posts are kept.
type RefreshAuthStatusTask struct {
	Task
	User       database.User
	client     AuthClient
	userRepo   database.UserRepository
	redisCache *cache.Cache
}

func NewRefreshAuthStatusTask(user database.User, client AuthClient,
	userRepo database.UserRepository, redisCache *cache.Cache) *RefreshAuthStatusTask {
	return &RefreshAuthStatusTask{
		Task:       NewTask(TaskTypeRefreshAuthStatus, user.ID),
		User:       user,
		client:     client,
		userRepo:   userRepo,
		redisCache: redisCache,
	}
}

func (t *RefreshAuthStatusTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	auth, err := t.client.FetchMemberAuthorization(ctx, t.User.AccessToken)
	if err != nil {
		slog.Error("Task failed", "type", "RefreshAuthStatus", "user", t.User.ID, "error", err)
		return fmt.Errorf("failed to fetch member authorization for user %s: %w", t.User.ID, err)
	}

	if err := t.userRepo.UpdateDMAStatus(t.User.ID, auth.Active); err != nil {
		return fmt.Errorf("failed to update DMA status for user %s: %w", t.User.ID, err)
	}

	if !auth.Active && t.User.SyncEnabled {
		if err := t.userRepo.SetSyncEnabled(t.User.ID, false); err != nil {
			return fmt.Errorf("failed to disable sync for user %s: %w", t.User.ID, err)
		}
		slog.Warn("Consent revoked, background sync disabled", "user", t.User.ID)
	}

	if err := t.redisCache.SetJSON(ctx, cache.DMAStatusKey(t.User.ID), auth, dmaStatusTTL); err != nil {
		slog.Warn("Failed to cache DMA status", "user", t.User.ID, "error", err)
	}

	slog.Info("Task completed",
		"type", "RefreshAuthStatus",
		"user", t.User.ID,
		"duration", t.GetDuration(),
		"active", auth.Active)

	return nil
}
