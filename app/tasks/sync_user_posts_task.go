package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kbox38/cignite/app/database"
	postsync "github.com/kbox38/cignite/app/sync"
)

type SyncUserPostsTask struct {
	Task
	User         database.User
	orchestrator *postsync.Orchestrator
	userRepo     database.UserRepository
}

func NewSyncUserPostsTask(user database.User, orchestrator *postsync.Orchestrator,
	userRepo database.UserRepository) *SyncUserPostsTask {
	return &SyncUserPostsTask{
		Task:         NewTask(TaskTypeSyncUserPosts, user.ID),
		User:         user,
		orchestrator: orchestrator,
		userRepo:     userRepo,
	}
}

func (t *SyncUserPostsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.orchestrator.Sync(ctx, t.User.ID, t.User.AccessToken, postsync.Options{})
	if err != nil {
		slog.Error("Task failed", "type", "SyncUserPosts", "user", t.User.ID, "error", err)
		return fmt.Errorf("failed to sync posts for user %s: %w", t.User.ID, err)
	}

	if err := t.userRepo.TouchLastSynced(t.User.ID); err != nil {
		return fmt.Errorf("failed to record sync time for user %s: %w", t.User.ID, err)
	}

	slog.Info("Task completed",
		"type", "SyncUserPosts",
		"user", t.User.ID,
		"duration", t.GetDuration(),
		"source", string(result.Source),
		"processed", result.PostsProcessed,
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	return nil
}
