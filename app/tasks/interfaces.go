package tasks

import (
	"context"

	"github.com/kbox38/cignite/app/linkedin"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. The main application starts it once and enqueues ad-hoc tasks
// through it.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// AuthClient is the provider surface the auth refresh task needs.
type AuthClient interface {
	FetchMemberAuthorization(ctx context.Context, token string) (*linkedin.MemberAuthorization, error)
}
