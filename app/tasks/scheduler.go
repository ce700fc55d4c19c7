package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kbox38/cignite/app/cache"
	"github.com/kbox38/cignite/app/cfg"
	"github.com/kbox38/cignite/app/database"
	postsync "github.com/kbox38/cignite/app/sync"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// syncBatchSize bounds how many due users one tick can enqueue.
const syncBatchSize = 50

type Scheduler struct {
	userRepo      database.UserRepository
	orchestrator  *postsync.Orchestrator
	client        AuthClient
	redisCache    *cache.Cache
	syncThreshold time.Duration
	interval      time.Duration
	workerCount   int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(userRepo database.UserRepository, orchestrator *postsync.Orchestrator,
	client AuthClient, redisCache *cache.Cache) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		userRepo:      userRepo,
		orchestrator:  orchestrator,
		client:        client,
		redisCache:    redisCache,
		syncThreshold: time.Duration(cfg.SyncThresholdHours) * time.Hour,
		interval:      time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:   cfg.WorkerCount,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	users, err := s.userRepo.GetUsersDueForSync(s.syncThreshold, syncBatchSize)
	if err != nil {
		slog.Error("Failed to get users due for sync", "error", err)
		return
	}
	if len(users) == 0 {
		slog.Debug("No users due for sync")
		return
	}

	slog.Debug("Scheduling sync tasks", "count", len(users))

	for _, user := range users {
		authTask := NewRefreshAuthStatusTask(user, s.client, s.userRepo, s.redisCache)
		if err := s.EnqueueTask(authTask); err != nil {
			slog.Warn("Failed to enqueue RefreshAuthStatusTask", "user", user.ID, "error", err)
			continue
		}

		syncTask := NewSyncUserPostsTask(user, s.orchestrator, s.userRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncUserPostsTask", "user", user.ID, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "user", task.GetUserID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
