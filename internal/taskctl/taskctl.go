package taskctl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/mq"
)

// workerTTL is how long a worker's last heartbeat is trusted before its
// in-flight task is considered orphaned and requeued.
const workerTTL = 30 * time.Second

// WorkerStatus is a worker node's last-known liveness state.
type WorkerStatus struct {
	ID            string
	LastHeartbeat time.Time
	CurrentTaskID string
}

// Manager drives CrawlTask through its created -> queued -> running ->
// completed/failed lifecycle (or canceled) and tracks which worker owns which in-flight task, so a worker
// that stops heartbeating has its task requeued instead of stuck forever.
type Manager struct {
	meta   *metastore.Store
	mq     *mq.Client
	logger *slog.Logger

	mu      sync.Mutex
	workers map[string]*WorkerStatus
}

func New(meta *metastore.Store, mqClient *mq.Client, logger *slog.Logger) *Manager {
	return &Manager{
		meta:    meta,
		mq:      mqClient,
		logger:  logger.With("component", "task_manager"),
		workers: make(map[string]*WorkerStatus),
	}
}

// Create persists a new task in the "created" state, accepted but not yet
// dispatched to a worker. A separate Submit call starts it.
func (m *Manager) Create(ctx context.Context, task *model.CrawlTask) error {
	task.Status = model.TaskCreated
	task.CreatedAt = time.Now()
	if err := m.meta.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// Submit marks a task queued and publishes it for a worker to pick up.
func (m *Manager) Submit(ctx context.Context, task *model.CrawlTask) error {
	task.Status = model.TaskQueued
	if err := m.meta.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return m.mq.PublishTask(task)
}

// Claim marks a task running and records which worker owns it.
func (m *Manager) Claim(ctx context.Context, task *model.CrawlTask, workerID string) error {
	task.Status = model.TaskRunning
	task.StartedAt = time.Now()
	if err := m.meta.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("save task: %w", err)
	}

	m.mu.Lock()
	m.workers[workerID] = &WorkerStatus{ID: workerID, LastHeartbeat: time.Now(), CurrentTaskID: task.ID}
	m.mu.Unlock()
	return nil
}

// Heartbeat refreshes a worker's liveness timestamp.
func (m *Manager) Heartbeat(workerID, taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[workerID]
	if !ok {
		w = &WorkerStatus{ID: workerID}
		m.workers[workerID] = w
	}
	w.LastHeartbeat = time.Now()
	w.CurrentTaskID = taskID
}

// Complete marks a task finished, successfully or not.
func (m *Manager) Complete(ctx context.Context, task *model.CrawlTask, failErr error) error {
	task.FinishedAt = time.Now()
	if failErr != nil {
		task.Status = model.TaskFailed
		task.Error = failErr.Error()
	} else {
		task.Status = model.TaskCompleted
	}
	return m.meta.SaveTask(ctx, task)
}

// Cancel marks a running or queued task canceled.
func (m *Manager) Cancel(ctx context.Context, task *model.CrawlTask) error {
	task.Status = model.TaskCanceled
	task.FinishedAt = time.Now()
	return m.meta.SaveTask(ctx, task)
}

// ReapOrphans scans worker liveness and requeues tasks owned by workers
// that haven't heartbeated within workerTTL. Intended to run on a ticker
// from the dispatcher/master process.
func (m *Manager) ReapOrphans(ctx context.Context) {
	m.mu.Lock()
	var orphanTaskIDs []string
	now := time.Now()
	for id, w := range m.workers {
		if w.CurrentTaskID != "" && now.Sub(w.LastHeartbeat) > workerTTL {
			orphanTaskIDs = append(orphanTaskIDs, w.CurrentTaskID)
			delete(m.workers, id)
		}
	}
	m.mu.Unlock()

	for _, taskID := range orphanTaskIDs {
		task, err := m.meta.GetTask(ctx, taskID)
		if err != nil {
			m.logger.Error("orphan task lookup failed", "task_id", taskID, "error", err)
			continue
		}
		m.logger.Warn("requeuing orphaned task", "task_id", taskID)
		if err := m.Submit(ctx, task); err != nil {
			m.logger.Error("requeue failed", "task_id", taskID, "error", err)
		}
	}
}

// Workers returns a snapshot of currently tracked worker statuses.
func (m *Manager) Workers() []WorkerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WorkerStatus, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, *w)
	}
	return out
}
