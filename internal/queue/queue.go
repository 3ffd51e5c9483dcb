package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ledgerline/transfer-backend/internal/domain"
)

// RunFunc executes one transfer task and produces its result. It runs on the
// queue's worker goroutine, so implementations may mutate account state
// without further locking.
type RunFunc func(ctx context.Context, task *domain.Task) domain.TransferResult

// pending bridges a blocked caller to the worker. The result channel is
// buffered so the worker never blocks on a caller that stopped waiting.
type pending struct {
	task   *domain.Task
	run    RunFunc
	result chan domain.TransferResult
}

// Queue is the bounded admission queue through which all transfer execution
// is serialized. Any number of callers may Submit concurrently; exactly one
// worker goroutine drains tasks in arrival order and is the only writer of
// account state. The queue also hosts the progress table.
//
// When the queue is stopped or at capacity, Submit rejects explicitly with
// QUEUE_UNAVAILABLE instead of blocking or dropping the task.
type Queue struct {
	mu        sync.Mutex
	accepting bool
	tasks     chan pending
	done      chan struct{}

	progressMu sync.RWMutex
	progress   map[string]domain.TransferProgress

	logger *zap.Logger
}

// New creates a queue with the given capacity and starts its worker
func New(capacity int, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &Queue{
		accepting: true,
		tasks:     make(chan pending, capacity),
		done:      make(chan struct{}),
		progress:  make(map[string]domain.TransferProgress),
		logger:    logger,
	}

	go q.work()

	return q
}

// Submit registers the task's progress entry, enqueues the task, and blocks
// the caller until the worker has produced a result for it.
//
// Registration and enqueue happen atomically under the admission lock: a
// rejected task never leaves behind an orphaned INITIATED progress entry, and
// a registered task is always visible to the worker before it can run.
func (q *Queue) Submit(ctx context.Context, task *domain.Task, run RunFunc) domain.TransferResult {
	p := pending{
		task:   task,
		run:    run,
		result: make(chan domain.TransferResult, 1),
	}

	q.mu.Lock()
	if !q.accepting {
		q.mu.Unlock()
		q.logger.Warn("submission rejected: queue stopped", zap.String("task_id", task.ID))

		return domain.Failure("Queue is not accepting transfers", task.ID, domain.ErrorCodeQueueUnavailable)
	}

	q.register(task.InitialProgress())

	select {
	case q.tasks <- p:
		q.mu.Unlock()
	default:
		q.unregister(task.ID)
		q.mu.Unlock()
		q.logger.Warn("submission rejected: queue at capacity", zap.String("task_id", task.ID))

		return domain.Failure("Queue is at capacity", task.ID, domain.ErrorCodeQueueUnavailable)
	}

	select {
	case res := <-p.result:
		return res
	case <-ctx.Done():
		// The task stays admitted and will still run to a terminal progress
		// state; only this caller stops waiting for it.
		return domain.Failure("Submission cancelled by caller", task.ID, domain.ErrorCodeUnknown)
	}
}

// Progress returns the progress record for a transfer ID. Unrecognized IDs
// yield a synthesized UNKNOWN record; Progress never fails.
func (q *Queue) Progress(transferID string) domain.TransferProgress {
	q.progressMu.RLock()
	defer q.progressMu.RUnlock()

	if p, ok := q.progress[transferID]; ok {
		return p
	}

	return domain.TransferProgress{TransferID: transferID, Status: domain.TransferUnknown}
}

// UpdateProgress overwrites the status of an existing progress entry.
// A no-op for unknown IDs. Called by the worker only.
func (q *Queue) UpdateProgress(transferID string, status domain.TransferStatus) {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()

	if p, ok := q.progress[transferID]; ok {
		p.Status = status
		q.progress[transferID] = p
	}
}

// Shutdown stops admission and waits for the worker to drain every task
// already accepted. Tasks admitted before Shutdown still run to completion
// and resolve their waiting callers. Idempotent and safe to call
// concurrently.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if q.accepting {
		q.accepting = false
		close(q.tasks)
		q.logger.Info("queue shutting down, draining admitted tasks")
	}
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) register(p domain.TransferProgress) {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()

	q.progress[p.TransferID] = p
}

func (q *Queue) unregister(transferID string) {
	q.progressMu.Lock()
	defer q.progressMu.Unlock()

	delete(q.progress, transferID)
}

// work drains tasks strictly in arrival order, one at a time. It exits once
// the channel is closed and fully drained.
func (q *Queue) work() {
	defer close(q.done)

	for p := range q.tasks {
		res := q.execute(p)
		p.result <- res
	}

	q.logger.Info("queue worker stopped")
}

// execute runs one task and advances its progress: PROCESSING before the run,
// COMPLETED or FAILED after. This is the single place progress moves past
// INITIATED. A panicking task is converted to an UNKNOWN failure so the
// worker keeps serving subsequent tasks.
func (q *Queue) execute(p pending) (res domain.TransferResult) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task execution panicked",
				zap.String("task_id", p.task.ID),
				zap.Any("panic", r),
			)
			q.UpdateProgress(p.task.ID, domain.TransferFailed)
			res = domain.Failure("Transfer failed unexpectedly", p.task.ID, domain.ErrorCodeUnknown)
		}
	}()

	q.UpdateProgress(p.task.ID, domain.TransferProcessing)

	res = p.run(context.Background(), p.task)

	if res.Status == domain.ResultSuccess {
		q.UpdateProgress(p.task.ID, domain.TransferCompleted)
	} else {
		q.UpdateProgress(p.task.ID, domain.TransferFailed)
	}

	return res
}
