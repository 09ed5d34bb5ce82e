package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zzjoey/downxv/server/internal/downloads"
)

// TaskQueue admits download tasks to a fixed pool of workers: at most
// `concurrency` tasks run at any moment, the rest stay queued. A task
// cancelled while queued still passes through a worker briefly so it
// settles through its normal lifecycle.
type TaskQueue struct {
	concurrency int
	tasks       chan *downloads.Task
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewTaskQueue(concurrency int) (*TaskQueue, error) {
	if concurrency <= 0 {
		return nil, errors.New("invalid concurrency limit")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskQueue{
		concurrency: concurrency,
		tasks:       make(chan *downloads.Task, concurrency*8),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Publish queues a task for execution
func (q *TaskQueue) Publish(t *downloads.Task) {
	select {
	case q.tasks <- t:
		slog.Info("published download task", slog.String("id", t.Id()))
	case <-q.ctx.Done():
		slog.Warn("queue stopped, dropping task", slog.String("id", t.Id()))
	}
}

// SetupConsumers starts the download workers
func (q *TaskQueue) SetupConsumers() {
	for i := 0; i < q.concurrency; i++ {
		go q.worker(i)
	}
}

func (q *TaskQueue) worker(workerId int) {
	for {
		select {
		case <-q.ctx.Done():
			return
		case t := <-q.tasks:
			if t == nil {
				continue
			}

			slog.Info("download worker started",
				slog.Int("worker", workerId),
				slog.String("id", t.Id()),
			)

			t.Run(q.ctx)
		}
	}
}

func (q *TaskQueue) Stop() {
	q.cancel()
}
