package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/zzjoey/downxv/server/internal/downloads"
	"github.com/zzjoey/downxv/server/internal/engine"
	"github.com/zzjoey/downxv/server/internal/queue"
	"github.com/zzjoey/downxv/server/internal/registry"
)

var (
	// ErrExtractionInFlight rejects a submission while another URL is
	// still being resolved. Submissions are rejected, never queued.
	ErrExtractionInFlight = errors.New("another extraction is already in flight")

	ErrSaveDirNotFound = errors.New("save directory does not exist")
)

// Config carries the orchestrator tunables. Zero values fall back to
// the defaults the desktop app shipped with.
type Config struct {
	// MaxConcurrent caps how many tasks run at once.
	MaxConcurrent int
	// StaggerInterval delays each sibling task of a multi-item post so
	// the first item starts transferring before the rest contend for
	// bandwidth.
	StaggerInterval time.Duration
	// SettleTimeout bounds how long Dismiss waits for a cancelled task
	// to acknowledge before deferring its removal.
	SettleTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 3
	}
	if c.StaggerInterval <= 0 {
		c.StaggerInterval = 200 * time.Millisecond
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = 3 * time.Second
	}
}

// SubmitRequest is one user-submitted URL with its download options.
type SubmitRequest struct {
	URL          string
	SavePath     string
	Quality      string
	CookieSource engine.CookieSource
}

// Counts is the derived state the presentation layer polls after every
// lifecycle event to decide button enablement and empty-state display.
type Counts struct {
	Active     int  `json:"active"`
	Finished   int  `json:"finished"`
	Total      int  `json:"total"`
	Extracting bool `json:"extracting"`
}

// Orchestrator turns one submitted URL into one-or-many tracked,
// cancellable download tasks and routes their lifecycle events to the
// presentation sink.
type Orchestrator struct {
	cfg   Config
	eng   engine.Engine
	sink  EventSink
	store *registry.Store
	queue *queue.TaskQueue

	// extraction is system-wide exclusive
	extractSem *semaphore.Weighted

	// runCtx outlives any single request; extractions are detached
	// from the submitting caller and die only with the orchestrator.
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu      sync.Mutex
	current *extraction
}

func New(cfg Config, eng engine.Engine, sink EventSink) (*Orchestrator, error) {
	cfg.applyDefaults()

	q, err := queue.NewTaskQueue(cfg.MaxConcurrent)
	if err != nil {
		return nil, err
	}
	q.SetupConsumers()

	runCtx, cancelRun := context.WithCancel(context.Background())

	return &Orchestrator{
		cfg:        cfg,
		eng:        eng,
		sink:       sink,
		store:      registry.NewStore(),
		queue:      q,
		extractSem: semaphore.NewWeighted(1),
		runCtx:     runCtx,
		cancelRun:  cancelRun,
	}, nil
}

// Submit starts exactly one extraction phase for the URL and, on
// manifest success, spawns one task per media item with staggered
// starts. It returns immediately; outcomes arrive through the sink.
// The extraction runs detached from ctx, which guards admission only.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !o.extractSem.TryAcquire(1) {
		return ErrExtractionInFlight
	}

	if info, err := os.Stat(req.SavePath); err != nil || !info.IsDir() {
		o.extractSem.Release(1)
		return ErrSaveDirNotFound
	}

	ex := newExtraction(req.URL, req.CookieSource)

	o.mu.Lock()
	o.current = ex
	o.mu.Unlock()

	go func() {
		// Release before clearing: once the flag reads idle the slot is
		// guaranteed free, so a poll can never shadow a live rejection.
		// A successor may have already taken the slot; only clear our
		// own extraction.
		defer func() {
			o.extractSem.Release(1)

			o.mu.Lock()
			if o.current == ex {
				o.current = nil
			}
			o.mu.Unlock()
		}()

		manifest := ex.run(o.runCtx, o.eng, o.sink)
		if manifest == nil {
			return
		}

		o.spawnTasks(manifest, req)
	}()

	return nil
}

// CancelExtraction discards the in-flight extraction outcome, if any.
func (o *Orchestrator) CancelExtraction() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		o.current.cancel()
	}
}

// ExtractionInFlight reports whether a URL is currently being resolved.
// It observes the current extraction, never the admission semaphore, so
// a status poll can not steal the slot from a racing Submit.
func (o *Orchestrator) ExtractionInFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}

// spawnTasks creates one task per manifest item, registers each and
// publishes them to the worker pool: the first immediately, every
// sibling one stagger interval later than the previous.
func (o *Orchestrator) spawnTasks(manifest *engine.Manifest, req SubmitRequest) {
	count := len(manifest.Items)

	for i, item := range manifest.Items {
		task := downloads.NewTask(o.eng, downloads.Request{
			URL:          req.URL,
			SavePath:     req.SavePath,
			Quality:      req.Quality,
			CookieSource: req.CookieSource,
			Title:        displayTitle(item.Title, i, count),
			PlaylistItem: playlistItem(manifest, i),
		})

		o.store.Set(task)
		go o.forward(task)

		if i == 0 {
			o.queue.Publish(task)
			continue
		}

		delay := time.Duration(i) * o.cfg.StaggerInterval
		time.AfterFunc(delay, func() { o.queue.Publish(task) })
	}

	slog.Info("tasks spawned",
		slog.String("url", req.URL),
		slog.Int("count", count),
	)
}

// forward consumes one task's event channel until it closes, routing
// each message outward. The orchestrator is the single consumer of a
// task's events.
func (o *Orchestrator) forward(t *downloads.Task) {
	id := t.Id()

	for ev := range t.Events() {
		switch ev.Kind {
		case downloads.EventProgress:
			o.sink.OnTaskProgress(id, ev.Percent)
		case downloads.EventStatus:
			o.sink.OnTaskStatus(id, ev.Status)
		case downloads.EventCompleted:
			o.sink.OnTaskCompleted(id, ev.Path)
		case downloads.EventFailed:
			o.sink.OnTaskFailed(id, ev.Category, ev.Message)
		case downloads.EventCancelled:
			// silent by design of the lifecycle: never an error
		}
	}

	o.sink.OnTaskSettled(id)
}

// Dismiss cancels a still-active task, waits a bounded interval for it
// to settle, then removes it from the registry. A task that does not
// settle in time keeps running detached and is removed once it does;
// its resources are never force-destroyed. Dismissing an unknown id is
// a no-op.
func (o *Orchestrator) Dismiss(id string) {
	task, err := o.store.Get(id)
	if err != nil {
		return
	}

	if !task.IsTerminal() {
		task.Cancel()

		select {
		case <-task.Settled():
		case <-time.After(o.cfg.SettleTimeout):
			slog.Warn("task did not settle in time, deferring removal",
				slog.String("id", id),
			)
			go func() {
				<-task.Settled()
				o.store.Delete(id)
			}()
			return
		}
	}

	o.store.Delete(id)
}

// ClearFinished removes every task in a terminal state; active tasks
// are untouched.
func (o *Orchestrator) ClearFinished() {
	for _, id := range o.store.Keys() {
		task, err := o.store.Get(id)
		if err != nil {
			continue
		}
		if task.IsTerminal() {
			o.store.Delete(id)
		}
	}
}

// Tasks returns snapshots of all registered tasks in insertion order.
func (o *Orchestrator) Tasks() []downloads.Snapshot {
	return o.store.All()
}

func (o *Orchestrator) Task(id string) (downloads.Snapshot, error) {
	task, err := o.store.Get(id)
	if err != nil {
		return downloads.Snapshot{}, fmt.Errorf("task %s: %w", id, err)
	}
	return task.Status(), nil
}

func (o *Orchestrator) Counts() Counts {
	return Counts{
		Active:     o.store.ActiveCount(),
		Finished:   o.store.FinishedCount(),
		Total:      len(o.store.Keys()),
		Extracting: o.ExtractionInFlight(),
	}
}

// Stop requests cancellation of everything in flight and shuts the
// worker pool down. Used on process shutdown only.
func (o *Orchestrator) Stop() {
	o.CancelExtraction()
	o.cancelRun()

	for _, task := range o.store.Tasks() {
		if !task.IsTerminal() {
			task.Cancel()
		}
	}

	o.queue.Stop()
}

func displayTitle(title string, index, count int) string {
	if count > 1 {
		return fmt.Sprintf("%s (%d/%d)", truncate(title, 50), index+1, count)
	}
	return truncate(title, 60)
}

// playlistItem maps a manifest position to the engine's 1-based item
// selector; single posts carry no selector at all.
func playlistItem(manifest *engine.Manifest, index int) int {
	if manifest.ParentTitle == "" && len(manifest.Items) == 1 {
		return 0
	}
	return index + 1
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
