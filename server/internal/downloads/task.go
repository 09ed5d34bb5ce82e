package downloads

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/zzjoey/downxv/server/internal/engine"
)

const stagingPrefix = ".downxv_"

// Artifacts the engine leaves behind for unfinished fragments; never
// moved out of staging.
var fragmentSuffixes = []string{".part", ".ytdl"}

// Request holds the immutable inputs of one download task.
type Request struct {
	URL          string
	SavePath     string
	Quality      string
	CookieSource engine.CookieSource
	// Title is the display title discovered during extraction.
	Title string
	// PlaylistItem selects one item of a multi-item post, 1-based.
	// Zero for single-item posts.
	PlaylistItem int
}

// Task is one unit of work: a single media item fetched from one URL
// into an exclusively-owned staging directory, then moved to the save
// path. It runs on its own goroutine and communicates solely through
// its event channel.
type Task struct {
	id  string
	req Request
	eng engine.Engine

	mu         sync.Mutex
	state      State
	percent    int
	statusText string
	stagingDir string
	resultPath string
	errCat     Category
	errMsg     string

	cancelled atomic.Bool
	events    chan Event
	settled   chan struct{}
}

func NewTask(eng engine.Engine, req Request) *Task {
	return &Task{
		id:      uuid.NewString(),
		req:     req,
		eng:     eng,
		state:   StateQueued,
		events:  make(chan Event, 64),
		settled: make(chan struct{}),
	}
}

func (t *Task) Id() string    { return t.id }
func (t *Task) Url() string   { return t.req.URL }
func (t *Task) Title() string { return t.req.Title }

// Events delivers the task's lifecycle messages in order. The channel
// is closed once the task has settled (terminal state reached and
// staging released).
func (t *Task) Events() <-chan Event { return t.events }

// Settled is closed when the task's resources are fully released.
func (t *Task) Settled() <-chan struct{} { return t.settled }

// Cancel requests cooperative cancellation. The flag is observed at the
// next engine progress boundary; the task then aborts silently.
func (t *Task) Cancel() { t.cancelled.Store(true) }

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) IsTerminal() bool { return t.State().IsTerminal() }

// Snapshot is the externally visible read model of a task.
type Snapshot struct {
	Id            string   `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	State         State    `json:"state"`
	Percent       int      `json:"percent"`
	Status        string   `json:"status,omitempty"`
	ResultPath    string   `json:"result_path,omitempty"`
	ErrorCategory Category `json:"error_category,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
}

func (t *Task) Status() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Id:            t.id,
		URL:           t.req.URL,
		Title:         t.req.Title,
		State:         t.state,
		Percent:       t.percent,
		Status:        t.statusText,
		ResultPath:    t.resultPath,
		ErrorCategory: t.errCat,
		ErrorMessage:  t.errMsg,
	}
}

// Run drives the task to a terminal state. The staging directory is
// removed on every exit path before the events channel closes.
func (t *Task) Run(ctx context.Context) {
	defer func() {
		t.cleanupStaging()
		close(t.events)
		close(t.settled)
	}()

	if t.cancelled.Load() {
		t.finishCancelled()
		return
	}

	staging, err := os.MkdirTemp(t.req.SavePath, stagingPrefix+"*")
	if err != nil {
		t.finishFailed(CategoryUnexpected, "Could not create staging directory: "+err.Error())
		return
	}

	t.mu.Lock()
	t.state = StateRunning
	t.stagingDir = staging
	t.mu.Unlock()

	format := FormatSelector(t.req.Quality)
	tracker := NewTracker(StreamCount(format))

	err = t.eng.Fetch(ctx, t.req.URL, engine.FetchOptions{
		Format:              format,
		MergeContainer:      "mp4",
		OutputTemplate:      "%(title).100s.%(ext)s",
		CookieSource:        t.req.CookieSource,
		PlaylistItem:        t.req.PlaylistItem,
		Retries:             5,
		FragmentRetries:     5,
		ConcurrentFragments: 8,
	}, staging, func(ev engine.ProgressEvent) error {
		return t.onProgress(tracker, ev)
	})

	// A cancellation requested while the engine call was in flight wins
	// over whatever error the engine raised on the way out.
	if t.cancelled.Load() || errors.Is(err, engine.ErrCancelled) {
		t.finishCancelled()
		return
	}

	if err != nil {
		cat, msg := Classify(err.Error())
		t.finishFailed(cat, msg)
		return
	}

	moved, err := t.moveStagedFiles(staging)
	if err != nil {
		t.finishFailed(CategoryUnexpected, "Could not move finished download: "+err.Error())
		return
	}

	// The engine claimed success but produced nothing usable.
	if len(moved) == 0 {
		t.finishFailed(CategoryNoMediaFound, msgNoMediaFound)
		return
	}

	t.finishCompleted(moved[0])
}

func (t *Task) onProgress(tracker *Tracker, ev engine.ProgressEvent) error {
	if t.cancelled.Load() {
		return engine.ErrCancelled
	}

	update := tracker.Apply(ev)

	t.mu.Lock()
	// single-stream downloads have nothing to merge
	if tracker.TotalStreams() > 1 && tracker.AllStreamsFinished() && t.state == StateRunning {
		t.state = StateMerging
	}
	if update.HasPercent {
		t.percent = update.Percent
	}
	if update.HasStatus {
		t.statusText = update.Status
	}
	t.mu.Unlock()

	if update.HasPercent {
		t.emit(Event{Kind: EventProgress, Percent: update.Percent})
	}
	if update.HasStatus {
		t.emit(Event{Kind: EventStatus, Status: update.Status})
	}

	return nil
}

// moveStagedFiles moves the final media files from staging into the
// save directory, skipping fragment artifacts. Move, not copy: the file
// appears in the save directory only once fully assembled.
func (t *Task) moveStagedFiles(staging string) ([]string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return nil, err
	}

	var moved []string

	for _, entry := range entries {
		if entry.IsDir() || isFragmentArtifact(entry.Name()) {
			continue
		}

		dest := filepath.Join(t.req.SavePath, entry.Name())
		if err := os.Rename(filepath.Join(staging, entry.Name()), dest); err != nil {
			return moved, err
		}

		moved = append(moved, dest)
	}

	return moved, nil
}

func isFragmentArtifact(name string) bool {
	for _, suffix := range fragmentSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (t *Task) cleanupStaging() {
	t.mu.Lock()
	staging := t.stagingDir
	t.stagingDir = ""
	t.mu.Unlock()

	if staging == "" {
		return
	}

	// Best effort: the user-relevant outcome is already decided.
	if err := os.RemoveAll(staging); err != nil {
		slog.Warn("failed to remove staging directory",
			slog.String("id", t.id),
			slog.String("dir", staging),
			slog.Any("err", err),
		)
	}
}

func (t *Task) finishCompleted(path string) {
	t.mu.Lock()
	t.state = StateCompleted
	t.percent = 100
	t.resultPath = path
	t.mu.Unlock()

	t.emit(Event{Kind: EventProgress, Percent: 100})
	t.emit(Event{Kind: EventCompleted, Path: path})

	slog.Info("download completed",
		slog.String("id", t.id),
		slog.String("path", path),
	)
}

func (t *Task) finishFailed(cat Category, msg string) {
	t.mu.Lock()
	t.state = StateFailed
	t.errCat = cat
	t.errMsg = msg
	t.mu.Unlock()

	t.emit(Event{Kind: EventFailed, Category: cat, Message: msg})

	slog.Error("download failed",
		slog.String("id", t.id),
		slog.String("url", t.req.URL),
		slog.String("category", string(cat)),
	)
}

// Cancellation is silent: no error reaches the user.
func (t *Task) finishCancelled() {
	t.mu.Lock()
	t.state = StateCancelled
	t.mu.Unlock()

	t.emit(Event{Kind: EventCancelled})

	slog.Info("download cancelled", slog.String("id", t.id))
}

// emit blocks until the owner consumes; the owner drains the channel
// until close, so delivery order per task is preserved.
func (t *Task) emit(ev Event) {
	t.events <- ev
}
