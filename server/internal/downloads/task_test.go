package downloads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzjoey/downxv/server/internal/engine"
)

type fakeEngine struct {
	fetch func(ctx context.Context, url string, opts engine.FetchOptions, outputDir string, onProgress engine.ProgressFunc) error
}

func (f *fakeEngine) Probe(context.Context, string, engine.ProbeOptions) (*engine.Manifest, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeEngine) Fetch(ctx context.Context, url string, opts engine.FetchOptions, outputDir string, onProgress engine.ProgressFunc) error {
	return f.fetch(ctx, url, opts, outputDir, onProgress)
}

// drainEvents consumes a task's event channel until it closes.
func drainEvents(t *testing.T, task *Task) <-chan []Event {
	t.Helper()

	out := make(chan []Event, 1)
	go func() {
		var events []Event
		for ev := range task.Events() {
			events = append(events, ev)
		}
		out <- events
	}()
	return out
}

func stagingDirs(t *testing.T, saveDir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(saveDir, ".downxv_*"))
	require.NoError(t, err)
	return matches
}

func eventOfKind(events []Event, kind EventKind) (Event, bool) {
	for _, ev := range events {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return Event{}, false
}

func TestTaskCompletesAndMovesFinalFiles(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	eng := &fakeEngine{
		fetch: func(_ context.Context, _ string, _ engine.FetchOptions, outputDir string, onProgress engine.ProgressFunc) error {
			require.NoError(t, onProgress(engine.ProgressEvent{
				Status: engine.StatusDownloading, DownloadedBytes: 50, TotalBytes: 100, SpeedBps: -1, ETASeconds: -1,
			}))
			require.NoError(t, onProgress(engine.ProgressEvent{Status: engine.StatusStreamFinished}))

			require.NoError(t, os.WriteFile(filepath.Join(outputDir, "Clip.mp4"), []byte("video"), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(outputDir, "Clip.f137.mp4.part"), []byte("x"), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(outputDir, "Clip.mp4.ytdl"), []byte("x"), 0o644))
			return nil
		},
	}

	task := NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir, Quality: "Best (default)"})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	events := <-collected

	assert.Equal(t, StateCompleted, task.State())

	snap := task.Status()
	assert.Equal(t, filepath.Join(saveDir, "Clip.mp4"), snap.ResultPath)
	assert.Equal(t, 100, snap.Percent)

	// only the final container landed in the save directory
	assert.FileExists(t, filepath.Join(saveDir, "Clip.mp4"))
	assert.NoFileExists(t, filepath.Join(saveDir, "Clip.f137.mp4.part"))
	assert.Empty(t, stagingDirs(t, saveDir))

	completed, ok := eventOfKind(events, EventCompleted)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(saveDir, "Clip.mp4"), completed.Path)

	// final tick is exactly 100
	var percents []int
	for _, ev := range events {
		if ev.Kind == EventProgress {
			percents = append(percents, ev.Percent)
		}
	}
	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestTaskSuccessWithNoUsableFilesFails(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	eng := &fakeEngine{
		fetch: func(_ context.Context, _ string, _ engine.FetchOptions, outputDir string, _ engine.ProgressFunc) error {
			// engine reports success but only leaves fragments behind
			return os.WriteFile(filepath.Join(outputDir, "Clip.f137.mp4.part"), []byte("x"), 0o644)
		},
	}

	task := NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	events := <-collected

	assert.Equal(t, StateFailed, task.State())

	failed, ok := eventOfKind(events, EventFailed)
	require.True(t, ok)
	assert.Equal(t, CategoryNoMediaFound, failed.Category)
	assert.Empty(t, stagingDirs(t, saveDir))
}

func TestTaskEngineErrorIsClassified(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	eng := &fakeEngine{
		fetch: func(context.Context, string, engine.FetchOptions, string, engine.ProgressFunc) error {
			return errors.New("ERROR: HTTP Error 404: Not Found")
		},
	}

	task := NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	events := <-collected

	assert.Equal(t, StateFailed, task.State())

	failed, ok := eventOfKind(events, EventFailed)
	require.True(t, ok)
	assert.Equal(t, CategoryNotFound, failed.Category)
	assert.Equal(t, "Post not found. It may have been deleted or the URL is wrong.", failed.Message)
	assert.Empty(t, stagingDirs(t, saveDir))
}

func TestTaskCancelObservedAtProgressBoundary(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	var task *Task

	eng := &fakeEngine{
		fetch: func(_ context.Context, _ string, _ engine.FetchOptions, _ string, onProgress engine.ProgressFunc) error {
			require.NoError(t, onProgress(engine.ProgressEvent{
				Status: engine.StatusDownloading, DownloadedBytes: 10, TotalBytes: 100, SpeedBps: -1, ETASeconds: -1,
			}))

			task.Cancel()

			err := onProgress(engine.ProgressEvent{
				Status: engine.StatusDownloading, DownloadedBytes: 20, TotalBytes: 100, SpeedBps: -1, ETASeconds: -1,
			})
			require.ErrorIs(t, err, engine.ErrCancelled)
			return err
		},
	}

	task = NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	events := <-collected

	assert.Equal(t, StateCancelled, task.State())
	assert.Empty(t, stagingDirs(t, saveDir))

	// silent: cancellation never surfaces as an error
	_, failed := eventOfKind(events, EventFailed)
	assert.False(t, failed)
	_, cancelled := eventOfKind(events, EventCancelled)
	assert.True(t, cancelled)
}

func TestTaskCancelledConcurrentlyWithEngineError(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	var task *Task

	eng := &fakeEngine{
		fetch: func(context.Context, string, engine.FetchOptions, string, engine.ProgressFunc) error {
			// cancel lands while the engine call is failing
			task.Cancel()
			return errors.New("ERROR: HTTP Error 403: Forbidden")
		},
	}

	task = NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	events := <-collected

	assert.Equal(t, StateCancelled, task.State())
	_, failed := eventOfKind(events, EventFailed)
	assert.False(t, failed)
}

func TestTaskCancelledBeforeStartNeverStages(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	eng := &fakeEngine{
		fetch: func(context.Context, string, engine.FetchOptions, string, engine.ProgressFunc) error {
			t.Fatal("engine must not be invoked for a pre-cancelled task")
			return nil
		},
	}

	task := NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir})
	task.Cancel()
	collected := drainEvents(t, task)

	task.Run(context.Background())
	<-collected

	assert.Equal(t, StateCancelled, task.State())
	assert.Empty(t, stagingDirs(t, saveDir))

	select {
	case <-task.Settled():
	default:
		t.Fatal("task must be settled after Run returns")
	}
}

func TestTaskMergingStateInferredFromProgress(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	var task *Task

	eng := &fakeEngine{
		fetch: func(_ context.Context, _ string, _ engine.FetchOptions, outputDir string, onProgress engine.ProgressFunc) error {
			require.NoError(t, onProgress(engine.ProgressEvent{Status: engine.StatusStreamFinished}))
			assert.Equal(t, StateRunning, task.State())

			require.NoError(t, onProgress(engine.ProgressEvent{Status: engine.StatusStreamFinished}))
			assert.Equal(t, StateMerging, task.State())

			return os.WriteFile(filepath.Join(outputDir, "Clip.mp4"), []byte("video"), 0o644)
		},
	}

	task = NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir, Quality: "Best (default)"})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	<-collected

	assert.Equal(t, StateCompleted, task.State())
}

func TestTaskSingleStreamNeverEntersMerging(t *testing.T) {
	t.Parallel()

	saveDir := t.TempDir()

	var task *Task

	eng := &fakeEngine{
		fetch: func(_ context.Context, _ string, _ engine.FetchOptions, outputDir string, onProgress engine.ProgressFunc) error {
			require.NoError(t, onProgress(engine.ProgressEvent{Status: engine.StatusStreamFinished}))
			assert.Equal(t, StateRunning, task.State())

			return os.WriteFile(filepath.Join(outputDir, "Clip.m4a"), []byte("audio"), 0o644)
		},
	}

	task = NewTask(eng, Request{URL: "https://x.com/u/status/1", SavePath: saveDir, Quality: "Audio only"})
	collected := drainEvents(t, task)

	task.Run(context.Background())
	<-collected

	assert.Equal(t, StateCompleted, task.State())
}
