package orchestrator

import (
	"github.com/zzjoey/downxv/server/internal/downloads"
	"github.com/zzjoey/downxv/server/internal/engine"
)

// EventSink is the presentation boundary. The orchestrator calls it
// from task-owned goroutines; implementations must not block for long.
// Events for one task arrive in engine order; no ordering holds across
// tasks.
type EventSink interface {
	OnManifestReady(manifest *engine.Manifest)
	OnManifestError(category downloads.Category, message string)
	OnTaskProgress(taskId string, percent int)
	OnTaskStatus(taskId string, text string)
	OnTaskCompleted(taskId string, path string)
	OnTaskFailed(taskId string, category downloads.Category, message string)
	// OnTaskSettled fires once the task's resources are released, so
	// presentation teardown can be finalized after a dismissal.
	OnTaskSettled(taskId string)
}
