// Package events fans task lifecycle notifications out to the
// processes UI surfaces, decoupled from the goroutines producing them.
package events

import (
	"github.com/asaskevich/EventBus"

	"github.com/zzjoey/downxv/server/internal/downloads"
	"github.com/zzjoey/downxv/server/internal/engine"
)

const (
	TopicManifestReady = "manifest.ready"
	TopicManifestError = "manifest.error"
	TopicTaskProgress  = "task.progress"
	TopicTaskStatus    = "task.status"
	TopicTaskCompleted = "task.completed"
	TopicTaskFailed    = "task.failed"
	TopicTaskSettled   = "task.settled"
)

type ManifestReadyPayload struct {
	Items       int    `json:"items"`
	ParentTitle string `json:"parent_title,omitempty"`
}

type ManifestErrorPayload struct {
	Category downloads.Category `json:"category"`
	Message  string             `json:"message"`
}

type TaskProgressPayload struct {
	Id      string `json:"id"`
	Percent int    `json:"percent"`
}

type TaskStatusPayload struct {
	Id   string `json:"id"`
	Text string `json:"text"`
}

type TaskCompletedPayload struct {
	Id   string `json:"id"`
	Path string `json:"path"`
}

type TaskFailedPayload struct {
	Id       string             `json:"id"`
	Category downloads.Category `json:"category"`
	Message  string             `json:"message"`
}

type TaskSettledPayload struct {
	Id string `json:"id"`
}

// Sink publishes every lifecycle callback onto the bus.
type Sink struct {
	bus EventBus.Bus
}

func NewSink(bus EventBus.Bus) *Sink {
	return &Sink{bus: bus}
}

func (s *Sink) Bus() EventBus.Bus { return s.bus }

func (s *Sink) OnManifestReady(manifest *engine.Manifest) {
	s.bus.Publish(TopicManifestReady, ManifestReadyPayload{
		Items:       len(manifest.Items),
		ParentTitle: manifest.ParentTitle,
	})
}

func (s *Sink) OnManifestError(category downloads.Category, message string) {
	s.bus.Publish(TopicManifestError, ManifestErrorPayload{Category: category, Message: message})
}

func (s *Sink) OnTaskProgress(taskId string, percent int) {
	s.bus.Publish(TopicTaskProgress, TaskProgressPayload{Id: taskId, Percent: percent})
}

func (s *Sink) OnTaskStatus(taskId string, text string) {
	s.bus.Publish(TopicTaskStatus, TaskStatusPayload{Id: taskId, Text: text})
}

func (s *Sink) OnTaskCompleted(taskId string, path string) {
	s.bus.Publish(TopicTaskCompleted, TaskCompletedPayload{Id: taskId, Path: path})
}

func (s *Sink) OnTaskFailed(taskId string, category downloads.Category, message string) {
	s.bus.Publish(TopicTaskFailed, TaskFailedPayload{Id: taskId, Category: category, Message: message})
}

func (s *Sink) OnTaskSettled(taskId string) {
	s.bus.Publish(TopicTaskSettled, TaskSettledPayload{Id: taskId})
}
