package downloads

// EventKind discriminates the messages a running task sends back to its
// owner. Per-task ordering matches the order the engine produced them.
type EventKind int

const (
	EventProgress EventKind = iota
	EventStatus
	EventCompleted
	EventFailed
	EventCancelled
)

// Event is one lifecycle message emitted on a task's event channel.
type Event struct {
	Kind     EventKind
	Percent  int
	Status   string
	Path     string
	Category Category
	Message  string
}

// State is the lifecycle state of a task.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateMerging   State = "merging"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// IsTerminal reports whether no further transitions can happen.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}
