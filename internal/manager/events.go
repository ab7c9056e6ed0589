package manager

import (
	"sync"
	"time"

	"neuromesh/internal/logging"
	"neuromesh/internal/model"
)

// EventKind names the lifecycle notifications emitted by the manager.
type EventKind string

const (
	EventInitialized       EventKind = "initialized"
	EventAgentSpawned      EventKind = "agent_spawned"
	EventInferenceComplete EventKind = "inference_complete"
	EventLearningComplete  EventKind = "learning_complete"
	EventKnowledgeShared   EventKind = "knowledge_shared"
	EventAgentTerminated   EventKind = "agent_terminated"
	EventCleanup           EventKind = "cleanup"
	EventError             EventKind = "error"
)

// Event is one lifecycle notification. Fields beyond Kind and Timestamp
// are populated per kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	AgentID       string        `json:"agent_id,omitempty"`
	InferenceTime time.Duration `json:"inference_time,omitempty"`
	InputSize     int           `json:"input_size,omitempty"`
	OutputSize    int           `json:"output_size,omitempty"`

	Session *model.LearningSession `json:"session,omitempty"`

	SourceAgentID  string   `json:"source_agent_id,omitempty"`
	TargetAgentIDs []string `json:"target_agent_ids,omitempty"`

	Error string `json:"error,omitempty"`
}

// notifier fans events out to subscribers. Publication is serialized so
// every subscriber observes events in order of occurrence; a subscriber
// whose buffer is full loses the event rather than stalling the manager.
type notifier struct {
	logger     logging.Logger
	bufferSize int

	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan Event
	closed      bool
}

func newNotifier(bufferSize int, logger logging.Logger) *notifier {
	return &notifier{
		logger:      logger,
		bufferSize:  bufferSize,
		subscribers: make(map[int]chan Event),
	}
}

func (n *notifier) subscribe() (int, <-chan Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Event, n.bufferSize)
	if n.closed {
		close(ch)
		return 0, ch
	}
	n.nextID++
	id := n.nextID
	n.subscribers[id] = ch
	return id, ch
}

func (n *notifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subscribers[id]
	if !ok {
		return
	}
	delete(n.subscribers, id)
	close(ch)
}

func (n *notifier) publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	for id, ch := range n.subscribers {
		select {
		case ch <- event:
		default:
			n.logger.Warn("event dropped for slow subscriber",
				"subscriber", id, "kind", string(event.Kind))
		}
	}
}

// close ends delivery for all subscribers. Further publishes are no-ops.
func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subscribers {
		delete(n.subscribers, id)
		close(ch)
	}
}
