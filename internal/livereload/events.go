// Package livereload streams compile results to browsers over Server-Sent
// Events so pages can reload when an artifact changes.
package livereload

import "time"

// EventType represents the type of live-reload event.
type EventType string

const (
	// EventConnected is sent once when a client connects.
	EventConnected EventType = "connected"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	// EventArtifactCompiled is sent for each artifact written by a batch.
	EventArtifactCompiled EventType = "artifact.compiled"
	// EventArtifactRemoved is sent for each source whose artifact was removed.
	EventArtifactRemoved EventType = "artifact.removed"
	// EventBatchFailed is sent when at least one file in a batch failed to compile.
	EventBatchFailed EventType = "batch.failed"
)

// Event represents a live-reload event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// ArtifactEventData is the payload for artifact events.
type ArtifactEventData struct {
	BatchID string `json:"batch_id"`
	Path    string `json:"path"`
}

// BatchFailedEventData is the payload for batch failure events.
type BatchFailedEventData struct {
	BatchID  string   `json:"batch_id"`
	Produced []string `json:"produced"`
}

// HeartbeatEventData is the payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewArtifactCompiledEvent creates an artifact.compiled event.
func NewArtifactCompiledEvent(batchID, artifact string) Event {
	return Event{
		Type:      EventArtifactCompiled,
		Timestamp: time.Now(),
		Data:      ArtifactEventData{BatchID: batchID, Path: artifact},
	}
}

// NewArtifactRemovedEvent creates an artifact.removed event. Path is the
// removed source; clients reload regardless of which artifact it mapped to.
func NewArtifactRemovedEvent(batchID, source string) Event {
	return Event{
		Type:      EventArtifactRemoved,
		Timestamp: time.Now(),
		Data:      ArtifactEventData{BatchID: batchID, Path: source},
	}
}

// NewBatchFailedEvent creates a batch.failed event.
func NewBatchFailedEvent(batchID string, produced []string) Event {
	if produced == nil {
		produced = []string{}
	}
	return Event{
		Type:      EventBatchFailed,
		Timestamp: time.Now(),
		Data:      BatchFailedEventData{BatchID: batchID, Produced: produced},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

// Emitter accepts events for broadcasting.
type Emitter interface {
	Emit(event Event)
}

// NoopEmitter drops every event. It is used when live reload is disabled.
type NoopEmitter struct{}

// NewNoopEmitter creates an emitter that discards events.
func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

// Emit discards the event.
func (*NoopEmitter) Emit(Event) {}
