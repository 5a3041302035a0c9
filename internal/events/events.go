// Package events provides a pub/sub bus for flood worker lifecycle notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventFloodStart is emitted once before any worker is started
	EventFloodStart EventType = "flood_start"
	// EventWorkerStarted is emitted when a worker has connected
	EventWorkerStarted EventType = "worker_started"
	// EventWorkerFinished is emitted when a worker completed all requests
	EventWorkerFinished EventType = "worker_finished"
	// EventWorkerFailed is emitted when a worker stopped on a connection error
	EventWorkerFailed EventType = "worker_failed"
	// EventFloodDone is emitted after every worker has been joined
	EventFloodDone EventType = "flood_done"
)

// Event represents a flood lifecycle event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  int       `json:"worker_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	Addr      string `json:"addr,omitempty"`
	Workers   int    `json:"workers,omitempty"`
	Requests  uint64 `json:"requests,omitempty"`
	BytesSent uint64 `json:"bytes_sent,omitempty"`
	Elapsed   string `json:"elapsed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewFloodStartEvent creates an event announcing a run against addr
func NewFloodStartEvent(addr string, workers int) Event {
	return Event{
		Type:      EventFloodStart,
		Timestamp: time.Now(),
		WorkerID:  -1,
		Data: EventData{
			Addr:    addr,
			Workers: workers,
		},
	}
}

// NewWorkerStartedEvent creates a worker started event
func NewWorkerStartedEvent(workerID int, addr string) Event {
	return Event{
		Type:      EventWorkerStarted,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Addr: addr,
		},
	}
}

// NewWorkerFinishedEvent creates a worker finished event
func NewWorkerFinishedEvent(workerID int, requests, bytesSent uint64, elapsed time.Duration) Event {
	return Event{
		Type:      EventWorkerFinished,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Requests:  requests,
			BytesSent: bytesSent,
			Elapsed:   elapsed.String(),
		},
	}
}

// NewWorkerFailedEvent creates a worker failed event
func NewWorkerFailedEvent(workerID int, requests uint64, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventWorkerFailed,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Requests: requests,
			Error:    errMsg,
		},
	}
}

// NewFloodDoneEvent creates the final event of a run
func NewFloodDoneEvent(workers int, elapsed time.Duration) Event {
	return Event{
		Type:      EventFloodDone,
		Timestamp: time.Now(),
		WorkerID:  -1,
		Data: EventData{
			Workers: workers,
			Elapsed: elapsed.String(),
		},
	}
}
