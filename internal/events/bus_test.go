package events

import (
	"errors"
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("expected non-nil bus")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}

	ch2 := bus.Subscribe()
	if bus.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", bus.SubscriberCount())
	}

	if ch1 == nil || ch2 == nil {
		t.Error("expected non-nil channels")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(ch)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBusPublish(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe()

	event := NewWorkerStartedEvent(1, "127.0.0.1:9527")
	bus.Publish(event)

	select {
	case received := <-ch:
		if received.Type != EventWorkerStarted {
			t.Errorf("expected type %s, got %s", EventWorkerStarted, received.Type)
		}
		if received.WorkerID != 1 {
			t.Errorf("expected worker 1, got %d", received.WorkerID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestBusPublishMultipleSubscribers(t *testing.T) {
	bus := NewBus()

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()

	event := NewFloodStartEvent("127.0.0.1:9527", 4)
	bus.Publish(event)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			if received.Type != EventFloodStart {
				t.Errorf("subscriber %d: expected type %s, got %s", i, EventFloodStart, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout waiting for event", i)
		}
	}
}

func TestBusPublishNonBlocking(t *testing.T) {
	bus := NewBus()
	bus.bufferSize = 1 // Small buffer for testing

	ch := bus.Subscribe()

	// Fill the buffer
	bus.Publish(NewWorkerStartedEvent(0, "a"))
	bus.Publish(NewWorkerStartedEvent(1, "a"))
	bus.Publish(NewWorkerStartedEvent(2, "a"))

	// Should not block - test passes if it completes
	// First event should be received
	select {
	case <-ch:
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for first event")
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe()
	bus.Close()

	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", bus.SubscriberCount())
	}

	// Channel should be closed
	_, ok := <-ch
	if ok {
		t.Error("expected channel to be closed")
	}
}

func TestEventCreation(t *testing.T) {
	t.Run("FloodStartEvent", func(t *testing.T) {
		event := NewFloodStartEvent("127.0.0.1:9527", 8)
		if event.Type != EventFloodStart {
			t.Errorf("expected %s, got %s", EventFloodStart, event.Type)
		}
		if event.Data.Workers != 8 || event.Data.Addr != "127.0.0.1:9527" {
			t.Errorf("unexpected data: %+v", event.Data)
		}
	})

	t.Run("WorkerFinishedEvent", func(t *testing.T) {
		event := NewWorkerFinishedEvent(2, 100, 4096, 1500*time.Millisecond)
		if event.WorkerID != 2 {
			t.Errorf("expected worker 2, got %d", event.WorkerID)
		}
		if event.Data.Requests != 100 || event.Data.BytesSent != 4096 {
			t.Errorf("unexpected data: %+v", event.Data)
		}
		if event.Data.Elapsed != "1.5s" {
			t.Errorf("expected 1.5s, got %s", event.Data.Elapsed)
		}
	})

	t.Run("WorkerFailedEvent", func(t *testing.T) {
		event := NewWorkerFailedEvent(3, 7, errors.New("connection reset"))
		if event.Type != EventWorkerFailed {
			t.Errorf("expected %s, got %s", EventWorkerFailed, event.Type)
		}
		if event.Data.Error != "connection reset" {
			t.Errorf("expected error message, got %q", event.Data.Error)
		}
		if NewWorkerFailedEvent(3, 0, nil).Data.Error != "" {
			t.Error("expected empty error for nil")
		}
	})

	t.Run("FloodDoneEvent", func(t *testing.T) {
		event := NewFloodDoneEvent(4, time.Second)
		if event.Type != EventFloodDone || event.Data.Workers != 4 {
			t.Errorf("unexpected event: %+v", event)
		}
	})
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	// Should not panic
	bus.Publish(NewFloodDoneEvent(1, time.Second))
}

func TestSubscribeAfterClose(t *testing.T) {
	bus := NewBusWithBuffer(0)
	if bus.bufferSize != defaultBufferSize {
		t.Errorf("expected default buffer size, got %d", bus.bufferSize)
	}
	bus.Close()

	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel from closed bus")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}
