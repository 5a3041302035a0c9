package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := New()
	if m.Requests() != 0 {
		t.Errorf("expected 0 requests, got %d", m.Requests())
	}
	if m.AverageLatency() != 0 {
		t.Errorf("expected 0 average latency, got %v", m.AverageLatency())
	}
	if m.P99Latency() != 0 {
		t.Errorf("expected 0 p99 latency, got %v", m.P99Latency())
	}
}

func TestRecordRequest(t *testing.T) {
	m := New()

	m.RecordRequest(100, 5, 10*time.Millisecond)
	m.RecordRequest(50, 5, 30*time.Millisecond)

	if m.Requests() != 2 {
		t.Errorf("expected 2 requests, got %d", m.Requests())
	}
	if m.BytesSent() != 150 {
		t.Errorf("expected 150 bytes sent, got %d", m.BytesSent())
	}
	if m.BytesReceived() != 10 {
		t.Errorf("expected 10 bytes received, got %d", m.BytesReceived())
	}
	if m.ResponseWait() != 40*time.Millisecond {
		t.Errorf("expected 40ms response wait, got %v", m.ResponseWait())
	}
	if m.AverageLatency() != 20*time.Millisecond {
		t.Errorf("expected 20ms average, got %v", m.AverageLatency())
	}
	if m.MaxLatency() != 30*time.Millisecond {
		t.Errorf("expected 30ms max, got %v", m.MaxLatency())
	}
}

func TestP99Latency(t *testing.T) {
	m := New()
	for i := 1; i <= 100; i++ {
		m.RecordRequest(1, 1, time.Duration(i)*time.Millisecond)
	}

	p99 := m.P99Latency()
	if p99 < 99*time.Millisecond {
		t.Errorf("expected p99 >= 99ms, got %v", p99)
	}
}

func TestMaxLatencySamples(t *testing.T) {
	m := NewWithConfig(Config{MaxLatencySamples: 10})
	for range 50 {
		m.RecordRequest(1, 1, time.Millisecond)
	}

	if m.Requests() != 50 {
		t.Errorf("expected 50 requests, got %d", m.Requests())
	}
	m.mu.RLock()
	samples := len(m.latencies)
	m.mu.RUnlock()
	if samples != 10 {
		t.Errorf("expected 10 samples kept, got %d", samples)
	}

	if NewWithConfig(Config{}).maxLatencySamples != defaultMaxLatencySamples {
		t.Error("expected zero config to fall back to default sample size")
	}
}

func TestElapsedFrozenAfterFinish(t *testing.T) {
	m := New()
	m.MarkStart()
	time.Sleep(5 * time.Millisecond)
	m.MarkFinish()

	first := m.Elapsed()
	time.Sleep(5 * time.Millisecond)
	if m.Elapsed() != first {
		t.Errorf("expected elapsed to stay at %v after finish, got %v", first, m.Elapsed())
	}
	if first < 5*time.Millisecond {
		t.Errorf("expected elapsed >= 5ms, got %v", first)
	}
}

func TestSnapshot(t *testing.T) {
	m := New()
	m.MarkStart()
	m.RecordRequest(64, 8, 2*time.Millisecond)
	m.MarkFinish()

	snap := m.Snapshot()
	if snap.Requests != 1 {
		t.Errorf("expected 1 request, got %d", snap.Requests)
	}
	if snap.BytesSent != 64 {
		t.Errorf("expected 64 bytes, got %d", snap.BytesSent)
	}
	if snap.ResponseWait != 2*time.Millisecond {
		t.Errorf("expected 2ms wait, got %v", snap.ResponseWait)
	}
	if snap.RPS <= 0 {
		t.Errorf("expected positive RPS, got %f", snap.RPS)
	}
}

func TestConcurrentReaders(t *testing.T) {
	m := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 1000 {
			m.RecordRequest(10, 1, time.Microsecond)
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = m.Snapshot()
			}
		}()
	}
	wg.Wait()

	if m.Requests() != 1000 {
		t.Errorf("expected 1000 requests, got %d", m.Requests())
	}
}
