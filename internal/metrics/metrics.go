package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxLatencySamples = 1000

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // P99 計算用に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{MaxLatencySamples: defaultMaxLatencySamples}
}

// Metrics は 1 ワーカーのリクエスト計測を記録する
// 書き込みは所有ワーカーのみが行い、他の goroutine は読み取りのみ
type Metrics struct {
	requests     atomic.Uint64
	bytesSent    atomic.Uint64
	bytesRecv    atomic.Uint64
	totalWaitNs  atomic.Uint64
	startNs      atomic.Int64
	finishNs     atomic.Int64
	maxLatencyNs atomic.Int64

	mu                sync.RWMutex
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	samples := config.MaxLatencySamples
	if samples <= 0 {
		samples = defaultMaxLatencySamples
	}
	m := &Metrics{
		latencies:         make([]time.Duration, 0, samples),
		maxLatencySamples: samples,
	}
	m.startNs.Store(time.Now().UnixNano())
	return m
}

// MarkStart は計測開始時刻を記録する
func (m *Metrics) MarkStart() {
	m.startNs.Store(time.Now().UnixNano())
	m.finishNs.Store(0)
}

// MarkFinish は計測終了時刻を記録する
func (m *Metrics) MarkFinish() {
	m.finishNs.Store(time.Now().UnixNano())
}

// RecordRequest は 1 リクエストの送信バイト数と応答待ち時間を記録する
func (m *Metrics) RecordRequest(sent, received int, wait time.Duration) {
	m.requests.Add(1)
	m.bytesSent.Add(uint64(sent))
	m.bytesRecv.Add(uint64(received))
	m.totalWaitNs.Add(uint64(wait.Nanoseconds()))

	for {
		cur := m.maxLatencyNs.Load()
		if wait.Nanoseconds() <= cur || m.maxLatencyNs.CompareAndSwap(cur, wait.Nanoseconds()) {
			break
		}
	}

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, wait)
	}
	m.mu.Unlock()
}

// Requests は完了したリクエスト数を返す
func (m *Metrics) Requests() uint64 {
	return m.requests.Load()
}

// BytesSent は送信した総バイト数を返す
func (m *Metrics) BytesSent() uint64 {
	return m.bytesSent.Load()
}

// BytesReceived は受信した総バイト数を返す
func (m *Metrics) BytesReceived() uint64 {
	return m.bytesRecv.Load()
}

// ResponseWait は応答待ち時間の累計を返す
func (m *Metrics) ResponseWait() time.Duration {
	return time.Duration(m.totalWaitNs.Load())
}

// Elapsed は開始からの経過時間を返す（終了済みなら開始から終了まで）
func (m *Metrics) Elapsed() time.Duration {
	start := m.startNs.Load()
	end := m.finishNs.Load()
	if end == 0 {
		end = time.Now().UnixNano()
	}
	return time.Duration(end - start)
}

// RPS は開始からの平均 Requests Per Second を返す
func (m *Metrics) RPS() float64 {
	elapsed := m.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.requests.Load()) / elapsed
}

// AverageLatency は平均レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.requests.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalWaitNs.Load() / total)
}

// MaxLatency は最大レイテンシを返す
func (m *Metrics) MaxLatency() time.Duration {
	return time.Duration(m.maxLatencyNs.Load())
}

// P99Latency はP99レイテンシを返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	Requests       uint64        `json:"requests"`
	BytesSent      uint64        `json:"bytes_sent"`
	BytesReceived  uint64        `json:"bytes_received"`
	ResponseWait   time.Duration `json:"response_wait_ns"`
	RPS            float64       `json:"rps"`
	AverageLatency time.Duration `json:"avg_latency_ns"`
	P99Latency     time.Duration `json:"p99_latency_ns"`
	MaxLatency     time.Duration `json:"max_latency_ns"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Requests:       m.Requests(),
		BytesSent:      m.BytesSent(),
		BytesReceived:  m.BytesReceived(),
		ResponseWait:   m.ResponseWait(),
		RPS:            m.RPS(),
		AverageLatency: m.AverageLatency(),
		P99Latency:     m.P99Latency(),
		MaxLatency:     m.MaxLatency(),
		Elapsed:        m.Elapsed(),
	}
}
