package flood

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"litekv-cli/internal/events"
	"litekv-cli/internal/logger"
	"litekv-cli/internal/metrics"
	"litekv-cli/internal/pseudo"
	"litekv-cli/internal/resp"
	"litekv-cli/internal/worker"
)

// ErrConnectionClosed はサーバーが接続を閉じたことを表す
var ErrConnectionClosed = errors.New("connection closed by server")

// RunStats は 1 ワーカーの実行結果
// ワーカー間で集計はせず、個別に報告する
type RunStats struct {
	WorkerID      int
	Requests      uint64
	BytesSent     uint64
	BytesReceived uint64
	Wall          time.Duration // 最初の送信から最後の応答まで
	ResponseWait  time.Duration // 応答待ち時間の累計
	AvgLatency    time.Duration
	P99Latency    time.Duration
	Err           error
}

// Failed はワーカーがエラーで終了したかを返す
func (s RunStats) Failed() bool {
	return s.Err != nil
}

// Engine はフラッド実行エンジン
type Engine struct {
	config   Config
	eventBus *events.Bus

	// ワーカー毎に専有される計測器。他からは読み取りのみ
	recorders []*metrics.Metrics

	mu      sync.RWMutex
	running bool
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	recorders := make([]*metrics.Metrics, max(config.Workers, 0))
	for i := range recorders {
		recorders[i] = metrics.New()
	}
	return &Engine{
		config:    config,
		recorders: recorders,
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// Config は実行設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Snapshots は各ワーカーの現在のメトリクスを返す
func (e *Engine) Snapshots() []metrics.Snapshot {
	snaps := make([]metrics.Snapshot, len(e.recorders))
	for i, m := range e.recorders {
		snaps[i] = m.Snapshot()
	}
	return snaps
}

// Run は全ワーカーを起動し、すべての終了を待つ
// 途中でのキャンセルはサポートしない
func (e *Engine) Run(ctx context.Context) ([]RunStats, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flood config: %w", err)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, errors.New("flood already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	runCtx := context.WithoutCancel(ctx)
	start := time.Now()
	n := e.config.Workers

	logger.Info("", "Flood started (addr: %s, workers: %d, requests: %d, commands/request: %d, all_set: %v)",
		e.config.Addr, n, e.config.Requests, e.config.CommandsPerRequest, e.config.AllSet)
	e.eventBus.Publish(events.NewFloodStartEvent(e.config.Addr, n))

	pool := worker.NewPool(n)
	pool.Start(runCtx)

	stats := make([]RunStats, n)
	for i := range n {
		id := i
		if err := pool.Submit(func() {
			stats[id] = e.runWorker(runCtx, id)
		}); err != nil {
			stats[id] = RunStats{WorkerID: id, Err: fmt.Errorf("worker-%d: schedule: %w", id, err)}
			logger.Error(fmt.Sprintf("worker-%d", id), "Could not be scheduled: %v", err)
		}
	}
	pool.Close()

	var errs []error
	for _, s := range stats {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}

	elapsed := time.Since(start)
	e.eventBus.Publish(events.NewFloodDoneEvent(n, elapsed))
	logger.Info("", "Flood finished in %v (%d/%d workers failed)", elapsed.Round(time.Millisecond), len(errs), n)

	return stats, errors.Join(errs...)
}

// runWorker は 1 本の接続で Requests 回のリクエストを実行する
func (e *Engine) runWorker(ctx context.Context, id int) RunStats {
	cfg := e.config
	name := fmt.Sprintf("worker-%d", id)
	m := e.recorders[id]
	stats := RunStats{WorkerID: id}

	fail := func(err error) RunStats {
		m.MarkFinish()
		stats = fillStats(stats, m)
		stats.Err = fmt.Errorf("%s: %w", name, err)
		logger.Error(name, "%v (after %d requests)", err, stats.Requests)
		e.eventBus.Publish(events.NewWorkerFailedEvent(id, stats.Requests, err))
		return stats
	}

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return fail(fmt.Errorf("connect %s: %w", cfg.Addr, err))
	}
	defer func() { _ = conn.Close() }()

	logger.Debug(name, "Connected to %s", cfg.Addr)
	e.eventBus.Publish(events.NewWorkerStartedEvent(id, cfg.Addr))

	gen, err := newGenerator(cfg, id)
	if err != nil {
		return fail(err)
	}
	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	batch := make([]byte, 0, 64*cfg.CommandsPerRequest)
	readBuf := make([]byte, cfg.ReadBufferSize)

	m.MarkStart()
	for i := range cfg.Requests {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fail(fmt.Errorf("rate limiter: %w", err))
			}
		}

		batch = batch[:0]
		for range cfg.CommandsPerRequest {
			batch = resp.AppendCommand(batch, gen.Next(cfg.AllSet))
		}

		if cfg.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
				return fail(fmt.Errorf("set read deadline: %w", err))
			}
		}

		start := time.Now()
		if _, err := conn.Write(batch); err != nil {
			return fail(fmt.Errorf("send request %d: %w", i, err))
		}
		n, err := conn.Read(readBuf)
		wait := time.Since(start)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrConnectionClosed
			}
			return fail(fmt.Errorf("read reply %d: %w", i, err))
		}
		m.RecordRequest(len(batch), n, wait)
	}
	m.MarkFinish()

	// 遅れて届く応答を読み捨てる猶予。同期の保証ではない
	time.Sleep(cfg.DrainDelay)

	stats = fillStats(stats, m)
	logger.Debug(name, "Finished %d requests, %d bytes sent", stats.Requests, stats.BytesSent)
	e.eventBus.Publish(events.NewWorkerFinishedEvent(id, stats.Requests, stats.BytesSent, stats.Wall))
	return stats
}

func fillStats(stats RunStats, m *metrics.Metrics) RunStats {
	snap := m.Snapshot()
	stats.Requests = snap.Requests
	stats.BytesSent = snap.BytesSent
	stats.BytesReceived = snap.BytesReceived
	stats.Wall = snap.Elapsed
	stats.ResponseWait = snap.ResponseWait
	stats.AvgLatency = snap.AverageLatency
	stats.P99Latency = snap.P99Latency
	return stats
}

// newGenerator はワーカー専用の疑似コマンド生成器を作る
func newGenerator(cfg Config, id int) (*pseudo.Generator, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return pseudo.NewWithOptions(seed+int64(id), cfg.generatorOptions())
}
