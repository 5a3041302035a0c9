package flood

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"litekv-cli/internal/events"
)

// fakeServer は RESP 配列を解析し、batch 個ごとに +OK を返す
type fakeServer struct {
	ln    net.Listener
	batch int
	reply bool

	mu       sync.Mutex
	commands []int
	conns    []net.Conn
	names    map[string]int
	keys     []string
}

func startFakeServer(t *testing.T, batch int, reply bool) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	s := &fakeServer{ln: ln, batch: batch, reply: reply, names: make(map[string]int)}
	go s.acceptLoop()
	t.Cleanup(s.close)
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeServer) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		idx := len(s.commands)
		s.commands = append(s.commands, 0)
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.serve(idx, conn)
	}
}

func (s *fakeServer) serve(idx int, conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		name, key, err := readCommand(r)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.names[name]++
		s.keys = append(s.keys, key)
		s.commands[idx]++
		count := s.commands[idx]
		s.mu.Unlock()
		if s.reply && count%s.batch == 0 {
			if _, err := conn.Write([]byte("+OK\r\n")); err != nil {
				return
			}
		}
	}
}

func (s *fakeServer) close() {
	_ = s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.Close()
	}
}

func (s *fakeServer) perConnection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.commands))
	copy(out, s.commands)
	return out
}

// readCommand は 1 コマンドを読み、先頭 2 要素（名前とキー）を返す
func readCommand(r *bufio.Reader) (string, string, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return "", "", err
	}
	if !strings.HasPrefix(header, "*") {
		return "", "", fmt.Errorf("unexpected header %q", header)
	}
	n, err := strconv.Atoi(strings.TrimSpace(header[1:]))
	if err != nil {
		return "", "", err
	}
	var head []string
	for range n {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", "", err
		}
		size, err := strconv.Atoi(strings.TrimSpace(line[1:]))
		if err != nil {
			return "", "", err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", "", err
		}
		if len(head) < 2 {
			head = append(head, string(buf[:size]))
		}
	}
	for len(head) < 2 {
		head = append(head, "")
	}
	return head[0], head[1], nil
}

func testConfig(addr string) Config {
	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.Workers = 3
	cfg.Requests = 20
	cfg.CommandsPerRequest = 5
	cfg.DrainDelay = 0
	cfg.DialTimeout = time.Second
	cfg.Seed = 1
	return cfg
}

func TestRunIssuesExactRequestsPerWorker(t *testing.T) {
	srv := startFakeServer(t, 5, true)
	cfg := testConfig(srv.addr())

	engine := New(cfg)
	stats, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stats) != cfg.Workers {
		t.Fatalf("expected %d worker stats, got %d", cfg.Workers, len(stats))
	}
	for i, s := range stats {
		if s.WorkerID != i {
			t.Errorf("stats[%d].WorkerID = %d", i, s.WorkerID)
		}
		if s.Failed() {
			t.Errorf("worker %d failed: %v", i, s.Err)
		}
		if s.Requests != uint64(cfg.Requests) {
			t.Errorf("worker %d: expected %d requests, got %d", i, cfg.Requests, s.Requests)
		}
		if s.BytesSent == 0 {
			t.Errorf("worker %d: expected bytes sent", i)
		}
		if s.ResponseWait <= 0 || s.ResponseWait > s.Wall {
			t.Errorf("worker %d: response wait %v not within wall %v", i, s.ResponseWait, s.Wall)
		}
	}

	// 各ワーカーは専用の接続を使う
	perConn := srv.perConnection()
	if len(perConn) != cfg.Workers {
		t.Fatalf("expected %d connections, got %d", cfg.Workers, len(perConn))
	}
	total := 0
	for i, n := range perConn {
		if n != cfg.Requests*cfg.CommandsPerRequest {
			t.Errorf("connection %d: expected %d commands, got %d", i, cfg.Requests*cfg.CommandsPerRequest, n)
		}
		total += n / cfg.CommandsPerRequest
	}
	if total != cfg.TotalRequests() {
		t.Errorf("expected %d total requests, got %d", cfg.TotalRequests(), total)
	}

	for i, snap := range engine.Snapshots() {
		if snap.Requests != uint64(cfg.Requests) {
			t.Errorf("recorder %d: expected %d requests, got %d", i, cfg.Requests, snap.Requests)
		}
	}
	if engine.IsRunning() {
		t.Error("expected engine to not be running after Run")
	}
}

func TestRunSingleWorker(t *testing.T) {
	srv := startFakeServer(t, 1, true)
	cfg := testConfig(srv.addr())
	cfg.Workers = 1
	cfg.CommandsPerRequest = 1

	stats, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 1 || stats[0].Requests != uint64(cfg.Requests) {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRunConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := testConfig(addr)
	cfg.Workers = 2
	stats, err := New(cfg).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when server is unreachable")
	}
	for _, s := range stats {
		if !s.Failed() {
			t.Errorf("worker %d should have failed", s.WorkerID)
		}
		if s.Requests != 0 {
			t.Errorf("worker %d: expected 0 requests, got %d", s.WorkerID, s.Requests)
		}
	}
	if !strings.Contains(err.Error(), "worker-0") || !strings.Contains(err.Error(), "worker-1") {
		t.Errorf("expected both worker errors to be reported, got: %v", err)
	}
}

func TestRunServerClosesConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	cfg := testConfig(ln.Addr().String())
	cfg.Workers = 1
	stats, err := New(cfg).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when server closes the connection")
	}
	if !stats[0].Failed() {
		t.Error("expected worker to fail")
	}
	if stats[0].Requests >= uint64(cfg.Requests) {
		t.Errorf("expected worker to stop early, got %d requests", stats[0].Requests)
	}
}

func TestRunReadTimeout(t *testing.T) {
	srv := startFakeServer(t, 1, false)
	cfg := testConfig(srv.addr())
	cfg.Workers = 1
	cfg.ReadTimeout = 50 * time.Millisecond

	stats, err := New(cfg).Run(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("expected timeout net.Error, got %v", err)
	}
	if stats[0].Requests != 0 {
		t.Errorf("expected 0 completed requests, got %d", stats[0].Requests)
	}
}

func TestRunRateLimited(t *testing.T) {
	srv := startFakeServer(t, 1, true)
	cfg := testConfig(srv.addr())
	cfg.Workers = 1
	cfg.CommandsPerRequest = 1
	cfg.Requests = 5
	cfg.Rate = 100

	start := time.Now()
	if _, err := New(cfg).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected rate limit to slow the run, took %v", elapsed)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0
	if _, err := New(cfg).Run(context.Background()); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestRunPublishesEvents(t *testing.T) {
	srv := startFakeServer(t, 2, true)
	cfg := testConfig(srv.addr())
	cfg.Workers = 2
	cfg.CommandsPerRequest = 2

	bus := events.NewBus()
	ch := bus.Subscribe()

	engine := New(cfg)
	engine.SetEventBus(bus)
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.Close()

	counts := make(map[events.EventType]int)
	for ev := range ch {
		counts[ev.Type]++
	}
	if counts[events.EventFloodStart] != 1 {
		t.Errorf("expected 1 flood_start, got %d", counts[events.EventFloodStart])
	}
	if counts[events.EventWorkerStarted] != 2 {
		t.Errorf("expected 2 worker_started, got %d", counts[events.EventWorkerStarted])
	}
	if counts[events.EventWorkerFinished] != 2 {
		t.Errorf("expected 2 worker_finished, got %d", counts[events.EventWorkerFinished])
	}
	if counts[events.EventFloodDone] != 1 {
		t.Errorf("expected 1 flood_done, got %d", counts[events.EventFloodDone])
	}
}

func TestRunHonorsCommandFilterAndKeyLength(t *testing.T) {
	srv := startFakeServer(t, 4, true)
	cfg := testConfig(srv.addr())
	cfg.Workers = 2
	cfg.CommandsPerRequest = 4
	cfg.Commands = []string{"hget", "lpush"}
	cfg.KeyspaceLen = 6

	if _, err := New(cfg).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	for name := range srv.names {
		if name != "hget" && name != "lpush" {
			t.Errorf("unexpected command on the wire: %s", name)
		}
	}
	if srv.names["hget"] == 0 || srv.names["lpush"] == 0 {
		t.Errorf("expected both filtered commands, got %v", srv.names)
	}
	for _, key := range srv.keys {
		_, suffix, _ := strings.Cut(key, ":")
		if len(suffix) != 6 {
			t.Fatalf("expected 6-char key suffix, got %q", key)
		}
	}
}
