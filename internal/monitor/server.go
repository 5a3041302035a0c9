package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"litekv-cli/internal/events"
	"litekv-cli/internal/flood"
	"litekv-cli/internal/logger"
	"litekv-cli/internal/metrics"

	"golang.org/x/net/websocket"
)

const component = "monitor"

// Source は監視対象
type Source interface {
	Snapshots() []metrics.Snapshot
	IsRunning() bool
}

// Server はモニターサーバー
type Server struct {
	addr     string
	source   Source
	bus      *events.Bus
	interval time.Duration

	mu        sync.RWMutex
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しいモニターサーバーを作成する
func NewServer(addr string, source Source) *Server {
	return &Server{
		addr:      addr,
		source:    source,
		interval:  time.Second,
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// SetEventBus はイベントバスを設定する
func (s *Server) SetEventBus(bus *events.Bus) {
	s.bus = bus
}

// SetInterval は統計の配信間隔を設定する
func (s *Server) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))
	return mux
}

// Start はサーバーを開始する
// ctx が終了するまでブロックする
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve は指定されたリスナーで配信する
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.broadcastLoop(ctx)
	go s.forwardEvents(ctx)

	logger.Info(component, "Monitor listening on http://%s", ln.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running bool `json:"running"`
	Workers int  `json:"workers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.status())
}

func (s *Server) status() StatusResponse {
	return StatusResponse{
		Running: s.source.IsRunning(),
		Workers: len(s.source.Snapshots()),
	}
}

// WorkerStats はワーカー毎の統計
type WorkerStats struct {
	WorkerID int `json:"worker_id"`
	metrics.Snapshot
}

// StatsResponse は統計レスポンス
type StatsResponse struct {
	Running bool          `json:"running"`
	Workers []WorkerStats `json:"workers"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.stats())
}

func (s *Server) stats() StatsResponse {
	snaps := s.source.Snapshots()
	workers := make([]WorkerStats, len(snaps))
	for i, snap := range snaps {
		workers[i] = WorkerStats{WorkerID: i, Snapshot: snap}
	}
	return StatsResponse{
		Running: s.source.IsRunning(),
		Workers: workers,
	}
}

// PresetInfo はプリセット情報
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var presets []PresetInfo
	for _, name := range flood.ListPresets() {
		cfg, _ := flood.GetPreset(name)
		presets = append(presets, PresetInfo{Name: name, Description: cfg.Description})
	}
	s.writeJSON(w, presets)
}

func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// クライアントが切断するまで保持
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

// ClientCount は接続中の websocket クライアント数を返す
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(data any) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Error(component, "Failed to encode broadcast: %v", err)
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// StatsMessage は定期配信メッセージ
type StatsMessage struct {
	Type  string        `json:"type"`
	Stats StatsResponse `json:"stats"`
}

// EventMessage はイベント転送メッセージ
type EventMessage struct {
	Type  string       `json:"type"`
	Event events.Event `json:"event"`
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.source.IsRunning() {
				continue
			}
			s.broadcast(StatsMessage{Type: "stats", Stats: s.stats()})
		}
	}
}

func (s *Server) forwardEvents(ctx context.Context) {
	if s.bus == nil {
		return
	}
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.broadcast(EventMessage{Type: "event", Event: ev})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(component, "Failed to encode JSON: %v", err)
	}
}
