package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"litekv-cli/internal/logger"
)

// Job はワーカーが実行するジョブ
type Job func()

var (
	// ErrNotStarted は Start 前の投入を表す
	ErrNotStarted = errors.New("worker pool not started")
	// ErrClosed は Close 後の投入を表す
	ErrClosed = errors.New("worker pool closed")
)

// Pool は固定数のゴルーチンでジョブを実行する
// キューに入ったジョブは Close 時にすべて実行される
type Pool struct {
	size int
	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.RWMutex
	ctx     context.Context
	started bool
	closed  bool
}

// NewPool は size 個のゴルーチンを持つプールを作成する
// size が 0 以下なら CPU 数
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		size: size,
		jobs: make(chan Job, size),
	}
}

// Start はゴルーチンを起動する。二度目以降は何もしない
// ctx は投入待ちの打ち切りにだけ使い、実行中のジョブは止めない
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.closed {
		return
	}
	p.ctx = ctx
	p.started = true

	p.wg.Add(p.size)
	for range p.size {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}

	logger.Debug("", "Worker pool started with %d goroutines", p.size)
}

// Submit はジョブをキューに入れる。空きがなければ待つ
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch {
	case p.closed:
		return ErrClosed
	case !p.started:
		return ErrNotStarted
	}

	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Close は投入を締め切り、キューのジョブをすべて実行し終えるまで待つ
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.started
	close(p.jobs)
	p.mu.Unlock()

	if started {
		p.wg.Wait()
	}
	logger.Debug("", "Worker pool closed")
}
