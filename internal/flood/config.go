package flood

import (
	"errors"
	"fmt"
	"time"

	"litekv-cli/internal/pseudo"
)

// Config はフラッド実行の設定
// 実行中は変更しない
type Config struct {
	Name        string // プリセット名
	Description string

	Addr               string   // 接続先 host:port
	Requests           int      // ワーカー毎のリクエスト数
	CommandsPerRequest int      // 1 リクエストにまとめるコマンド数
	Workers            int      // ワーカー数
	AllSet             bool     // 書き込み系コマンドのみ生成
	KeyspaceLen        int      // キー接尾辞の固定長（0で1〜8のランダム）
	Commands           []string // 生成するコマンド名（空で全種）
	Rate               float64  // ワーカー毎の秒間リクエスト上限（0で無制限）

	ReadBufferSize int           // 応答読み取りバッファ
	DialTimeout    time.Duration // 接続タイムアウト
	ReadTimeout    time.Duration // 応答待ちタイムアウト（0で無制限）
	DrainDelay     time.Duration // ループ後、切断前の待機時間
	Seed           int64         // 疑似コマンドのシード（0で時刻ベース）
}

const (
	DefaultAddr           = "127.0.0.1:9527"
	DefaultReadBufferSize = 8192
)

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:               "default",
		Description:        "Balanced mixed workload",
		Addr:               DefaultAddr,
		Requests:           1000,
		CommandsPerRequest: 10,
		Workers:            4,
		ReadBufferSize:     DefaultReadBufferSize,
		DialTimeout:        5 * time.Second,
		DrainDelay:         time.Second,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Requests <= 0 {
		errs = append(errs, fmt.Errorf("requests must be positive, got %d", c.Requests))
	}
	if c.CommandsPerRequest <= 0 {
		errs = append(errs, fmt.Errorf("commands per request must be positive, got %d", c.CommandsPerRequest))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate must be non-negative, got %f", c.Rate))
	}
	if err := c.generatorOptions().Validate(); err != nil {
		errs = append(errs, err)
	} else if c.AllSet && !c.generatorOptions().HasWrite() {
		errs = append(errs, fmt.Errorf("all-set needs a write command among %v", c.Commands))
	}
	if c.ReadBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("read buffer size must be positive, got %d", c.ReadBufferSize))
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.DrainDelay < 0 {
		errs = append(errs, errors.New("timeouts must be non-negative"))
	}
	return errors.Join(errs...)
}

func (c Config) generatorOptions() pseudo.Options {
	return pseudo.Options{KeyspaceLen: c.KeyspaceLen, Commands: c.Commands}
}

// TotalRequests は全ワーカー合計のリクエスト数を返す
func (c Config) TotalRequests() int {
	return c.Workers * c.Requests
}
