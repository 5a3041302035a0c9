package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"litekv-cli/internal/flood"
	"litekv-cli/internal/logger"
	"litekv-cli/internal/pseudo"
	"litekv-cli/internal/session"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 9527
)

// FileConfig は設定ファイルの構造
// ゼロ値の項目は未指定として扱う
type FileConfig struct {
	Client  ClientConfig  `yaml:"client" json:"client"`
	Flood   FloodConfig   `yaml:"flood" json:"flood"`
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
}

// ClientConfig は接続と表示の設定
type ClientConfig struct {
	Address     string `yaml:"address" json:"address"`
	Port        int    `yaml:"port" json:"port"`
	Raw         bool   `yaml:"raw" json:"raw"`
	Debug       bool   `yaml:"debug" json:"debug"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	ReadTimeout string `yaml:"read_timeout" json:"read_timeout"`
}

// FloodConfig は負荷生成の設定
type FloodConfig struct {
	Enabled            bool     `yaml:"enabled" json:"enabled"`
	Preset             string   `yaml:"preset" json:"preset"`
	Multi              bool     `yaml:"multi" json:"multi"`
	Workers            int      `yaml:"workers" json:"workers"`
	CommandsPerRequest int      `yaml:"commands_per_request" json:"commands_per_request"`
	Requests           int      `yaml:"requests" json:"requests"`
	AllSet             bool     `yaml:"all_set" json:"all_set"`
	KeyspaceLen        int      `yaml:"keyspace_len" json:"keyspace_len"`
	Commands           []string `yaml:"commands" json:"commands"`
	Rate               float64  `yaml:"rate" json:"rate"`
	DrainDelay         string   `yaml:"drain_delay" json:"drain_delay"`
	ReadBuffer         int      `yaml:"read_buffer" json:"read_buffer"`
	ReadTimeout        string   `yaml:"read_timeout" json:"read_timeout"`
	Seed               int64    `yaml:"seed" json:"seed"`
}

// MonitorConfig はモニター設定
type MonitorConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoadFile は設定ファイルを読み込む
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Addr は接続先の host:port を返す
func (f *FileConfig) Addr() string {
	host := f.Client.Address
	if host == "" {
		host = DefaultHost
	}
	port := f.Client.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// LogLevel はログレベルを返す
// debug が有効なら log_level より優先する
func (f *FileConfig) LogLevel() (logger.Level, error) {
	if f.Client.Debug {
		return logger.LevelDebug, nil
	}
	return logger.ParseLevel(f.Client.LogLevel)
}

// ToFloodConfig はFileConfigをflood.Configに変換する
// デフォルト < プリセット < 設定値 の順に上書きする
func (f *FileConfig) ToFloodConfig() (flood.Config, error) {
	fc := f.Flood
	config := flood.DefaultConfig()

	if fc.Preset != "" {
		preset, ok := flood.GetPreset(fc.Preset)
		if !ok {
			return config, fmt.Errorf("unknown preset: %s", fc.Preset)
		}
		config = preset
	}

	config.Addr = f.Addr()

	if fc.Workers > 0 {
		config.Workers = fc.Workers
	}
	// --multi もプリセットもなければ単一ワーカー
	if !fc.Multi && fc.Preset == "" {
		config.Workers = 1
	}
	if fc.CommandsPerRequest > 0 {
		config.CommandsPerRequest = fc.CommandsPerRequest
	}
	if fc.Requests > 0 {
		config.Requests = fc.Requests
	}
	if fc.AllSet {
		config.AllSet = true
	}
	if fc.KeyspaceLen > 0 {
		config.KeyspaceLen = fc.KeyspaceLen
	}
	if len(fc.Commands) > 0 {
		config.Commands = fc.Commands
	}
	if fc.Rate > 0 {
		config.Rate = fc.Rate
	}
	if fc.ReadBuffer > 0 {
		config.ReadBufferSize = fc.ReadBuffer
	}
	if fc.Seed != 0 {
		config.Seed = fc.Seed
	}
	if fc.DrainDelay != "" {
		d, err := time.ParseDuration(fc.DrainDelay)
		if err != nil {
			return config, fmt.Errorf("invalid drain_delay: %w", err)
		}
		config.DrainDelay = d
	}
	if fc.ReadTimeout != "" {
		d, err := time.ParseDuration(fc.ReadTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid flood read_timeout: %w", err)
		}
		config.ReadTimeout = d
	}

	return config, nil
}

// ToSessionOptions はFileConfigをsession.Optionsに変換する
func (f *FileConfig) ToSessionOptions() (session.Options, error) {
	opts := session.Options{
		Addr:           f.Addr(),
		Raw:            f.Client.Raw,
		Debug:          f.Client.Debug,
		ReadBufferSize: session.DefaultReadBufferSize,
	}
	if f.Flood.ReadBuffer > 0 {
		opts.ReadBufferSize = f.Flood.ReadBuffer
	}
	if f.Client.ReadTimeout != "" {
		d, err := time.ParseDuration(f.Client.ReadTimeout)
		if err != nil {
			return opts, fmt.Errorf("invalid client read_timeout: %w", err)
		}
		opts.ReadTimeout = d
	}
	return opts, nil
}

// Validate は設定を検証する
func (f *FileConfig) Validate() error {
	c := f.Client
	fc := f.Flood

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("client.port must be between 0 and 65535")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("client.log_level: %w", err)
	}
	if err := validDuration("client.read_timeout", c.ReadTimeout); err != nil {
		return err
	}

	if fc.Preset != "" {
		if _, ok := flood.GetPreset(fc.Preset); !ok {
			return fmt.Errorf("flood.preset: unknown preset %s", fc.Preset)
		}
	}
	if fc.Workers < 0 {
		return fmt.Errorf("flood.workers must be non-negative")
	}
	if fc.CommandsPerRequest < 0 {
		return fmt.Errorf("flood.commands_per_request must be non-negative")
	}
	if fc.Requests < 0 {
		return fmt.Errorf("flood.requests must be non-negative")
	}
	if fc.Rate < 0 {
		return fmt.Errorf("flood.rate must be non-negative")
	}
	opts := pseudo.Options{KeyspaceLen: fc.KeyspaceLen, Commands: fc.Commands}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("flood: %w", err)
	}
	if fc.ReadBuffer < 0 {
		return fmt.Errorf("flood.read_buffer must be non-negative")
	}
	if err := validDuration("flood.drain_delay", fc.DrainDelay); err != nil {
		return err
	}
	if err := validDuration("flood.read_timeout", fc.ReadTimeout); err != nil {
		return err
	}

	return nil
}

func validDuration(field, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must be non-negative", field)
	}
	return nil
}
