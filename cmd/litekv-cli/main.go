// Package main is the entry point for litekv-cli.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"litekv-cli/internal/config"
	"litekv-cli/internal/events"
	"litekv-cli/internal/flood"
	"litekv-cli/internal/logger"
	"litekv-cli/internal/monitor"
	"litekv-cli/internal/pseudo"
	"litekv-cli/internal/session"
)

var version = "dev"

const dialTimeout = 5 * time.Second

// options はコマンドラインフラグの値
type options struct {
	address     string
	port        int
	raw         bool
	debug       bool
	flood       bool
	multi       bool
	workers     int
	commands    int
	requests    int
	allSet      bool
	keyspaceLen int
	testCmds    string
	preset      string
	rate        float64
	drain       time.Duration
	configFile  string
	monitorAddr string
	listPresets bool
}

func main() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "litekv-cli",
		Short: "Interactive client and load generator for LiteKV",
		Long: `litekv-cli talks RESP to a LiteKV (or Redis-compatible) server.

Without --flood it starts an interactive prompt: type a command such as
  set greeting "hello world"
and the decoded reply is printed. Type q to quit.

With --flood it generates pseudo-random commands and measures how long
the server takes to answer each batch.`,
		Example: `  litekv-cli -a 127.0.0.1 -p 9527
  litekv-cli --flood --multi -w 8 -n 5000 -c 20
  litekv-cli --flood -t set,get -k 10
  litekv-cli --flood --preset write-heavy --monitor 127.0.0.1:8080
  litekv-cli --config litekv.yaml --flood`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.address, "address", "a", config.DefaultHost, "server address")
	f.IntVarP(&opts.port, "port", "p", config.DefaultPort, "server port")
	f.BoolVarP(&opts.raw, "raw", "r", false, "print the raw response bytes")
	f.BoolVarP(&opts.debug, "debug", "d", false, "debug logging, including outbound frames")
	f.BoolVarP(&opts.flood, "flood", "f", false, "run the load generator instead of the prompt")
	f.BoolVarP(&opts.multi, "multi", "m", false, "flood with multiple workers (otherwise one)")
	f.IntVarP(&opts.workers, "workers", "w", 4, "number of workers with --multi")
	f.IntVarP(&opts.commands, "commands", "c", 10, "commands per request")
	f.IntVarP(&opts.requests, "requests", "n", 1000, "requests per worker")
	f.BoolVarP(&opts.allSet, "all-set", "s", false, "generate write commands only")
	f.IntVarP(&opts.keyspaceLen, "keyspace", "k", 0, "fixed length of generated key suffixes (0 = random 1-8)")
	f.StringVarP(&opts.testCmds, "test-commands", "t", "", "comma separated commands to generate, e.g. set,get,hset")
	f.StringVar(&opts.preset, "preset", "", "flood preset (see --list-presets)")
	f.Float64Var(&opts.rate, "rate", 0, "per-worker request/sec limit (0 = unlimited)")
	f.DurationVar(&opts.drain, "drain", time.Second, "pause after the flood loop before disconnecting")
	f.StringVar(&opts.configFile, "config", "", "config file path (YAML/JSON)")
	f.StringVar(&opts.monitorAddr, "monitor", "", "serve a live flood monitor on this address")
	f.BoolVar(&opts.listPresets, "list-presets", false, "list flood presets")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()

	if opts.listPresets {
		printPresets(out)
		return nil
	}

	fc, err := buildFileConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := fc.LogLevel()
	if err != nil {
		return err
	}
	logger.Default.SetOutput(cmd.ErrOrStderr())
	logger.Default.SetLevel(level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if fc.Flood.Enabled {
		return runFlood(ctx, out, fc)
	}
	return runSession(ctx, cmd.InOrStdin(), out, fc)
}

// buildFileConfig は設定ファイルと明示されたフラグを合成する
// デフォルト < プリセット < 設定ファイル < フラグ
func buildFileConfig(cmd *cobra.Command, opts *options) (*config.FileConfig, error) {
	fc := &config.FileConfig{}
	if opts.configFile != "" {
		loaded, err := config.LoadFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		fc = loaded
	}

	f := cmd.Flags()
	if f.Changed("address") {
		fc.Client.Address = opts.address
	}
	if f.Changed("port") {
		fc.Client.Port = opts.port
	}
	if f.Changed("raw") {
		fc.Client.Raw = opts.raw
	}
	if f.Changed("debug") {
		fc.Client.Debug = opts.debug
	}
	if f.Changed("flood") {
		fc.Flood.Enabled = opts.flood
	}
	if f.Changed("multi") {
		fc.Flood.Multi = opts.multi
	}
	if f.Changed("workers") {
		fc.Flood.Workers = opts.workers
	}
	if f.Changed("commands") {
		fc.Flood.CommandsPerRequest = opts.commands
	}
	if f.Changed("requests") {
		fc.Flood.Requests = opts.requests
	}
	if f.Changed("all-set") {
		fc.Flood.AllSet = opts.allSet
	}
	if f.Changed("keyspace") {
		fc.Flood.KeyspaceLen = opts.keyspaceLen
	}
	if f.Changed("test-commands") {
		fc.Flood.Commands = pseudo.ParseCommands(opts.testCmds)
	}
	if f.Changed("preset") {
		fc.Flood.Preset = opts.preset
	}
	if f.Changed("rate") {
		fc.Flood.Rate = opts.rate
	}
	if f.Changed("drain") {
		fc.Flood.DrainDelay = opts.drain.String()
	}
	if f.Changed("monitor") {
		fc.Monitor.Addr = opts.monitorAddr
	}

	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return fc, nil
}

// runFlood は負荷生成を実行し、レポートを出力する
func runFlood(ctx context.Context, out io.Writer, fc *config.FileConfig) error {
	cfg, err := fc.ToFloodConfig()
	if err != nil {
		return err
	}

	engine := flood.New(cfg)

	if fc.Monitor.Addr != "" {
		// 1 回の実行で発生するイベントをすべて保持できる大きさ
		bus := events.NewBusWithBuffer(2*cfg.Workers + 2)
		defer bus.Close()
		engine.SetEventBus(bus)

		mon := monitor.NewServer(fc.Monitor.Addr, engine)
		mon.SetEventBus(bus)

		monCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := mon.Start(monCtx); err != nil {
				logger.Error("monitor", "Monitor stopped: %v", err)
			}
		}()
	}

	stats, err := engine.Run(ctx)
	if stats == nil {
		return err
	}
	fmt.Fprintln(out, flood.Report(cfg, stats))
	return err
}

// runSession はサーバーに接続し、対話セッションを開始する
func runSession(ctx context.Context, in io.Reader, out io.Writer, fc *config.FileConfig) error {
	opts, err := fc.ToSessionOptions()
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", opts.Addr, err)
	}
	defer func() { _ = conn.Close() }()

	logger.Debug("session", "Connected to %s", opts.Addr)
	return session.New(conn, in, out, opts).Run(ctx)
}

// printPresets は利用可能なプリセットを表示する
func printPresets(out io.Writer) {
	fmt.Fprintln(out, "Available flood presets:")
	fmt.Fprintln(out)

	for _, name := range flood.ListPresets() {
		cfg, _ := flood.GetPreset(name)
		fmt.Fprintf(out, "  %-12s %s (workers=%d, requests=%d, commands=%d)\n",
			name, cfg.Description, cfg.Workers, cfg.Requests, cfg.CommandsPerRequest)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Example: litekv-cli --flood --preset quick")
}
