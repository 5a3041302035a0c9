package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"litekv-cli/internal/logger"
	"litekv-cli/internal/resp"
	"litekv-cli/internal/shell"
)

const component = "session"

// DefaultReadBufferSize は 1 回の応答読み取りの上限
const DefaultReadBufferSize = 8192

// ErrConnectionClosed はサーバーが接続を閉じたことを表す
var ErrConnectionClosed = errors.New("connection closed by server")

// Options はセッションの設定
type Options struct {
	Addr           string        // プロンプトに表示するアドレス
	Raw            bool          // 生の応答も表示する
	Debug          bool          // 送信フレームをログに出す
	ReadBufferSize int           // 0 なら DefaultReadBufferSize
	ReadTimeout    time.Duration // 0 で無制限
}

// Session は対話セッション
type Session struct {
	conn net.Conn
	in   *bufio.Scanner
	out  io.Writer
	opts Options
	buf  []byte
}

// New は新しいSessionを作成する
func New(conn net.Conn, in io.Reader, out io.Writer, opts Options) *Session {
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}
	if opts.Addr == "" && conn != nil {
		opts.Addr = conn.RemoteAddr().String()
	}
	return &Session{
		conn: conn,
		in:   bufio.NewScanner(in),
		out:  out,
		opts: opts,
		buf:  make([]byte, opts.ReadBufferSize),
	}
}

// Prompt はプロンプト文字列を返す
func (s *Session) Prompt() string {
	return s.opts.Addr + "> "
}

// Run は入力が尽きるか q が入力されるまでループする
// 入力の EOF は正常終了として nil を返す
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, s.Prompt())
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			if err := s.in.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}

		line := s.in.Text()
		if line == "q" {
			return nil
		}

		reply, err := s.Execute(line)
		if err != nil {
			var inputErr *InputError
			if errors.As(err, &inputErr) {
				fmt.Fprintf(s.out, "(error) %v\n", inputErr.Err)
				continue
			}
			return err
		}
		fmt.Fprintln(s.out, resp.Format(reply))
	}
}

// InputError は入力行の問題を表す。セッションは継続する
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ErrEmptyCommand は空行を表す
var ErrEmptyCommand = errors.New("empty command")

// Execute は 1 行を送信し、応答をデコードして返す
// 入力の問題は *InputError、それ以外は通信エラー
func (s *Session) Execute(line string) (resp.Reply, error) {
	tokens, err := shell.Tokenize(line)
	if err != nil {
		return nil, &InputError{Err: err}
	}
	if len(tokens) == 0 {
		return nil, &InputError{Err: ErrEmptyCommand}
	}

	cmd := resp.FromArgs(tokens)
	frame := resp.Encode(cmd)
	if s.opts.Debug && logger.Default.Enabled(logger.LevelDebug) {
		logger.Debug(component, "send %q (%d bytes): %s", cmd.Strings(), len(frame), strconv.Quote(string(frame)))
	}

	if _, err := s.conn.Write(frame); err != nil {
		return nil, fmt.Errorf("send command: %w", err)
	}

	if s.opts.ReadTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}
	n, err := s.conn.Read(s.buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrConnectionClosed
		}
		return nil, fmt.Errorf("read reply: %w", err)
	}

	raw := bytes.Clone(s.buf[:n])
	if s.opts.Raw {
		fmt.Fprintf(s.out, "Server response = %s\n", strconv.Quote(string(raw)))
	}
	return resp.Decode(raw), nil
}
