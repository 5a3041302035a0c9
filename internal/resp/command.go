package resp

import "strconv"

// CRLF は行区切り
const CRLF = "\r\n"

// Command はサーバーに送るコマンド
// HasKey が false の場合 Args は空でなければならない
type Command struct {
	Name   string
	Key    string
	Args   []string
	HasKey bool
}

// NewCommand はキーなしのコマンドを作成する
func NewCommand(name string) Command {
	return Command{Name: name}
}

// NewKeyCommand はキー付きのコマンドを作成する
func NewKeyCommand(name, key string, args ...string) Command {
	return Command{
		Name:   name,
		Key:    key,
		Args:   args,
		HasKey: true,
	}
}

// FromArgs はトークン列をコマンドに変換する
// 1 トークンならキーなし、2 トークン以上なら 2 番目をキーとして扱う
func FromArgs(args []string) Command {
	switch len(args) {
	case 0:
		return Command{}
	case 1:
		return NewCommand(args[0])
	default:
		return NewKeyCommand(args[0], args[1], args[2:]...)
	}
}

// Len はエンコード後の配列要素数を返す
func (c Command) Len() int {
	if !c.HasKey {
		return 1
	}
	return len(c.Args) + 2
}

// Strings はコマンドを文字列ベクタとして返す
func (c Command) Strings() []string {
	out := make([]string, 0, c.Len())
	out = append(out, c.Name)
	if !c.HasKey {
		return out
	}
	out = append(out, c.Key)
	return append(out, c.Args...)
}

// Encode はコマンドをワイヤ形式にエンコードする
func Encode(c Command) []byte {
	return AppendCommand(make([]byte, 0, encodedSize(c)), c)
}

// AppendCommand はエンコードしたコマンドを dst に追記する
func AppendCommand(dst []byte, c Command) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(c.Len()), 10)
	dst = append(dst, CRLF...)
	dst = appendBulk(dst, c.Name)
	if !c.HasKey {
		return dst
	}
	dst = appendBulk(dst, c.Key)
	for _, arg := range c.Args {
		dst = appendBulk(dst, arg)
	}
	return dst
}

func appendBulk(dst []byte, s string) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, CRLF...)
	dst = append(dst, s...)
	return append(dst, CRLF...)
}

// encodedSize はバッファ確保用のおおよそのサイズ
func encodedSize(c Command) int {
	size := 16 + len(c.Name)
	if c.HasKey {
		size += 16 + len(c.Key)
		for _, arg := range c.Args {
			size += 16 + len(arg)
		}
	}
	return size
}
