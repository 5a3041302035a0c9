package resp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const nilBulkLine = "$-1"

// Decode は受信バッファを Reply に変換する
// 失敗しても panic もエラーも返さず UnrecognizedReply になる
func Decode(raw []byte) Reply {
	if len(raw) == 0 {
		return makeUnrecognized(raw, ErrEmpty)
	}
	if !utf8.Valid(raw) {
		return makeUnrecognized(raw, ErrInvalidUTF8)
	}

	lines := splitLines(string(raw))
	first := lines[0]

	switch raw[0] {
	case '+':
		return MakeStatusReply(first[1:])
	case '-':
		return MakeErrReply(first[1:])
	case ':':
		val, err := strconv.ParseInt(first[1:], 10, 64)
		if err != nil {
			return makeUnrecognized(raw, fmt.Errorf("%w: integer %q", ErrMalformed, first[1:]))
		}
		return MakeIntReply(val)
	case '$':
		return decodeBulk(raw, lines)
	case '*':
		return decodeArray(raw, lines)
	default:
		return makeUnrecognized(raw, fmt.Errorf("%w: %q", ErrUnknownPrefix, raw[0]))
	}
}

// splitLines は CRLF で分割する
// 末尾が CRLF の場合に生じる空要素は捨てる
func splitLines(s string) []string {
	lines := strings.Split(s, CRLF)
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// parseLength は $n や *n の数値部を読む
func parseLength(line string) (int, error) {
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: length %q", ErrMalformed, line)
	}
	return n, nil
}

func decodeBulk(raw []byte, lines []string) Reply {
	if lines[0] == nilBulkLine {
		return MakeNullBulkReply()
	}
	n, err := parseLength(lines[0])
	if err != nil {
		return makeUnrecognized(raw, err)
	}
	if n < 0 {
		return makeUnrecognized(raw, fmt.Errorf("%w: negative length %d", ErrMalformed, n))
	}
	if len(lines) < 2 {
		return makeUnrecognized(raw, fmt.Errorf("%w: missing bulk payload", ErrTruncated))
	}
	return MakeBulkReply([]byte(lines[1]))
}

// decodeArray は分割済みの行を添字で走査する
// 宣言数に満たないまま入力が尽きた場合は途中までの配列を返す
func decodeArray(raw []byte, lines []string) Reply {
	count, err := parseLength(lines[0])
	if err != nil {
		return makeUnrecognized(raw, err)
	}
	if count <= 0 {
		return &EmptyArrayReply{}
	}

	elems := make([]*BulkReply, 0, count)
	i := 1
	for len(elems) < count && i < len(lines) {
		line := lines[i]
		if line == nilBulkLine {
			elems = append(elems, MakeNullBulkReply())
			i++
			continue
		}
		if line == "" || line[0] != '$' {
			return makeUnrecognized(raw, fmt.Errorf("%w: unexpected array element %q", ErrMalformed, line))
		}
		n, err := parseLength(line)
		if err != nil {
			return makeUnrecognized(raw, err)
		}
		if n < 0 {
			return makeUnrecognized(raw, fmt.Errorf("%w: negative element length %d", ErrMalformed, n))
		}
		if i+1 >= len(lines) {
			break
		}
		elems = append(elems, MakeBulkReply([]byte(lines[i+1])))
		i += 2
	}
	return MakeArrayReply(elems)
}
