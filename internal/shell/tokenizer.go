package shell

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnterminatedQuote は閉じられていない引用符を表す
var ErrUnterminatedQuote = errors.New("unterminated quote")

// state はトークナイザの状態
type state int

const (
	stateUnquoted state = iota
	stateSingleQuote
	stateDoubleQuote
)

func (s state) quote() rune {
	switch s {
	case stateSingleQuote:
		return '\''
	case stateDoubleQuote:
		return '"'
	default:
		return 0
	}
}

// Tokenize は入力行をトークン列に分割する
func Tokenize(line string) ([]string, error) {
	if !strings.ContainsAny(line, `'"`) {
		return strings.Fields(line), nil
	}

	runes := []rune(line)
	tokens := make([]string, 0, 4)
	st := stateUnquoted
	var (
		run     strings.Builder // 引用符外の未処理テキスト
		quoted  strings.Builder // 引用符内のテキスト
		merge   bool
		openPos int
	)

	for i, r := range runes {
		switch st {
		case stateUnquoted:
			if r != '\'' && r != '"' {
				run.WriteRune(r)
				continue
			}
			tokens = append(tokens, strings.Fields(run.String())...)
			run.Reset()

			merge = i > 0 && !unicode.IsSpace(runes[i-1]) && len(tokens) > 0
			openPos = i
			quoted.Reset()
			if r == '\'' {
				st = stateSingleQuote
			} else {
				st = stateDoubleQuote
			}
		default:
			if r != st.quote() {
				quoted.WriteRune(r)
				continue
			}
			if merge {
				tokens[len(tokens)-1] += quoted.String()
			} else {
				tokens = append(tokens, quoted.String())
			}
			st = stateUnquoted
		}
	}

	if st != stateUnquoted {
		return nil, fmt.Errorf("%w: %c at column %d", ErrUnterminatedQuote, st.quote(), openPos+1)
	}
	return append(tokens, strings.Fields(run.String())...), nil
}
