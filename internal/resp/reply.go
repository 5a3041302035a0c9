package resp

import (
	"errors"
	"strconv"
)

// Reply はサーバーからの応答を表す
type Reply interface {
	ToBytes() []byte
}

// デコード失敗の原因
var (
	ErrEmpty         = errors.New("empty reply")
	ErrUnknownPrefix = errors.New("unknown reply prefix")
	ErrMalformed     = errors.New("malformed reply")
	ErrTruncated     = errors.New("truncated reply")
	ErrInvalidUTF8   = errors.New("reply is not valid utf-8")
)

/* ---- Status Reply ---- */

// StatusReply は + で始まる一行の応答
type StatusReply struct {
	Status string
}

func MakeStatusReply(status string) *StatusReply {
	return &StatusReply{Status: status}
}

func (r *StatusReply) ToBytes() []byte {
	return []byte("+" + r.Status + CRLF)
}

/* ---- Error Reply ---- */

// ErrReply は - で始まるエラー応答
type ErrReply struct {
	Status string
}

func MakeErrReply(status string) *ErrReply {
	return &ErrReply{Status: status}
}

func (r *ErrReply) ToBytes() []byte {
	return []byte("-" + r.Status + CRLF)
}

func (r *ErrReply) Error() string {
	return r.Status
}

/* ---- Int Reply ---- */

// IntReply は : で始まる整数応答
type IntReply struct {
	Code int64
}

func MakeIntReply(code int64) *IntReply {
	return &IntReply{Code: code}
}

func (r *IntReply) ToBytes() []byte {
	return []byte(":" + strconv.FormatInt(r.Code, 10) + CRLF)
}

/* ---- Bulk Reply ---- */

// BulkReply は単一のバルク文字列、Nil なら値なし
type BulkReply struct {
	Arg []byte
	Nil bool
}

func MakeBulkReply(arg []byte) *BulkReply {
	return &BulkReply{Arg: arg}
}

func MakeNullBulkReply() *BulkReply {
	return &BulkReply{Nil: true}
}

func (r *BulkReply) ToBytes() []byte {
	if r.Nil {
		return []byte("$-1" + CRLF)
	}
	return []byte("$" + strconv.Itoa(len(r.Arg)) + CRLF + string(r.Arg) + CRLF)
}

/* ---- Array Reply ---- */

// ArrayReply はバルク文字列または nil 要素の配列
type ArrayReply struct {
	Elems []*BulkReply
}

func MakeArrayReply(elems []*BulkReply) *ArrayReply {
	return &ArrayReply{Elems: elems}
}

func (r *ArrayReply) ToBytes() []byte {
	res := "*" + strconv.Itoa(len(r.Elems)) + CRLF
	for _, elem := range r.Elems {
		res += string(elem.ToBytes())
	}
	return []byte(res)
}

/* ---- Empty Array Reply ---- */

// EmptyArrayReply は要素数 0 の配列
type EmptyArrayReply struct{}

func (r *EmptyArrayReply) ToBytes() []byte {
	return []byte("*0" + CRLF)
}

/* ---- Unrecognized Reply ---- */

// UnrecognizedReply は解釈できなかった応答
type UnrecognizedReply struct {
	Raw    []byte
	Reason error
}

func makeUnrecognized(raw []byte, reason error) *UnrecognizedReply {
	return &UnrecognizedReply{Raw: raw, Reason: reason}
}

func (r *UnrecognizedReply) ToBytes() []byte {
	return r.Raw
}
