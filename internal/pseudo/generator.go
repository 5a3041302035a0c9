// Package pseudo produces synthetic commands for load testing.
package pseudo

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"litekv-cli/internal/resp"
)

// Family はコマンドの系統
type Family int

const (
	FamilyInt Family = iota
	FamilyString
	FamilyList
	FamilyHash
)

func (f Family) String() string {
	switch f {
	case FamilyInt:
		return "int"
	case FamilyString:
		return "str"
	case FamilyList:
		return "list"
	case FamilyHash:
		return "hash"
	default:
		return "unknown"
	}
}

var families = []Family{FamilyInt, FamilyString, FamilyList, FamilyHash}

var (
	scalarOps = []string{"get", "set"}
	listOps   = []string{"lpush", "rpush", "lpop", "rpop"}
	hashOps   = []string{"hset", "hget", "hdel", "hexists", "hgetall", "hkeys", "hvals", "hlen"}
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// 生成範囲
const (
	minKeyLen   = 1
	maxKeyLen   = 8
	minValueLen = 3
	maxValueLen = 15
	maxIntValue = 100000
	minElements = 1
	maxElements = 5
)

// Options は生成内容を絞る設定
type Options struct {
	KeyspaceLen int      // キー接尾辞の固定長（0で1〜8のランダム）
	Commands    []string // 生成するコマンド名（空で全種）
}

// Validate は設定を検証する
func (o Options) Validate() error {
	if o.KeyspaceLen < 0 {
		return fmt.Errorf("keyspace length must be non-negative, got %d", o.KeyspaceLen)
	}
	for _, name := range o.Commands {
		if _, ok := familyOf[strings.ToLower(name)]; !ok {
			return fmt.Errorf("unsupported command %q (supported: %s)", name, strings.Join(SupportedCommands(), ","))
		}
	}
	return nil
}

// HasWrite は Commands に書き込み系が含まれるかを返す
// Commands が空なら常に true
func (o Options) HasWrite() bool {
	if len(o.Commands) == 0 {
		return true
	}
	for _, name := range o.Commands {
		if writeCommands[strings.ToLower(name)] {
			return true
		}
	}
	return false
}

// ParseCommands はカンマ区切りのコマンド名を分割する。空要素は捨てる
func ParseCommands(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SupportedCommands は生成できるコマンド名を返す
func SupportedCommands() []string {
	out := make([]string, 0, len(familyOf))
	out = append(out, scalarOps...)
	out = append(out, listOps...)
	return append(out, hashOps...)
}

// familyOf はコマンド名から系統を引く。get/set は int と str の両方に属する
var familyOf = func() map[string][]Family {
	m := make(map[string][]Family)
	for _, op := range scalarOps {
		m[op] = []Family{FamilyInt, FamilyString}
	}
	for _, op := range listOps {
		m[op] = []Family{FamilyList}
	}
	for _, op := range hashOps {
		m[op] = []Family{FamilyHash}
	}
	return m
}()

var writeCommands = map[string]bool{"set": true, "rpush": true, "hset": true}

// Generator は疑似コマンドを生成する
// 乱数源を内部に持つため goroutine 間で共有しないこと
type Generator struct {
	rng    *rand.Rand
	keyLen int
	ops    []string // 絞り込み後のコマンド。空なら全系統
	writes []string // ops のうち書き込み系
}

// New はシードを指定して Generator を作成する
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewWithOptions は生成内容を絞った Generator を作成する
func NewWithOptions(seed int64, opts Options) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g := New(seed)
	g.keyLen = opts.KeyspaceLen
	seen := make(map[string]bool)
	for _, name := range opts.Commands {
		op := strings.ToLower(name)
		if seen[op] {
			continue
		}
		seen[op] = true
		g.ops = append(g.ops, op)
		if writeCommands[op] {
			g.writes = append(g.writes, op)
		}
	}
	return g, nil
}

// Generate は n 個のコマンドを生成する
// allSet が true の場合は書き込み系のみを生成する
func (g *Generator) Generate(n int, allSet bool) []resp.Command {
	cmds := make([]resp.Command, 0, n)
	for range n {
		cmds = append(cmds, g.Next(allSet))
	}
	return cmds
}

// Next は 1 個のコマンドを生成する
// コマンドが絞り込まれている場合、allSet はその中の書き込み系に限定する
func (g *Generator) Next(allSet bool) resp.Command {
	if len(g.ops) > 0 {
		ops := g.ops
		if allSet && len(g.writes) > 0 {
			ops = g.writes
		}
		op := g.pick(ops)
		fams := familyOf[op]
		return g.build(fams[g.rng.Intn(len(fams))], op)
	}

	family := families[g.rng.Intn(len(families))]
	var op string
	switch family {
	case FamilyInt, FamilyString:
		op = "set"
		if !allSet {
			op = g.pick(scalarOps)
		}
	case FamilyList:
		op = "rpush"
		if !allSet {
			op = g.pick(listOps)
		}
	default:
		op = "hset"
		if !allSet {
			op = g.pick(hashOps)
		}
	}
	return g.build(family, op)
}

func (g *Generator) build(family Family, op string) resp.Command {
	key := family.String() + ":" + g.key()

	switch family {
	case FamilyInt:
		if op == "set" {
			return resp.NewKeyCommand(op, key, strconv.Itoa(g.rng.Intn(maxIntValue)))
		}
		return resp.NewKeyCommand(op, key)
	case FamilyString:
		if op == "set" {
			return resp.NewKeyCommand(op, key, g.randomString(minValueLen, maxValueLen))
		}
		return resp.NewKeyCommand(op, key)
	case FamilyList:
		return g.listCommand(op, key)
	default:
		return g.hashCommand(op, key)
	}
}

func (g *Generator) key() string {
	if g.keyLen > 0 {
		return g.randomString(g.keyLen, g.keyLen)
	}
	return g.randomString(minKeyLen, maxKeyLen)
}

func (g *Generator) listCommand(op, key string) resp.Command {
	switch op {
	case "lpush", "rpush":
		n := g.between(minElements, maxElements)
		vals := make([]string, 0, n)
		for range n {
			vals = append(vals, strconv.Itoa(g.rng.Intn(maxIntValue)))
		}
		return resp.NewKeyCommand(op, key, vals...)
	default:
		return resp.NewKeyCommand(op, key)
	}
}

func (g *Generator) hashCommand(op, key string) resp.Command {
	switch op {
	case "hset":
		n := g.between(minElements, maxElements)
		kvs := make([]string, 0, n*2)
		for range n {
			kvs = append(kvs, g.field(), g.randomString(minValueLen, maxValueLen))
		}
		return resp.NewKeyCommand(op, key, kvs...)
	case "hget", "hexists":
		return resp.NewKeyCommand(op, key, g.field())
	case "hdel":
		n := g.between(minElements, maxElements)
		fields := make([]string, 0, n)
		for range n {
			fields = append(fields, g.field())
		}
		return resp.NewKeyCommand(op, key, fields...)
	default:
		// hgetall, hkeys, hvals, hlen
		return resp.NewKeyCommand(op, key)
	}
}

func (g *Generator) field() string {
	return "f" + g.randomString(minKeyLen, maxKeyLen)
}

func (g *Generator) pick(ops []string) string {
	return ops[g.rng.Intn(len(ops))]
}

// between は [lo, hi] の一様乱数を返す
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) randomString(minLen, maxLen int) string {
	b := make([]byte, g.between(minLen, maxLen))
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}
