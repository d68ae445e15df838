// Package highlight splits Python source into per-line token spans for the
// listing and the fold viewer.
package highlight

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
	python "github.com/smacker/go-tree-sitter/python"
)

type TokenCategory int

const (
	TokenPlain TokenCategory = iota
	TokenKeyword
	TokenType
	TokenFunction
	TokenString
	TokenNumber
	TokenComment
	TokenOperator
	TokenError
)

// Span covers runes [Start, End) of one line.
type Span struct {
	Start int
	End   int
	Cat   TokenCategory
}

type Engine string

const (
	EngineTreeSitter Engine = "treesitter"
	EngineChroma     Engine = "chroma"
)

func ParseEngine(v string) (Engine, error) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "", string(EngineTreeSitter):
		return EngineTreeSitter, nil
	case string(EngineChroma):
		return EngineChroma, nil
	default:
		return "", fmt.Errorf("invalid highlight engine %q (use treesitter or chroma)", v)
	}
}

type cacheKey struct {
	Engine Engine
	Sum    uint64
	Lines  int
}

type cacheEntry struct {
	key   cacheKey
	spans [][]Span
}

type spanLRU struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[cacheKey]*list.Element
}

func newSpanLRU(capacity int) *spanLRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &spanLRU{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[cacheKey]*list.Element, capacity),
	}
}

func (c *spanLRU) Get(key cacheKey) ([][]Span, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(elem)
	return elem.Value.(cacheEntry).spans, true
}

func (c *spanLRU) Set(key cacheKey, spans [][]Span) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value = cacheEntry{key: key, spans: spans}
		c.ll.MoveToFront(elem)
		return
	}

	c.items[key] = c.ll.PushFront(cacheEntry{key: key, spans: spans})
	if c.ll.Len() <= c.capacity {
		return
	}

	back := c.ll.Back()
	if back == nil {
		return
	}
	delete(c.items, back.Value.(cacheEntry).key)
	c.ll.Remove(back)
}

type Config struct {
	CacheSize int
	Engine    Engine
}

// Highlighter is safe for concurrent use. Tree-sitter parses are serialized
// on a single parser.
type Highlighter struct {
	cache  *spanLRU
	engine Engine

	parseMu  sync.Mutex
	parser   *sitter.Parser
	language *sitter.Language
}

func New(cfg Config) *Highlighter {
	engine := cfg.Engine
	if engine == "" {
		engine = EngineTreeSitter
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 16
	}

	language := python.GetLanguage()
	parser := sitter.NewParser()
	parser.SetLanguage(language)

	return &Highlighter{
		cache:    newSpanLRU(cacheSize),
		engine:   engine,
		parser:   parser,
		language: language,
	}
}

func (h *Highlighter) Engine() Engine {
	return h.engine
}

// Lines returns one normalized span list per input line. Spans of a line
// cover it without gaps; an empty line has no spans.
func (h *Highlighter) Lines(lines []string) [][]Span {
	if len(lines) == 0 {
		return nil
	}

	source := strings.Join(lines, "\n")
	key := cacheKey{Engine: h.engine, Sum: xxhash.Sum64String(source), Lines: len(lines)}
	if spans, ok := h.cache.Get(key); ok {
		return spans
	}

	var (
		raw [][]rawSpan
		ok  bool
	)
	switch h.engine {
	case EngineChroma:
		raw, ok = chromaSpans(lines, source)
	default:
		raw, ok = h.treeSitterSpans(lines, []byte(source))
		if !ok {
			raw, ok = chromaSpans(lines, source)
		}
	}

	out := make([][]Span, len(lines))
	for i, line := range lines {
		if ok {
			out[i] = lineSpans(line, raw[i])
		} else {
			out[i] = lineSpans(line, nil)
		}
	}

	h.cache.Set(key, out)
	return out
}

func (h *Highlighter) treeSitterSpans(lines []string, source []byte) ([][]rawSpan, bool) {
	h.parseMu.Lock()
	defer h.parseMu.Unlock()

	tree, err := h.parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, false
	}

	starts := lineStarts(lines)
	raw := make([][]rawSpan, len(lines))
	collectLeafSpans(root, source, lines, starts, "", "", raw)
	return raw, true
}

func lineStarts(lines []string) []int {
	starts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len(line) + 1
	}
	return starts
}
