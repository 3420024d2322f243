package shader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"

	"github.com/gogpu/naga"

	"github.com/gogpu/gpures"
)

// CompileFunc translates a WGSL module into SPIR-V bytes.
type CompileFunc func(wgsl string) ([]byte, error)

// NagaOption configures a NagaProvider.
type NagaOption func(*NagaProvider)

// WithCompiler replaces naga.Compile.
func WithCompiler(fn CompileFunc) NagaOption {
	return func(p *NagaProvider) {
		p.compile = fn
	}
}

// WithLogger sets a logger for this provider instead of the package logger.
func WithLogger(l *slog.Logger) NagaOption {
	return func(p *NagaProvider) {
		p.logger = l
	}
}

type cacheKey struct {
	source string
	entry  string
	stage  Stage
}

type cacheEntry struct {
	bc  *Bytecode
	err error
}

// NagaProvider compiles WGSL files from a file system with naga.
//
// A NagaProvider is not safe for concurrent use.
type NagaProvider struct {
	fsys    fs.FS
	compile CompileFunc
	logger  *slog.Logger

	modules map[string]cacheEntry // SPIR-V per source file
	entries map[cacheKey]cacheEntry
}

var _ Provider = (*NagaProvider)(nil)

// NewNagaProvider returns a provider reading WGSL sources from fsys.
func NewNagaProvider(fsys fs.FS, opts ...NagaOption) *NagaProvider {
	p := &NagaProvider{
		fsys:    fsys,
		compile: naga.Compile,
		modules: make(map[string]cacheEntry),
		entries: make(map[cacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *NagaProvider) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return gpures.Logger()
}

// Compile returns the bytecode of entry in the WGSL file source.
// The entry point must be declared with the attribute matching stage.
func (p *NagaProvider) Compile(source, entry string, stage Stage) (*Bytecode, error) {
	key := cacheKey{source, entry, stage}
	if c, ok := p.entries[key]; ok {
		return c.bc, c.err
	}
	bc, err := p.build(key)
	p.entries[key] = cacheEntry{bc, err}
	return bc, err
}

func (p *NagaProvider) build(key cacheKey) (*Bytecode, error) {
	fail := func(msg string, err error) error {
		p.log().Warn("shader: compile failed", "source", key.source, "entry", key.entry, "err", msg)
		return &CompileError{Source: key.source, Entry: key.entry, Stage: key.stage, Msg: msg, Err: err}
	}

	data, err := fs.ReadFile(p.fsys, key.source)
	if err != nil {
		return nil, fail(err.Error(), err)
	}
	src := string(data)

	if !hasEntryPoint(src, key.entry, key.stage) {
		return nil, fail(fmt.Sprintf("no @%s entry point %q", key.stage, key.entry), nil)
	}

	mod, ok := p.modules[key.source]
	if !ok {
		spirv, cerr := p.compile(src)
		if cerr == nil && len(spirv)%4 != 0 {
			cerr = fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirv))
		}
		mod = cacheEntry{err: cerr}
		if cerr == nil {
			mod.bc = &Bytecode{Source: src, SPIRV: Words(spirv)}
		}
		p.modules[key.source] = mod
	}
	if mod.err != nil {
		return nil, fail(mod.err.Error(), mod.err)
	}

	p.log().Debug("shader: compiled", "source", key.source, "entry", key.entry, "words", len(mod.bc.SPIRV))
	return &Bytecode{
		Stage:      key.stage,
		EntryPoint: key.entry,
		Label:      key.source,
		Source:     src,
		SPIRV:      mod.bc.SPIRV,
	}, nil
}

var entryPattern = regexp.MustCompile(`@(vertex|fragment|compute)\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func hasEntryPoint(src, entry string, stage Stage) bool {
	for _, m := range entryPattern.FindAllStringSubmatch(src, -1) {
		if m[1] == stage.String() && m[2] == entry {
			return true
		}
	}
	return false
}

// Words converts little-endian SPIR-V bytes to words.
func Words(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words
}
