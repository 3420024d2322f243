// Package shader provides compiled shader bytecode to backends.
//
// Sources are WGSL files read from an fs.FS and compiled to SPIR-V with
// naga. Compilation failures surface as *CompileError and are cached, so
// a broken source is reported once per lookup and never recompiled.
package shader

import (
	"errors"
	"fmt"
)

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	// Vertex is the vertex stage.
	Vertex Stage = iota
	// Fragment is the fragment (pixel) stage.
	Fragment
)

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Bytecode is a compiled shader entry point.
type Bytecode struct {
	Stage      Stage
	EntryPoint string
	// Label names the source the bytecode came from.
	Label string
	// Source is the WGSL text, for backends that consume WGSL directly.
	Source string
	// SPIRV holds little-endian SPIR-V words.
	SPIRV []uint32
}

// Provider supplies compiled bytecode for a source identifier and entry point.
type Provider interface {
	Compile(source, entry string, stage Stage) (*Bytecode, error)
}

// ErrCompile is matched by every *CompileError.
var ErrCompile = errors.New("shader: compile failed")

// CompileError reports a shader that could not be compiled.
type CompileError struct {
	Source string
	Entry  string
	Stage  Stage
	// Msg is the compiler diagnostic.
	Msg string
	Err error
}

func (e *CompileError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("shader: %s (%s %s): %s", e.Source, e.Stage, e.Entry, msg)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is matches ErrCompile.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }
