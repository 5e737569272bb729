// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shaderbuilder

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Builder accumulates the body of one shader stage.
//
// Statements are appended one per line at the current scope depth. Globals
// declared through DeclareGlobal are module-scope private variables, visible
// to every statement of the program.
type Builder struct {
	stage   gputypes.ShaderStage
	globals []Global
	code    strings.Builder
	depth   int
}

// Global is a module-scope variable declared by a Builder.
type Global struct {
	Name string
	Type Type
}

// NewBuilder creates an empty builder for the given stage.
func NewBuilder(stage gputypes.ShaderStage) *Builder {
	return &Builder{stage: stage, depth: 1}
}

// Stage returns the shader stage the builder emits code for.
func (b *Builder) Stage() gputypes.ShaderStage {
	return b.stage
}

// DeclareGlobal declares a private module-scope variable and returns its
// name. Declaring the same name twice with the same type is a no-op.
// Redeclaring it with a different type panics: two emitters disagree about
// a shared symbol and the program cannot be valid.
func (b *Builder) DeclareGlobal(name string, t Type) string {
	for _, g := range b.globals {
		if g.Name != name {
			continue
		}
		if g.Type != t {
			panic(fmt.Sprintf("shaderbuilder: global %q redeclared as %s (was %s)", name, t, g.Type))
		}
		return name
	}
	b.globals = append(b.globals, Global{Name: name, Type: t})
	return name
}

// Globals returns the declared globals in declaration order.
func (b *Builder) Globals() []Global {
	return b.globals
}

// HasGlobal reports whether name has been declared.
func (b *Builder) HasGlobal(name string) bool {
	for _, g := range b.globals {
		if g.Name == name {
			return true
		}
	}
	return false
}

// Append appends one statement.
func (b *Builder) Append(stmt string) {
	for i := 0; i < b.depth; i++ {
		b.code.WriteByte('\t')
	}
	b.code.WriteString(stmt)
	b.code.WriteByte('\n')
}

// Appendf appends one formatted statement.
func (b *Builder) Appendf(format string, args ...any) {
	b.Append(fmt.Sprintf(format, args...))
}

// OpenScope starts a nested block. Names declared inside it do not leak
// into the enclosing scope, which lets one helper be emitted more than once.
func (b *Builder) OpenScope() {
	b.Append("{")
	b.depth++
}

// CloseScope ends the innermost block opened by OpenScope.
func (b *Builder) CloseScope() {
	if b.depth <= 1 {
		panic("shaderbuilder: CloseScope without OpenScope")
	}
	b.depth--
	b.Append("}")
}

// Code returns the statements appended so far.
func (b *Builder) Code() string {
	return b.code.String()
}

// Declarations renders the module-scope declarations of all globals.
func (b *Builder) Declarations() string {
	var sb strings.Builder
	for _, g := range b.globals {
		fmt.Fprintf(&sb, "var<private> %s: %s;\n", g.Name, g.Type)
	}
	return sb.String()
}
