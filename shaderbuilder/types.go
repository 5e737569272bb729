// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shaderbuilder accumulates WGSL shader text for generated programs.
//
// A Builder collects the statements of one shader stage together with the
// module-scope globals those statements rely on. A VaryingHandler allocates
// the inter-stage values a vertex stage writes and a fragment stage reads.
// Neither performs any validation of the emitted text; the result is meant to
// be compiled by naga (see ccpr.Program.SPIRV).
package shaderbuilder

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Type is a numeric WGSL type used for globals and varyings.
type Type uint8

// Supported types. All are 32-bit float based.
const (
	Float Type = iota
	Float2
	Float3
	Float4
	Float3x2
	Float3x3
)

// String returns the WGSL spelling of the type.
func (t Type) String() string {
	switch t {
	case Float:
		return "f32"
	case Float2:
		return "vec2<f32>"
	case Float3:
		return "vec3<f32>"
	case Float4:
		return "vec4<f32>"
	case Float3x2:
		return "mat3x2<f32>"
	case Float3x3:
		return "mat3x3<f32>"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Components returns the number of scalar components in the type.
func (t Type) Components() int {
	switch t {
	case Float:
		return 1
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4:
		return 4
	case Float3x2:
		return 6
	case Float3x3:
		return 9
	default:
		return 0
	}
}

// Size returns the byte size of the type when tightly packed.
func (t Type) Size() uint64 {
	return uint64(t.Components()) * 4
}

// IsMatrix reports whether t is a matrix type.
func (t Type) IsMatrix() bool {
	return t == Float3x2 || t == Float3x3
}

// VertexFormat returns the vertex attribute format for scalar and vector
// types. Matrices cannot be passed as a single attribute and report false.
func (t Type) VertexFormat() (gputypes.VertexFormat, bool) {
	switch t {
	case Float:
		return gputypes.VertexFormatFloat32, true
	case Float2:
		return gputypes.VertexFormatFloat32x2, true
	case Float3:
		return gputypes.VertexFormatFloat32x3, true
	case Float4:
		return gputypes.VertexFormatFloat32x4, true
	default:
		var none gputypes.VertexFormat
		return none, false
	}
}
