// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"fmt"

	"github.com/gogpu/ccpr/shaderbuilder"
)

// CurveKind identifies the curve type a CurveShader renders.
type CurveKind uint8

const (
	// CurveConic is a rational quadratic Bézier with weight w.
	CurveConic CurveKind = iota
)

// String returns the curve kind name.
func (k CurveKind) String() string {
	switch k {
	case CurveConic:
		return "conic"
	default:
		return fmt.Sprintf("CurveKind(%d)", uint8(k))
	}
}

// CurveShader emits the three stages of a curve coverage program.
//
// Stages must be emitted in order: EmitSetup produces the GenContext that
// EmitVaryings and then EmitFragmentCode consume. Each call only appends to
// the builders it is given.
type CurveShader interface {
	// Kind reports the curve type.
	Kind() CurveKind

	// EmitSetup appends per-vertex setup code to s and returns the context
	// that carries the declared symbols to the later stages.
	EmitSetup(s *shaderbuilder.Builder, p SetupParams) *GenContext

	// EmitVaryings allocates the program's varyings and appends the vertex
	// code that writes them.
	EmitVaryings(ctx *GenContext, vh *shaderbuilder.VaryingHandler, code *shaderbuilder.Builder, p VaryingParams) error

	// EmitFragmentCode appends fragment code that assigns the final coverage
	// to the f32 variable named outputCoverage.
	EmitFragmentCode(ctx *GenContext, f *shaderbuilder.Builder, outputCoverage string) error
}

// SetupParams names the ambient symbols the setup stage reads.
type SetupParams struct {
	// Pts names an array<vec2<f32>, 4>: three control points, then the
	// weight in the x component of the fourth.
	Pts string

	// Wind names the f32 winding sign of the curve.
	Wind string

	// Hull requests the 4-point hull array.
	Hull bool
}

// VaryingParams names the expressions the varying stage reads.
type VaryingParams struct {
	// Position is the vec2<f32> device-space vertex position.
	Position string

	// Coverage is the f32 input coverage. For curves it is the winding sign.
	Coverage string

	// CornerCoverage is an optional vec2<f32> corner attenuation. Empty
	// disables corner coverage.
	CornerCoverage string
}

// GenContext carries the symbols declared by one setup stage to the
// varying and fragment stages of the same program.
//
// A GenContext is produced by EmitSetup and is owned by a single program
// generation; it is not safe for concurrent use.
type GenContext struct {
	kind CurveKind

	klmMatrix    string
	controlPoint string
	hull4        string

	klmWind    *shaderbuilder.Varying
	gradCorner *shaderbuilder.Varying
}

// Kind returns the curve kind of the shader that created the context.
func (c *GenContext) Kind() CurveKind { return c.kind }

// KLMMatrix returns the name of the global holding the KLM matrix.
func (c *GenContext) KLMMatrix() string { return c.klmMatrix }

// ControlPoint returns the name of the global holding the KLM anchor.
func (c *GenContext) ControlPoint() string { return c.controlPoint }

// Hull4 returns the name of the 4-point hull array, or "" if setup was not
// asked for one.
func (c *GenContext) Hull4() string { return c.hull4 }

// KLMWind returns the (k, l, m, wind) varying, or nil before EmitVaryings.
func (c *GenContext) KLMWind() *shaderbuilder.Varying { return c.klmWind }

// GradCorner returns the gradient varying, or nil before EmitVaryings. It
// is 4 wide when corner coverage was requested.
func (c *GenContext) GradCorner() *shaderbuilder.Varying { return c.gradCorner }

// HasCornerCoverage reports whether the varyings carry corner coverage.
func (c *GenContext) HasCornerCoverage() bool {
	return c.gradCorner != nil && c.gradCorner.Type() == shaderbuilder.Float4
}

// checkSetup verifies ctx came from the setup stage of a kind shader.
func (c *GenContext) checkSetup(kind CurveKind) error {
	if c == nil {
		return ErrNilContext
	}
	if c.kind != kind || c.klmMatrix == "" {
		return fmt.Errorf("%w: context is not from %s setup", ErrStageOrder, kind)
	}
	return nil
}
