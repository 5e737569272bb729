// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"fmt"

	"github.com/gogpu/ccpr/shaderbuilder"
)

// BloatSymbol is the ambient f32 constant holding the antialiasing bloat
// radius in device pixels. Generated code references it by this name.
const BloatSymbol = "bloat"

// Symbols declared by the conic shader.
const (
	conicKLMMatrix    = "klm_matrix"
	conicControlPoint = "control_point"
	conicHull         = "conic_hull"
)

// ConicShader renders conic segments with analytic coverage.
//
// K is the distance from the line P2 -> P0. L is the distance from the line
// P0 -> P1 and M the distance from the line P1 -> P2, both scaled by 2w. The
// conic is exactly the zero set of f = k² - l·m.
type ConicShader struct{}

var _ CurveShader = ConicShader{}

// Kind returns CurveConic.
func (ConicShader) Kind() CurveKind { return CurveConic }

// EmitSetup declares the KLM matrix and its anchor, computed in a space
// where P1 is the origin.
func (ConicShader) EmitSetup(s *shaderbuilder.Builder, p SetupParams) *GenContext {
	pts := p.Pts
	ctx := &GenContext{kind: CurveConic}

	ctx.klmMatrix = s.DeclareGlobal(conicKLMMatrix, shaderbuilder.Float3x3)
	s.Appendf("let x0 = %s[0].x - %s[1].x;", pts, pts)
	s.Appendf("let x2 = %s[2].x - %s[1].x;", pts, pts)
	s.Appendf("let y0 = %s[0].y - %s[1].y;", pts, pts)
	s.Appendf("let y2 = %s[2].y - %s[1].y;", pts, pts)
	s.Appendf("let w = %s[3].x;", pts)
	s.Appendf("%s = mat3x3<f32>("+
		"vec3<f32>(y2 - y0, x0 - x2, x2*y0 - x0*y2), "+
		"vec3<f32>(2.0*w * vec2<f32>(y0, -x0), 0.0), "+
		"vec3<f32>(2.0*w * vec2<f32>(-y2, x2), 0.0));", ctx.klmMatrix)

	ctx.controlPoint = s.DeclareGlobal(conicControlPoint, shaderbuilder.Float2)
	s.Appendf("%s = %s[1];", ctx.controlPoint, pts)

	// Scale KLM by the inverse Manhattan width of K so K doubles as the flat
	// opposite edge AA. kwidth is never 0: degenerate conics are culled.
	s.Appendf("let kwidth = 2.0*%s * %s * (abs(%s[0].x) + abs(%s[0].y));",
		BloatSymbol, p.Wind, ctx.klmMatrix, ctx.klmMatrix)
	s.Appendf("%s = %s * (1.0 / kwidth);", ctx.klmMatrix, ctx.klmMatrix)

	if p.Hull {
		// Clip the conic triangle by the tangent line at maximum height,
		// which for a conic is always at T=.5: one De Casteljau step.
		s.Appendf("let p1w = %s[1]*w;", pts)
		s.Append("let r = 1.0 / (1.0 + w);")
		s.Appendf("var %s = array<vec2<f32>, 4>(%s[0], (%s[0] + p1w) * r, (p1w + %s[2]) * r, %s[2]);",
			conicHull, pts, pts, pts, pts)
		ctx.hull4 = conicHull
	}
	return ctx
}

// EmitVaryings writes klm_and_wind and grad (or grad_and_corner).
func (ConicShader) EmitVaryings(ctx *GenContext, vh *shaderbuilder.VaryingHandler, code *shaderbuilder.Builder, p VaryingParams) error {
	if err := ctx.checkSetup(CurveConic); err != nil {
		return err
	}
	if ctx.klmWind != nil {
		return fmt.Errorf("%w: conic varyings already emitted", ErrStageOrder)
	}

	ctx.klmWind = vh.AddVarying("klm_and_wind", shaderbuilder.Float4)
	code.Appendf("let klm = vec3<f32>(%s - %s, 1.0) * %s;", p.Position, ctx.controlPoint, ctx.klmMatrix)
	code.Appendf("%s = vec4<f32>(klm, %s);", ctx.klmWind.VSOut(), p.Coverage) // coverage == wind.

	corner := p.CornerCoverage != ""
	if corner {
		ctx.gradCorner = vh.AddVarying("grad_and_corner", shaderbuilder.Float4)
	} else {
		ctx.gradCorner = vh.AddVarying("grad", shaderbuilder.Float2)
	}
	m := ctx.klmMatrix
	code.Appendf("let grad = 2.0*%s * (mat3x2<f32>(%s[0].xy, %s[1].xy, %s[2].xy) * vec3<f32>(2.0*klm.x, -klm.z, -klm.y));",
		BloatSymbol, m, m, m)

	if !corner {
		code.Appendf("%s = grad;", ctx.gradCorner.VSOut())
		return nil
	}
	code.Append("var hull_coverage: f32;")
	emitHullCoverage(code, "klm", "grad", "hull_coverage")
	code.Appendf("%s = vec4<f32>(grad, vec2<f32>(hull_coverage, 1.0) * %s);",
		ctx.gradCorner.VSOut(), p.CornerCoverage)
	return nil
}

// EmitFragmentCode evaluates hull coverage from the interpolated varyings
// and applies wind and, if present, attenuated corner coverage.
func (ConicShader) EmitFragmentCode(ctx *GenContext, f *shaderbuilder.Builder, outputCoverage string) error {
	if err := ctx.checkSetup(CurveConic); err != nil {
		return err
	}
	if ctx.klmWind == nil || ctx.gradCorner == nil {
		return fmt.Errorf("%w: conic fragment code before varyings", ErrStageOrder)
	}

	emitHullCoverage(f, ctx.klmWind.FSIn(), ctx.gradCorner.FSIn(), outputCoverage)
	f.Appendf("%s = %s * %s.w;", outputCoverage, outputCoverage, ctx.klmWind.FSIn()) // Wind.

	if ctx.HasCornerCoverage() {
		// Attenuated corner coverage.
		g := ctx.gradCorner.FSIn()
		f.Appendf("%s = %s.z * %s.w + %s;", outputCoverage, g, g, outputCoverage)
	}
	return nil
}

// emitHullCoverage assigns the combined curve and flat-edge coverage of
// the klm vec3 with gradient grad to the f32 variable outputCoverage.
func emitHullCoverage(code *shaderbuilder.Builder, klm, grad, outputCoverage string) {
	code.OpenScope()
	code.Appendf("let k = %s.x;", klm)
	code.Appendf("let l = %s.y;", klm)
	code.Appendf("let m = %s.z;", klm)
	code.Append("let f = k*k - l*m;")
	code.Appendf("let grad_width = abs(%s.x) + abs(%s.y);", grad, grad)
	code.Appendf("%s = min(0.5 - f/grad_width, 1.0);", outputCoverage) // Curve coverage.
	code.Append("let d = min(k - 0.5, 0.0);")                        // K doubles as the flat opposite edge's AA.
	code.Appendf("%s = max(%s + d, 0.0);", outputCoverage, outputCoverage)
	code.CloseScope()
}
