// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ccpr/shaderbuilder"
)

func mustContain(t *testing.T, code string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(code, w) {
			t.Errorf("code missing %q:\n%s", w, code)
		}
	}
}

func emitConic(t *testing.T, hull bool, corner string) (*GenContext, *shaderbuilder.Builder, *shaderbuilder.Builder, *shaderbuilder.VaryingHandler) {
	t.Helper()
	vs := shaderbuilder.NewBuilder(gputypes.ShaderStageVertex)
	fs := shaderbuilder.NewBuilder(gputypes.ShaderStageFragment)
	vh := shaderbuilder.NewVaryingHandler()

	var sh ConicShader
	ctx := sh.EmitSetup(vs, SetupParams{Pts: "pts", Wind: "wind", Hull: hull})
	if err := sh.EmitVaryings(ctx, vh, vs, VaryingParams{Position: "pos", Coverage: "wind", CornerCoverage: corner}); err != nil {
		t.Fatalf("EmitVaryings: %v", err)
	}
	if err := sh.EmitFragmentCode(ctx, fs, "coverage"); err != nil {
		t.Fatalf("EmitFragmentCode: %v", err)
	}
	return ctx, vs, fs, vh
}

func TestConicShaderKind(t *testing.T) {
	if k := (ConicShader{}).Kind(); k != CurveConic || k.String() != "conic" {
		t.Errorf("Kind() = %v", k)
	}
	if s := CurveKind(7).String(); s != "CurveKind(7)" {
		t.Errorf("unknown kind String() = %q", s)
	}
}

func TestConicSetup(t *testing.T) {
	vs := shaderbuilder.NewBuilder(gputypes.ShaderStageVertex)
	ctx := ConicShader{}.EmitSetup(vs, SetupParams{Pts: "pts", Wind: "wind"})

	if ctx.KLMMatrix() != "klm_matrix" || ctx.ControlPoint() != "control_point" {
		t.Errorf("symbols = %q, %q", ctx.KLMMatrix(), ctx.ControlPoint())
	}
	if ctx.Hull4() != "" {
		t.Errorf("Hull4() = %q without hull request", ctx.Hull4())
	}
	if !vs.HasGlobal("klm_matrix") || !vs.HasGlobal("control_point") {
		t.Error("setup did not declare its globals")
	}

	mustContain(t, vs.Code(),
		"let x0 = pts[0].x - pts[1].x;",
		"let x2 = pts[2].x - pts[1].x;",
		"let y0 = pts[0].y - pts[1].y;",
		"let y2 = pts[2].y - pts[1].y;",
		"let w = pts[3].x;",
		"vec3<f32>(y2 - y0, x0 - x2, x2*y0 - x0*y2)",
		"vec3<f32>(2.0*w * vec2<f32>(y0, -x0), 0.0)",
		"vec3<f32>(2.0*w * vec2<f32>(-y2, x2), 0.0)",
		"control_point = pts[1];",
		"let kwidth = 2.0*bloat * wind * (abs(klm_matrix[0].x) + abs(klm_matrix[0].y));",
		"klm_matrix = klm_matrix * (1.0 / kwidth);",
	)
	if strings.Contains(vs.Code(), "conic_hull") {
		t.Error("hull emitted without request")
	}

	// Normalization must follow the raw matrix.
	code := vs.Code()
	if strings.Index(code, "mat3x3<f32>(") > strings.Index(code, "let kwidth") {
		t.Error("kwidth computed before the raw matrix")
	}
}

func TestConicSetupHull(t *testing.T) {
	vs := shaderbuilder.NewBuilder(gputypes.ShaderStageVertex)
	ctx := ConicShader{}.EmitSetup(vs, SetupParams{Pts: "p", Wind: "s", Hull: true})
	if ctx.Hull4() != "conic_hull" {
		t.Fatalf("Hull4() = %q", ctx.Hull4())
	}
	mustContain(t, vs.Code(),
		"let p1w = p[1]*w;",
		"let r = 1.0 / (1.0 + w);",
		"var conic_hull = array<vec2<f32>, 4>(p[0], (p[0] + p1w) * r, (p1w + p[2]) * r, p[2]);",
		"2.0*bloat * s *",
	)
}

func TestConicVaryings(t *testing.T) {
	ctx, vs, _, vh := emitConic(t, false, "")

	vars := vh.Varyings()
	if len(vars) != 2 {
		t.Fatalf("got %d varyings, want 2", len(vars))
	}
	if vars[0].Name() != "klm_and_wind" || vars[0].Type() != shaderbuilder.Float4 {
		t.Errorf("varying 0 = %s %s", vars[0].Name(), vars[0].Type())
	}
	if vars[1].Name() != "grad" || vars[1].Type() != shaderbuilder.Float2 {
		t.Errorf("varying 1 = %s %s", vars[1].Name(), vars[1].Type())
	}
	if ctx.HasCornerCoverage() {
		t.Error("HasCornerCoverage() without corner input")
	}

	mustContain(t, vs.Code(),
		"let klm = vec3<f32>(pos - control_point, 1.0) * klm_matrix;",
		"out.klm_and_wind = vec4<f32>(klm, wind);",
		"let grad = 2.0*bloat * (mat3x2<f32>(klm_matrix[0].xy, klm_matrix[1].xy, klm_matrix[2].xy) * vec3<f32>(2.0*klm.x, -klm.z, -klm.y));",
		"out.grad = grad;",
	)
	if strings.Contains(vs.Code(), "hull_coverage") {
		t.Error("vertex hull coverage emitted without corner input")
	}
}

func TestConicVaryingsCorner(t *testing.T) {
	ctx, vs, _, vh := emitConic(t, true, "cc")

	if g := vh.Varyings()[1]; g.Name() != "grad_and_corner" || g.Type() != shaderbuilder.Float4 {
		t.Errorf("corner varying = %s %s", g.Name(), g.Type())
	}
	if !ctx.HasCornerCoverage() {
		t.Error("HasCornerCoverage() = false")
	}
	mustContain(t, vs.Code(),
		"var hull_coverage: f32;",
		"let k = klm.x;",
		"let grad_width = abs(grad.x) + abs(grad.y);",
		"hull_coverage = min(0.5 - f/grad_width, 1.0);",
		"hull_coverage = max(hull_coverage + d, 0.0);",
		"out.grad_and_corner = vec4<f32>(grad, vec2<f32>(hull_coverage, 1.0) * cc);",
	)
}

func TestConicFragment(t *testing.T) {
	_, _, fs, _ := emitConic(t, false, "")

	want := strings.Join([]string{
		"\t{",
		"\t\tlet k = in.klm_and_wind.x;",
		"\t\tlet l = in.klm_and_wind.y;",
		"\t\tlet m = in.klm_and_wind.z;",
		"\t\tlet f = k*k - l*m;",
		"\t\tlet grad_width = abs(in.grad.x) + abs(in.grad.y);",
		"\t\tcoverage = min(0.5 - f/grad_width, 1.0);",
		"\t\tlet d = min(k - 0.5, 0.0);",
		"\t\tcoverage = max(coverage + d, 0.0);",
		"\t}",
		"\tcoverage = coverage * in.klm_and_wind.w;",
		"",
	}, "\n")
	if got := fs.Code(); got != want {
		t.Errorf("fragment code =\n%s\nwant\n%s", got, want)
	}
}

func TestConicFragmentCorner(t *testing.T) {
	_, _, fs, _ := emitConic(t, false, "cc")

	code := fs.Code()
	wind := "coverage = coverage * in.klm_and_wind.w;"
	corner := "coverage = in.grad_and_corner.z * in.grad_and_corner.w + coverage;"
	mustContain(t, code, wind, corner, "abs(in.grad_and_corner.x) + abs(in.grad_and_corner.y)")
	if strings.Index(code, wind) > strings.Index(code, corner) {
		t.Error("corner term must be added after the wind multiply")
	}
}

func TestConicStageOrder(t *testing.T) {
	var sh ConicShader
	vh := shaderbuilder.NewVaryingHandler()
	vs := shaderbuilder.NewBuilder(gputypes.ShaderStageVertex)
	fs := shaderbuilder.NewBuilder(gputypes.ShaderStageFragment)
	vp := VaryingParams{Position: "pos", Coverage: "wind"}

	if err := sh.EmitVaryings(nil, vh, vs, vp); !errors.Is(err, ErrNilContext) {
		t.Errorf("EmitVaryings(nil) = %v, want ErrNilContext", err)
	}
	if err := sh.EmitFragmentCode(nil, fs, "coverage"); !errors.Is(err, ErrNilContext) {
		t.Errorf("EmitFragmentCode(nil) = %v, want ErrNilContext", err)
	}
	if err := sh.EmitVaryings(&GenContext{}, vh, vs, vp); !errors.Is(err, ErrStageOrder) {
		t.Errorf("EmitVaryings(empty ctx) = %v, want ErrStageOrder", err)
	}

	ctx := sh.EmitSetup(vs, SetupParams{Pts: "pts", Wind: "wind"})
	if err := sh.EmitFragmentCode(ctx, fs, "coverage"); !errors.Is(err, ErrStageOrder) {
		t.Errorf("EmitFragmentCode before varyings = %v, want ErrStageOrder", err)
	}
	if fs.Code() != "" {
		t.Error("failed stage appended code")
	}
	if err := sh.EmitVaryings(ctx, vh, vs, vp); err != nil {
		t.Fatalf("EmitVaryings: %v", err)
	}
	if err := sh.EmitVaryings(ctx, vh, vs, vp); !errors.Is(err, ErrStageOrder) {
		t.Errorf("second EmitVaryings = %v, want ErrStageOrder", err)
	}
	if ctx.KLMWind() == nil || ctx.GradCorner() == nil {
		t.Error("context missing varyings after EmitVaryings")
	}
}

func TestConicContextKindMismatch(t *testing.T) {
	ctx := &GenContext{kind: CurveKind(3), klmMatrix: "klm_matrix"}
	err := ConicShader{}.EmitVaryings(ctx, shaderbuilder.NewVaryingHandler(),
		shaderbuilder.NewBuilder(gputypes.ShaderStageVertex), VaryingParams{Position: "p", Coverage: "w"})
	if !errors.Is(err, ErrStageOrder) {
		t.Errorf("foreign context = %v, want ErrStageOrder", err)
	}
}
