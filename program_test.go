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

func TestGenerateProgramVariants(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		label       string
		vertexCount uint32
		stride      uint64
		attrs       int
	}{
		{"plain", nil, "conic_coverage", 3, 36, 5},
		{"hull", []Option{WithHull(true)}, "conic_coverage_hull", 6, 36, 5},
		{"corner", []Option{WithCornerCoverage(true)}, "conic_coverage_corner", 3, 44, 6},
		{"hull+corner", []Option{WithHull(true), WithCornerCoverage(true)}, "conic_coverage_hull_corner", 6, 44, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := GenerateProgram(ConicShader{}, tt.opts...)
			if err != nil {
				t.Fatalf("GenerateProgram: %v", err)
			}
			if p.Label != tt.label {
				t.Errorf("Label = %q, want %q", p.Label, tt.label)
			}
			if p.Kind != CurveConic {
				t.Errorf("Kind = %v", p.Kind)
			}
			if p.VertexCount != tt.vertexCount {
				t.Errorf("VertexCount = %d, want %d", p.VertexCount, tt.vertexCount)
			}
			if len(p.Layout) != 1 {
				t.Fatalf("Layout has %d buffers, want 1", len(p.Layout))
			}
			l := p.Layout[0]
			if l.ArrayStride != tt.stride || len(l.Attributes) != tt.attrs {
				t.Errorf("layout stride %d with %d attributes, want %d with %d",
					l.ArrayStride, len(l.Attributes), tt.stride, tt.attrs)
			}
			if l.StepMode != gputypes.VertexStepModeInstance {
				t.Errorf("StepMode = %v, want instance", l.StepMode)
			}
			if !strings.HasPrefix(p.Source, "// "+tt.label+"\n") {
				t.Errorf("source header missing label:\n%s", p.Source)
			}
		})
	}
}

func TestGenerateProgramModule(t *testing.T) {
	p, err := GenerateProgram(ConicShader{}, WithHull(true), WithCornerCoverage(true))
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, p.Source,
		"const bloat: f32 = 0.5;",
		"@group(0) @binding(0) var<uniform> viewport: Viewport;",
		"@location(0) p0: vec2<f32>,",
		"@location(4) wind: f32,",
		"@location(5) corner_coverage: vec2<f32>,",
		"struct VertexOutput {",
		"@builtin(position) position: vec4<f32>,",
		"@location(0) klm_and_wind: vec4<f32>,",
		"@location(1) grad_and_corner: vec4<f32>,",
		"var<private> klm_matrix: mat3x3<f32>;",
		"var<private> control_point: vec2<f32>;",
		"fn vs_main(@builtin(vertex_index) vertex_index: u32, inst: CurveInstance) -> VertexOutput {",
		"let vertex_pos = conic_hull[hull_indices[vertex_index]];",
		"vec2<f32>(hull_coverage, 1.0) * inst.corner_coverage",
		"fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {",
		"return vec4<f32>(coverage, 0.0, 0.0, 0.0);",
	)

	// Setup must run before the vertex position is read.
	src := p.Source
	if strings.Index(src, "control_point = pts[1];") > strings.Index(src, "let klm = ") {
		t.Error("varyings emitted before setup")
	}
}

func TestGenerateProgramBloat(t *testing.T) {
	p, err := GenerateProgram(ConicShader{}, WithBloat(1.25))
	if err != nil {
		t.Fatal(err)
	}
	if p.Features.Bloat != 1.25 {
		t.Errorf("Features.Bloat = %v", p.Features.Bloat)
	}
	mustContain(t, p.Source, "const bloat: f32 = 1.25;")

	p, err = GenerateProgram(ConicShader{}, WithBloat(2))
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, p.Source, "const bloat: f32 = 2.0;")

	if _, err := GenerateProgram(ConicShader{}, WithBloat(0)); !errors.Is(err, ErrInvalidBloat) {
		t.Errorf("zero bloat = %v, want ErrInvalidBloat", err)
	}
}

func TestGenerateProgramDeterministic(t *testing.T) {
	a, err := GenerateProgram(ConicShader{}, WithHull(true))
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateProgram(ConicShader{}, WithHull(true))
	if err != nil {
		t.Fatal(err)
	}
	if a.Source != b.Source {
		t.Error("generation is not deterministic")
	}
}

// brokenShader skips setup so the varying stage must refuse its context.
type brokenShader struct{ ConicShader }

func (brokenShader) EmitSetup(*shaderbuilder.Builder, SetupParams) *GenContext { return &GenContext{} }

func TestGenerateProgramStageError(t *testing.T) {
	_, err := GenerateProgram(brokenShader{})
	if !errors.Is(err, ErrStageOrder) {
		t.Fatalf("err = %v, want ErrStageOrder", err)
	}
	if !strings.Contains(err.Error(), "emit conic varyings") {
		t.Errorf("error not wrapped with stage: %v", err)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{0.5, "0.5"},
		{1, "1.0"},
		{10, "10.0"},
		{0.125, "0.125"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgramSPIRV(t *testing.T) {
	for _, opts := range [][]Option{
		nil,
		{WithHull(true)},
		{WithHull(true), WithCornerCoverage(true)},
	} {
		p, err := GenerateProgram(ConicShader{}, opts...)
		if err != nil {
			t.Fatal(err)
		}
		words, err := p.SPIRV()
		if err != nil {
			// naga covers a subset of WGSL; treat compile gaps as skips.
			t.Skipf("Skipping: naga could not compile %s: %v", p.Label, err)
		}
		if len(words) < 5 {
			t.Fatalf("%s: SPIR-V too short: %d words", p.Label, len(words))
		}
		if words[0] != 0x07230203 {
			t.Errorf("%s: SPIR-V magic = %#x, want 0x07230203", p.Label, words[0])
		}
	}
}
