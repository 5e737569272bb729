// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/ccpr/shaderbuilder"
)

// Entry points of generated programs.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// ViewportUniformSize is the byte size of the viewport uniform buffer.
// Layout: size (vec2<f32>) + padding (vec2<f32>) = 16 bytes.
const ViewportUniformSize = 16

// CoverageFormat is the render target format generated programs write
// signed coverage counts to.
const CoverageFormat = gputypes.TextureFormatR16Float

// Features records the generation options a Program was built with.
type Features struct {
	Hull           bool
	CornerCoverage bool
	Bloat          float32
}

// Program is a complete generated WGSL module for one curve shader.
type Program struct {
	// Label identifies the program variant, e.g. "conic_coverage_hull".
	Label string

	// Kind is the curve type the program renders.
	Kind CurveKind

	// Source is the WGSL module text.
	Source string

	// VertexCount is the number of vertices drawn per instance.
	VertexCount uint32

	// Layout describes the per-instance vertex buffer.
	Layout []gputypes.VertexBufferLayout

	// Features are the options the program was generated with.
	Features Features
}

// GenerateProgram emits the three stages of shader and wraps them into a
// WGSL module with vertex and fragment entry points.
//
// Each instance of the program draws one curve. Instance data is laid out
// as described by Program.Layout (see EncodeInstances). Without a hull the
// control triangle is drawn, otherwise the 4-point hull as two triangles.
func GenerateProgram(shader CurveShader, opts ...Option) (*Program, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	vs := shaderbuilder.NewBuilder(gputypes.ShaderStageVertex)
	fs := shaderbuilder.NewBuilder(gputypes.ShaderStageFragment)
	vh := shaderbuilder.NewVaryingHandler()

	vs.Append("var pts = array<vec2<f32>, 4>(inst.p0, inst.p1, inst.p2, inst.p3);")
	vs.Append("let wind = inst.wind;")

	ctx := shader.EmitSetup(vs, SetupParams{Pts: "pts", Wind: "wind", Hull: o.hull})

	vertexCount := uint32(3)
	if hull := ctx.Hull4(); hull != "" {
		vertexCount = 6
		vs.Append("var hull_indices = array<u32, 6>(0u, 1u, 2u, 0u, 2u, 3u);")
		vs.Appendf("let vertex_pos = %s[hull_indices[vertex_index]];", hull)
	} else {
		vs.Append("let vertex_pos = pts[vertex_index];")
	}

	vs.Appendf("var %s: VertexOutput;", shaderbuilder.VertexOutName)
	vs.Appendf("%s.position = vec4<f32>(vertex_pos / viewport.size * vec2<f32>(2.0, -2.0) + vec2<f32>(-1.0, 1.0), 0.0, 1.0);",
		shaderbuilder.VertexOutName)

	vp := VaryingParams{Position: "vertex_pos", Coverage: "wind"}
	if o.cornerCoverage {
		vp.CornerCoverage = "inst.corner_coverage"
	}
	if err := shader.EmitVaryings(ctx, vh, vs, vp); err != nil {
		return nil, fmt.Errorf("emit %s varyings: %w", shader.Kind(), err)
	}
	vs.Appendf("return %s;", shaderbuilder.VertexOutName)

	fs.Append("var coverage: f32;")
	if err := shader.EmitFragmentCode(ctx, fs, "coverage"); err != nil {
		return nil, fmt.Errorf("emit %s fragment code: %w", shader.Kind(), err)
	}
	fs.Append("return vec4<f32>(coverage, 0.0, 0.0, 0.0);")

	p := &Program{
		Label:       programLabel(shader.Kind(), o),
		Kind:        shader.Kind(),
		VertexCount: vertexCount,
		Layout:      InstanceLayout(o.cornerCoverage),
		Features: Features{
			Hull:           o.hull,
			CornerCoverage: o.cornerCoverage,
			Bloat:          o.bloat,
		},
	}
	p.Source = assembleModule(p, vs, fs, vh)

	Logger().Debug("ccpr: generated program",
		"label", p.Label,
		"varyings", len(vh.Varyings()),
		"globals", len(vs.Globals()),
		"bytes", len(p.Source))
	return p, nil
}

func programLabel(kind CurveKind, o options) string {
	label := kind.String() + "_coverage"
	if o.hull {
		label += "_hull"
	}
	if o.cornerCoverage {
		label += "_corner"
	}
	return label
}

// assembleModule renders the module-scope declarations and both entry
// points around the emitted stage bodies.
func assembleModule(p *Program, vs, fs *shaderbuilder.Builder, vh *shaderbuilder.VaryingHandler) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "// %s\n\n", p.Label)
	fmt.Fprintf(&sb, "const %s: f32 = %s;\n\n", BloatSymbol, formatFloat(p.Features.Bloat))

	sb.WriteString("struct Viewport {\n\tsize: vec2<f32>,\n\tpadding: vec2<f32>,\n}\n\n")
	sb.WriteString("@group(0) @binding(0) var<uniform> viewport: Viewport;\n\n")

	sb.WriteString("struct CurveInstance {\n")
	for _, a := range instanceAttributes(p.Features.CornerCoverage) {
		fmt.Fprintf(&sb, "\t@location(%d) %s: %s,\n", a.location, a.name, a.typ)
	}
	sb.WriteString("}\n\n")

	sb.WriteString(vh.Struct("VertexOutput"))
	sb.WriteString("\n")

	if decl := vs.Declarations() + fs.Declarations(); decl != "" {
		sb.WriteString(decl)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "@vertex\nfn %s(@builtin(vertex_index) vertex_index: u32, inst: CurveInstance) -> VertexOutput {\n",
		VertexEntryPoint)
	sb.WriteString(vs.Code())
	sb.WriteString("}\n\n")

	fmt.Fprintf(&sb, "@fragment\nfn %s(%s: VertexOutput) -> @location(0) vec4<f32> {\n",
		FragmentEntryPoint, shaderbuilder.FragmentInName)
	sb.WriteString(fs.Code())
	sb.WriteString("}\n")

	return sb.String()
}

// formatFloat renders f as a WGSL float literal.
func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// SPIRV compiles the program source with naga and returns SPIR-V words.
func (p *Program) SPIRV() ([]uint32, error) {
	spirvBytes, err := naga.Compile(p.Source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", p.Label, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile %s: SPIR-V length %d is not word aligned", p.Label, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
