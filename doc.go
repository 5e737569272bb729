// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ccpr generates WGSL shaders for coverage-counting path rendering.
//
// # Overview
//
// A coverage-counting path renderer accumulates signed, antialiased coverage
// for every curve segment of a path into a floating point target, then
// resolves the accumulated counts with the fill rule. Each curve type gets a
// small generated program that computes analytic coverage of its segment.
// This package generates the program for conics: rational quadratic Béziers
// with weight w.
//
// # Stages
//
// A [CurveShader] emits code in three stages:
//
//   - EmitSetup computes, once per vertex, the KLM matrix that maps a device
//     position to the implicit functional triple (k, l, m), and optionally a
//     4-point hull clipped at the curve's maximum height.
//   - EmitVaryings projects the vertex position into KLM space and writes the
//     implicit function's gradient for antialiasing.
//   - EmitFragmentCode evaluates f = k² - l·m from the interpolated values,
//     converts it to pixel-space coverage, folds in the flat hull edge and
//     applies the winding sign.
//
// EmitSetup returns a [GenContext] that must be threaded through the later
// stages. A context belongs to one program generation.
//
// # Programs
//
// [GenerateProgram] wraps the stages into a complete WGSL module with vertex
// and fragment entry points, an instance vertex layout and a viewport uniform:
//
//	prog, err := ccpr.GenerateProgram(ccpr.ConicShader{},
//	    ccpr.WithHull(true), ccpr.WithBloat(0.5))
//	if err != nil {
//	    return err
//	}
//	spirv, err := prog.SPIRV()
//
// The gpu sub-package builds a render pipeline from a Program.
//
// # CPU reference
//
// [Conic] and [KLMMatrix] evaluate the same formulas on the CPU in float64.
// [RasterizeCoverage] uses them to render coverage into a [CoverageMask]
// without a GPU, which is how the generated formulas are tested.
//
// # Preconditions
//
// Degenerate conics (zero area, near-linear control points) must be culled
// before generation. A zero KLM normalization width is not detected; it
// produces NaN coverage in the generated program.
package ccpr
