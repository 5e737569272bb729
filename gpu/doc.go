// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu runs generated coverage programs on a wgpu/hal device.
//
// A ConicRenderer turns a ccpr.Program into a render pipeline that writes
// signed coverage counts to an R16Float target with additive blending:
//
//	prog, _ := ccpr.GenerateProgram(ccpr.ConicShader{}, ccpr.WithHull(true))
//	r, _ := gpu.NewConicRenderer(device, queue, prog)
//	defer r.Destroy()
//
//	res, err := r.PrepareFrame(instances, width, height)
//	...
//	r.RecordDraws(pass, res)
//
// Build with the nogpu tag to exclude the package from GPU-less builds.
package gpu
