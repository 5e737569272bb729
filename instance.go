// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ccpr

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ccpr/shaderbuilder"
)

// Instance is the per-curve input of a generated program.
type Instance struct {
	// Points holds the control points and weight.
	Points ControlPoints

	// Wind is the winding sign, usually +1 or -1.
	Wind float32

	// Corner is the corner attenuation. It is only encoded for programs
	// generated with corner coverage.
	Corner [2]float32
}

// InstanceStride returns the byte stride of one encoded instance.
// Layout per instance:
//
//	p0..p3          (4 x vec2<f32>) = 32 bytes (locations 0-3)
//	wind            (f32)           =  4 bytes (location 4)
//	corner_coverage (vec2<f32>)     =  8 bytes (location 5, corner only)
func InstanceStride(cornerCoverage bool) uint64 {
	var stride uint64
	for _, a := range instanceAttributes(cornerCoverage) {
		stride += a.typ.Size()
	}
	return stride
}

type instanceAttribute struct {
	name     string
	typ      shaderbuilder.Type
	location uint32
}

func instanceAttributes(cornerCoverage bool) []instanceAttribute {
	attrs := []instanceAttribute{
		{"p0", shaderbuilder.Float2, 0},
		{"p1", shaderbuilder.Float2, 1},
		{"p2", shaderbuilder.Float2, 2},
		{"p3", shaderbuilder.Float2, 3},
		{"wind", shaderbuilder.Float, 4},
	}
	if cornerCoverage {
		attrs = append(attrs, instanceAttribute{"corner_coverage", shaderbuilder.Float2, 5})
	}
	return attrs
}

// InstanceLayout returns the vertex buffer layout of encoded instances.
func InstanceLayout(cornerCoverage bool) []gputypes.VertexBufferLayout {
	attrs := instanceAttributes(cornerCoverage)
	out := make([]gputypes.VertexAttribute, 0, len(attrs))
	var offset uint64
	for _, a := range attrs {
		format, _ := a.typ.VertexFormat()
		out = append(out, gputypes.VertexAttribute{
			Format:         format,
			Offset:         offset,
			ShaderLocation: a.location,
		})
		offset += a.typ.Size()
	}
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: offset,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes:  out,
		},
	}
}

// EncodeInstances encodes instances as little-endian float32 data matching
// InstanceLayout(cornerCoverage).
func EncodeInstances(instances []Instance, cornerCoverage bool) []byte {
	return AppendInstances(nil, instances, cornerCoverage)
}

// AppendInstances appends encoded instances to buf and returns the
// extended slice. Passing a reused buffer avoids per-frame allocation.
func AppendInstances(buf []byte, instances []Instance, cornerCoverage bool) []byte {
	stride := int(InstanceStride(cornerCoverage))
	start := len(buf)
	need := start + len(instances)*stride
	if cap(buf) < need {
		grown := make([]byte, start, need)
		copy(grown, buf)
		buf = grown
	}
	buf = buf[:need]

	off := start
	put := func(v float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	for i := range instances {
		inst := &instances[i]
		for _, p := range inst.Points {
			put(float32(p.X))
			put(float32(p.Y))
		}
		put(inst.Wind)
		if cornerCoverage {
			put(inst.Corner[0])
			put(inst.Corner[1])
		}
	}
	return buf
}
