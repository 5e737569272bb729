// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shaderbuilder

import (
	"fmt"
	"strings"
)

// Names of the inter-stage struct values in generated entry points.
const (
	VertexOutName  = "out"
	FragmentInName = "in"
)

// Varying is a value written by the vertex stage and interpolated across
// the primitive for the fragment stage.
type Varying struct {
	name     string
	typ      Type
	location uint32
}

// Name returns the varying's field name.
func (v *Varying) Name() string { return v.name }

// Type returns the varying's type.
func (v *Varying) Type() Type { return v.typ }

// Location returns the inter-stage location assigned to the varying.
func (v *Varying) Location() uint32 { return v.location }

// VSOut returns the expression the vertex stage assigns to.
func (v *Varying) VSOut() string { return VertexOutName + "." + v.name }

// FSIn returns the expression the fragment stage reads.
func (v *Varying) FSIn() string { return FragmentInName + "." + v.name }

// VaryingHandler allocates varyings and assigns their locations.
type VaryingHandler struct {
	varyings []*Varying
}

// NewVaryingHandler creates an empty handler.
func NewVaryingHandler() *VaryingHandler {
	return &VaryingHandler{}
}

// AddVarying allocates a varying at the next free location.
// Matrix types cannot cross the stage boundary and panic.
func (h *VaryingHandler) AddVarying(name string, t Type) *Varying {
	if t.IsMatrix() {
		panic(fmt.Sprintf("shaderbuilder: varying %q cannot have matrix type %s", name, t))
	}
	for _, v := range h.varyings {
		if v.name == name {
			panic(fmt.Sprintf("shaderbuilder: varying %q added twice", name))
		}
	}
	v := &Varying{name: name, typ: t, location: uint32(len(h.varyings))}
	h.varyings = append(h.varyings, v)
	return v
}

// Varyings returns the allocated varyings in location order.
func (h *VaryingHandler) Varyings() []*Varying {
	return h.varyings
}

// Struct renders the inter-stage struct. The clip-space position builtin is
// always the first member.
func (h *VaryingHandler) Struct(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", name)
	sb.WriteString("\t@builtin(position) position: vec4<f32>,\n")
	for _, v := range h.varyings {
		fmt.Fprintf(&sb, "\t@location(%d) %s: %s,\n", v.location, v.name, v.typ)
	}
	sb.WriteString("}\n")
	return sb.String()
}
