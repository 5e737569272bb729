// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ccpr"
)

var (
	// ErrNilProgram is returned when a renderer is created without a program.
	ErrNilProgram = errors.New("gpu: nil program")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("gpu: provider does not expose HAL device and queue")
)

// ConicRenderer draws instances of a generated coverage program into an
// R16Float coverage-count target with additive blending.
//
// Pipelines are created lazily by EnsurePipeline. Per-frame instance and
// viewport buffers are built by PrepareFrame and recorded into a caller
// owned render pass by RecordDraws.
type ConicRenderer struct {
	device  hal.Device
	queue   hal.Queue
	program *ccpr.Program

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
}

// NewConicRenderer creates a renderer for program on the given device and
// queue.
func NewConicRenderer(device hal.Device, queue hal.Queue, program *ccpr.Program) (*ConicRenderer, error) {
	if program == nil {
		return nil, ErrNilProgram
	}
	return &ConicRenderer{
		device:  device,
		queue:   queue,
		program: program,
	}, nil
}

// NewConicRendererFromProvider creates a renderer on a device shared by an
// external provider (e.g., gogpu). The provider must also implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func NewConicRendererFromProvider(provider gpucontext.DeviceProvider, program *ccpr.Program) (*ConicRenderer, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewConicRenderer(device, queue, program)
}

// Program returns the program the renderer draws.
func (cr *ConicRenderer) Program() *ccpr.Program {
	return cr.program
}

// Destroy releases all GPU resources held by the renderer. Safe to call
// multiple times or on a renderer with no allocated resources.
func (cr *ConicRenderer) Destroy() {
	cr.destroyPipeline()
}

// EnsurePipeline creates the shader, layouts, and render pipeline if they
// don't already exist.
func (cr *ConicRenderer) EnsurePipeline() error {
	if cr.pipeline != nil {
		return nil
	}
	if err := cr.createPipeline(); err != nil {
		cr.destroyPipeline()
		return err
	}
	ccpr.Logger().Debug("gpu: conic pipeline created", "label", cr.program.Label)
	return nil
}

// createPipeline compiles the program and creates a render pipeline that
// accumulates coverage with additive blending.
func (cr *ConicRenderer) createPipeline() error {
	p := cr.program
	if p.Source == "" {
		return fmt.Errorf("%s: program source is empty", p.Label)
	}

	shader, err := cr.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.Label + "_shader",
		Source: hal.ShaderSource{WGSL: p.Source},
	})
	if err != nil {
		return fmt.Errorf("compile %s shader: %w", p.Label, err)
	}
	cr.shader = shader

	uniformLayout, err := cr.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: p.Label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create %s uniform layout: %w", p.Label, err)
	}
	cr.uniformLayout = uniformLayout

	pipeLayout, err := cr.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            p.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{cr.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline layout: %w", p.Label, err)
	}
	cr.pipeLayout = pipeLayout

	blend := AdditiveBlend()
	pipeline, err := cr.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.Label + "_pipeline",
		Layout: cr.pipeLayout,
		Vertex: hal.VertexState{
			Module:     cr.shader,
			EntryPoint: ccpr.VertexEntryPoint,
			Buffers:    p.Layout,
		},
		Fragment: &hal.FragmentState{
			Module:     cr.shader,
			EntryPoint: ccpr.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    ccpr.CoverageFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline: %w", p.Label, err)
	}
	cr.pipeline = pipeline
	return nil
}

// AdditiveBlend returns the blend state that sums signed coverage counts.
func AdditiveBlend() gputypes.BlendState {
	add := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOne,
		Operation: gputypes.BlendOperationAdd,
	}
	return gputypes.BlendState{Color: add, Alpha: add}
}

// destroyPipeline releases all pipeline resources in reverse creation order.
func (cr *ConicRenderer) destroyPipeline() {
	if cr.device == nil {
		return
	}
	if cr.pipeline != nil {
		cr.device.DestroyRenderPipeline(cr.pipeline)
		cr.pipeline = nil
	}
	if cr.pipeLayout != nil {
		cr.device.DestroyPipelineLayout(cr.pipeLayout)
		cr.pipeLayout = nil
	}
	if cr.uniformLayout != nil {
		cr.device.DestroyBindGroupLayout(cr.uniformLayout)
		cr.uniformLayout = nil
	}
	if cr.shader != nil {
		cr.device.DestroyShaderModule(cr.shader)
		cr.shader = nil
	}
}

// FrameResources holds the per-frame GPU resources of one draw batch.
type FrameResources struct {
	instanceBuf   hal.Buffer
	uniformBuf    hal.Buffer
	bindGroup     hal.BindGroup
	vertexCount   uint32
	instanceCount uint32
}

// InstanceCount returns the number of curves in the batch.
func (r *FrameResources) InstanceCount() uint32 { return r.instanceCount }

// PrepareFrame uploads instances and the viewport of a w x h target and
// returns the resources RecordDraws consumes. The caller must release the
// resources with ReleaseFrame once the frame has been submitted.
//
// Returns nil resources and no error for an empty batch.
func (cr *ConicRenderer) PrepareFrame(instances []ccpr.Instance, w, h uint32) (*FrameResources, error) {
	if len(instances) == 0 {
		return nil, nil //nolint:nilnil // empty batch is a valid no-op, not an error
	}
	if err := cr.EnsurePipeline(); err != nil {
		return nil, err
	}

	corner := cr.program.Features.CornerCoverage
	instanceBuf, err := cr.createAndUploadBuffer(cr.program.Label+"_instances",
		ccpr.EncodeInstances(instances, corner),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	uniformBuf, err := cr.createAndUploadBuffer(cr.program.Label+"_viewport",
		makeViewportUniform(w, h),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		cr.device.DestroyBuffer(instanceBuf)
		return nil, err
	}

	bindGroup, err := cr.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  cr.program.Label + "_bind",
		Layout: cr.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: ccpr.ViewportUniformSize,
			}},
		},
	})
	if err != nil {
		cr.device.DestroyBuffer(uniformBuf)
		cr.device.DestroyBuffer(instanceBuf)
		return nil, fmt.Errorf("create %s bind group: %w", cr.program.Label, err)
	}

	return &FrameResources{
		instanceBuf:   instanceBuf,
		uniformBuf:    uniformBuf,
		bindGroup:     bindGroup,
		vertexCount:   cr.program.VertexCount,
		instanceCount: uint32(len(instances)), //nolint:gosec // batch size fits uint32
	}, nil
}

// RecordDraws records one instanced draw of the batch into rp. This is a
// no-op if resources is nil.
func (cr *ConicRenderer) RecordDraws(rp hal.RenderPassEncoder, resources *FrameResources) {
	if resources == nil || resources.instanceCount == 0 {
		return
	}
	rp.SetPipeline(cr.pipeline)
	rp.SetBindGroup(0, resources.bindGroup, nil)
	rp.SetVertexBuffer(0, resources.instanceBuf, 0)
	rp.Draw(resources.vertexCount, resources.instanceCount, 0, 0)
}

// ReleaseFrame destroys the resources returned by PrepareFrame. Nil is
// accepted.
func (cr *ConicRenderer) ReleaseFrame(resources *FrameResources) {
	if resources == nil {
		return
	}
	if resources.bindGroup != nil {
		cr.device.DestroyBindGroup(resources.bindGroup)
	}
	if resources.uniformBuf != nil {
		cr.device.DestroyBuffer(resources.uniformBuf)
	}
	if resources.instanceBuf != nil {
		cr.device.DestroyBuffer(resources.instanceBuf)
	}
	*resources = FrameResources{}
}

func (cr *ConicRenderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := cr.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	cr.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// makeViewportUniform packs the target size into the 16-byte viewport
// uniform. Padding bytes 8..15 remain zero.
func makeViewportUniform(w, h uint32) []byte {
	buf := make([]byte, ccpr.ViewportUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(h)))
	return buf
}
