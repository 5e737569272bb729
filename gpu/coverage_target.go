// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ccpr"
)

// coverageTexelSize is the byte size of one R16Float texel.
const coverageTexelSize = 2

// copyPitchAlignment is the WebGPU BytesPerRow alignment for buffer copies.
const copyPitchAlignment = 256

// CoverageTarget is an offscreen R16Float texture that coverage programs
// accumulate into.
type CoverageTarget struct {
	device hal.Device

	tex  hal.Texture
	view hal.TextureView

	width, height uint32
}

// NewCoverageTarget creates an empty target on device. Textures are not
// allocated until Ensure is called.
func NewCoverageTarget(device hal.Device) *CoverageTarget {
	return &CoverageTarget{device: device}
}

// Size returns the current texture size, or (0, 0) before Ensure.
func (t *CoverageTarget) Size() (uint32, uint32) {
	return t.width, t.height
}

// Ensure allocates the texture at width x height. Existing textures of a
// different size are destroyed first.
func (t *CoverageTarget) Ensure(width, height uint32) error {
	if t.width == width && t.height == height && t.tex != nil {
		return nil
	}
	t.Destroy()

	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label: "ccpr_coverage",
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ccpr.CoverageFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create coverage texture: %w", err)
	}
	t.tex = tex

	view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "ccpr_coverage_view",
	})
	if err != nil {
		t.Destroy()
		return fmt.Errorf("create coverage texture view: %w", err)
	}
	t.view = view
	t.width, t.height = width, height
	return nil
}

// Destroy releases the texture and its view. Safe to call multiple times.
func (t *CoverageTarget) Destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width, t.height = 0, 0
}

// RenderCoverage clears target, draws instances into it, waits for the GPU
// and returns the accumulated counts as tightly packed little-endian
// float16 texels, row by row.
func (cr *ConicRenderer) RenderCoverage(target *CoverageTarget, instances []ccpr.Instance) ([]byte, error) {
	w, h := target.Size()
	if target.tex == nil || w == 0 || h == 0 {
		return nil, fmt.Errorf("render coverage: target not allocated")
	}

	res, err := cr.PrepareFrame(instances, w, h)
	if err != nil {
		return nil, err
	}
	defer cr.ReleaseFrame(res)

	encoder, err := cr.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "ccpr_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ccpr_frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "ccpr_coverage_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	cr.RecordDraws(rp, res)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * coverageTexelSize
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := cr.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ccpr_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer cr.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(target.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: target.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer cr.device.FreeCommandBuffer(cmdBuf)

	fence, err := cr.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer cr.device.DestroyFence(fence)

	if err := cr.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	ok, err := cr.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !ok {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}

	readback := make([]byte, stagingSize)
	if err := cr.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		return readback, nil
	}

	tight := make([]byte, uint64(bytesPerRow)*uint64(h))
	for row := uint32(0); row < h; row++ {
		src := int(row) * int(alignedBytesPerRow)
		dst := int(row) * int(bytesPerRow)
		copy(tight[dst:dst+int(bytesPerRow)], readback[src:src+int(bytesPerRow)])
	}
	return tight, nil
}
