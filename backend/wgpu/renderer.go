// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/frame"
	"github.com/gogpu/gpures/resource"
)

// copyPitchAlignment is the WebGPU BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// Renderer records one render pass per Clear and Draw call and waits for
// it to complete.
type Renderer struct{}

var _ frame.Renderer = (*Renderer)(nil)

// Clear clears the target view to c.
func (r *Renderer) Clear(target *resource.Handle, c gputypes.Color) error {
	rtv, err := resource.ObjectAs[*RenderTargetView](target)
	if err != nil {
		return err
	}
	return rtv.swap.dev.submit("clear", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       rtv.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: c,
			}},
		})
		rp.End()
		return nil
	})
}

// Draw draws the default vertex buffer as a triangle list with the live
// render pipeline.
func (r *Renderer) Draw(target *resource.Handle, res resource.Resolver) error {
	rtv, err := resource.ObjectAs[*RenderTargetView](target)
	if err != nil {
		return err
	}
	ph, err := res.Get(resource.RenderPipeline)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoPipeline, err)
	}
	pipeline, err := resource.ObjectAs[*Pipeline](ph)
	if err != nil {
		return err
	}
	vbh, err := res.Get(resource.VertexBuffer)
	if err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	vb, err := resource.ObjectAs[*Buffer](vbh)
	if err != nil {
		return err
	}
	count := uint32(vb.size / pipeline.stride)
	count -= count % 3
	if count == 0 {
		return nil
	}

	return rtv.swap.dev.submit("draw", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "triangle_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    rtv.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		rp.SetPipeline(pipeline.pipeline)
		rp.SetVertexBuffer(0, vb.buffer, 0)
		rp.Draw(count, 1, 0, 0)
		rp.End()
		return nil
	})
}

// Present finishes the frame. With capture enabled the back buffer is
// copied to a staging buffer and converted into the swap chain's Frame.
func (r *Renderer) Present(swap *resource.Handle) error {
	sc, err := resource.ObjectAs[*SwapChain](swap)
	if err != nil {
		return err
	}
	sc.presents++
	if sc.frame == nil {
		return nil
	}
	return sc.readback()
}

// readback copies the back buffer into sc.frame.
func (sc *SwapChain) readback() error {
	dev := sc.dev
	w, h := sc.width, sc.height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "swapchain_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer dev.device.DestroyBuffer(staging)

	err = dev.submit("readback", func(enc hal.CommandEncoder) error {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: sc.texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		enc.CopyTextureToBuffer(sc.texture, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: sc.texture, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: sc.texture,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
		return nil
	})
	if err != nil {
		return err
	}

	m, err := dev.device.MapBuffer(staging, 0, size)
	if err != nil {
		return fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	data := unsafe.Slice((*byte)(m.Ptr), size)
	bgra := dev.format == gputypes.TextureFormatBGRA8Unorm || dev.format == gputypes.TextureFormatBGRA8UnormSrgb
	for row := uint32(0); row < h; row++ {
		src := data[uint64(row)*uint64(alignedBytesPerRow):][:bytesPerRow]
		dst := sc.frame.Pix[row*uint32(sc.frame.Stride):][:bytesPerRow]
		copyRow(dst, src, bgra)
	}
	if err := dev.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("wgpu: unmap staging buffer: %w", err)
	}
	return nil
}

// copyRow copies one row of 4-byte pixels, swapping red and blue when
// the source is BGRA.
func copyRow(dst, src []byte, bgra bool) {
	if !bgra {
		copy(dst, src)
		return
	}
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

// submit records commands with record, submits them and waits for the
// queue to complete the submission.
func (d *Device) submit(label string, record func(enc hal.CommandEncoder) error) error {
	if d.released {
		return fmt.Errorf("wgpu: %s: device released", label)
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("wgpu: %s: create command encoder: %w", label, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("wgpu: %s: begin encoding: %w", label, err)
	}
	if err := record(encoder); err != nil {
		encoder.DiscardEncoding()
		return err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: %s: end encoding: %w", label, err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	idx, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("wgpu: %s: submit: %w", label, err)
	}
	return d.wait(label, idx)
}

// wait polls the queue until submission idx completes or the device
// timeout elapses.
func (d *Device) wait(label string, idx uint64) error {
	timeout := d.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)
	for d.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s submission %d after %v", ErrTimeout, label, idx, timeout)
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}

// IsTimeout reports whether err is a GPU wait timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, hal.ErrTimeout)
}
