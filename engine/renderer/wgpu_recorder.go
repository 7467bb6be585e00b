package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRecorder encodes one frame into a command encoder. The pass methods have no error return, so the first
// failure is kept and reported by End.
type wgpuRecorder struct {
	b     *wgpuRendererBackendImpl
	label string

	encoder  *wgpu.CommandEncoder
	pass     *wgpu.RenderPassEncoder
	commands *wgpu.CommandBuffer
	err      error
}

func (r *wgpuRecorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *wgpuRecorder) Begin() error {
	if r.encoder != nil {
		return fmt.Errorf("recorder %q begun twice", r.label)
	}
	if r.commands != nil {
		r.commands.Release()
		r.commands = nil
	}
	encoder, err := r.b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	r.encoder = encoder
	r.err = nil
	return nil
}

func (r *wgpuRecorder) BeginPass(fb gpu.Framebuffer, clear common.Color) error {
	if r.encoder == nil {
		return fmt.Errorf("recorder %q: pass begun outside recording", r.label)
	}
	wfb, ok := fb.(*wgpuFramebuffer)
	if !ok {
		return errors.New("framebuffer was not created by this device")
	}
	if wfb.image.view == nil {
		return fmt.Errorf("image %d has no acquired texture", wfb.image.index)
	}

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    wfb.image.view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: clear.R, G: clear.G, B: clear.B, A: clear.A,
			},
		}},
	}
	if wfb.depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            wfb.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		}
	}
	r.pass = r.encoder.BeginRenderPass(desc)
	return nil
}

func (r *wgpuRecorder) SetPipeline(p gpu.PipelineHandle) {
	wp, ok := p.(*wgpuPipeline)
	if !ok || wp.raw == nil {
		r.fail(errors.New("pipeline was not created by this device or was released"))
		return
	}
	r.pass.SetPipeline(wp.raw)
}

func (r *wgpuRecorder) BindDescriptors(group int, set gpu.DescriptorSet) {
	ws, ok := set.(*wgpuDescriptorSet)
	if !ok {
		r.fail(errors.New("descriptor set was not created by this device"))
		return
	}
	bg, err := ws.bindGroup()
	if err != nil {
		r.fail(err)
		return
	}
	r.pass.SetBindGroup(uint32(group), bg, nil)
}

func (r *wgpuRecorder) BindVertexBuffer(buf gpu.Buffer) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.raw == nil {
		r.fail(errors.New("vertex buffer was not created by this device or was released"))
		return
	}
	r.pass.SetVertexBuffer(0, wb.raw, 0, wgpu.WholeSize)
}

func (r *wgpuRecorder) BindIndexBuffer(buf gpu.Buffer) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.raw == nil {
		r.fail(errors.New("index buffer was not created by this device or was released"))
		return
	}
	r.pass.SetIndexBuffer(wb.raw, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (r *wgpuRecorder) Draw(vertexCount, instanceCount uint32) {
	r.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (r *wgpuRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	r.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (r *wgpuRecorder) EndPass() {
	if r.pass == nil {
		return
	}
	r.pass.End()
	r.pass.Release()
	r.pass = nil
}

func (r *wgpuRecorder) End() error {
	if r.encoder == nil {
		return fmt.Errorf("recorder %q ended outside recording", r.label)
	}
	r.EndPass()
	commands, err := r.encoder.Finish(nil)
	r.encoder.Release()
	r.encoder = nil
	if err != nil {
		return fmt.Errorf("recorder %q: %w", r.label, err)
	}
	if r.err != nil {
		commands.Release()
		return fmt.Errorf("recorder %q: %w", r.label, r.err)
	}
	r.commands = commands
	return nil
}

func (r *wgpuRecorder) Release() {
	r.EndPass()
	if r.encoder != nil {
		r.encoder.Release()
		r.encoder = nil
	}
	if r.commands != nil {
		r.commands.Release()
		r.commands = nil
	}
}
