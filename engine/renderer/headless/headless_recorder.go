package headless

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Op is the kind of a recorded command.
type Op int

const (
	OpBeginPass Op = iota
	OpSetPipeline
	OpBindDescriptors
	OpBindVertexBuffer
	OpBindIndexBuffer
	OpDraw
	OpDrawIndexed
	OpEndPass
)

// Command is one recorded command.
type Command struct {
	Op Op
	// Count is the vertex or index count for draws, the group index for descriptor binds.
	Count     uint32
	Instances uint32
	// Image is the framebuffer image index for OpBeginPass.
	Image int
	Clear common.Color
}

// Recorder is the headless command-recording target. It keeps the commands of the last recording.
type Recorder struct {
	label     string
	recording bool
	inPass    bool
	commands  []Command
	submitted int
}

func (r *Recorder) Begin() error {
	if r.recording {
		return fmt.Errorf("recorder %q: begin while recording", r.label)
	}
	r.recording = true
	r.commands = r.commands[:0]
	return nil
}

func (r *Recorder) BeginPass(fb gpu.Framebuffer, clear common.Color) error {
	if !r.recording || r.inPass {
		return fmt.Errorf("recorder %q: begin pass outside recording or inside a pass", r.label)
	}
	if fb == nil {
		return errors.New("begin pass: nil framebuffer")
	}
	r.inPass = true
	r.commands = append(r.commands, Command{Op: OpBeginPass, Image: fb.Image().Index(), Clear: clear})
	return nil
}

func (r *Recorder) SetPipeline(p gpu.PipelineHandle) {
	r.record(Command{Op: OpSetPipeline})
}

func (r *Recorder) BindDescriptors(group int, set gpu.DescriptorSet) {
	r.record(Command{Op: OpBindDescriptors, Count: uint32(group)})
}

func (r *Recorder) BindVertexBuffer(buf gpu.Buffer) {
	r.record(Command{Op: OpBindVertexBuffer})
}

func (r *Recorder) BindIndexBuffer(buf gpu.Buffer) {
	r.record(Command{Op: OpBindIndexBuffer})
}

func (r *Recorder) Draw(vertexCount, instanceCount uint32) {
	r.record(Command{Op: OpDraw, Count: vertexCount, Instances: instanceCount})
}

func (r *Recorder) DrawIndexed(indexCount, instanceCount uint32) {
	r.record(Command{Op: OpDrawIndexed, Count: indexCount, Instances: instanceCount})
}

func (r *Recorder) EndPass() {
	r.record(Command{Op: OpEndPass})
	r.inPass = false
}

func (r *Recorder) End() error {
	if !r.recording || r.inPass {
		return fmt.Errorf("recorder %q: end outside recording or inside a pass", r.label)
	}
	r.recording = false
	return nil
}

func (r *Recorder) Release() {}

// record panics on commands issued outside a render pass; these are programming errors in the caller.
func (r *Recorder) record(c Command) {
	if !r.inPass {
		panic(fmt.Sprintf("recorder %q: command %d outside render pass", r.label, c.Op))
	}
	r.commands = append(r.commands, c)
}

// Commands returns the commands of the most recent recording.
func (r *Recorder) Commands() []Command {
	return append([]Command(nil), r.commands...)
}

// Submitted returns the number of times the recorder was submitted.
func (r *Recorder) Submitted() int {
	return r.submitted
}
