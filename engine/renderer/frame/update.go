package frame

import (
	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/resource_cache"
	"github.com/Carmen-Shannon/oxy-pacer/engine/scene"
)

// update uploads the data of every entity whose camera, transform, material or geometry changed since this slot
// last uploaded it. Entities seen for the first time always upload. Each key is requested from the cache at most
// once per pass because the stamp check skips keys already current.
func (s *Slot) update(snap *scene.Snapshot) error {
	extent := s.framebuffer.Extent()
	cameraStamp := stamp{version: snap.Camera.Version, extent: extent}

	for i := range snap.Entities {
		e := &snap.Entities[i]

		key := keyFor(e, &snap.Camera, pipeline.GroupCamera)
		if s.stale(key, cameraStamp) {
			cam := snap.Camera.Camera
			eye := cam.Eye
			_, err := resource_cache.Upload(s.caches.Buffers, key, pipeline.GPUCameraUniform{
				View:       cam.View(),
				Projection: cam.Projection(extent),
				Position:   [4]float32{eye[0], eye[1], eye[2], 1},
			})
			if err != nil {
				return err
			}
			s.mark(key, cameraStamp)
		}

		key = keyFor(e, &snap.Camera, pipeline.GroupModel)
		if st := (stamp{version: e.Version}); s.stale(key, st) {
			if _, err := resource_cache.Upload(s.caches.Buffers, key, pipeline.GPUModelUniform{Model: e.World}); err != nil {
				return err
			}
			s.mark(key, st)
		}

		key = keyFor(e, &snap.Camera, pipeline.GroupMaterial)
		if st := (stamp{version: e.Material.Version}); s.stale(key, st) {
			c := e.Material.Color
			_, err := resource_cache.Upload(s.caches.Buffers, key, pipeline.GPUMaterialUniform{
				BaseColor: [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)},
			})
			if err != nil {
				return err
			}
			s.mark(key, st)
		}

		if e.Primitive.VertexCount() == 0 {
			continue
		}
		st := stamp{version: e.GeometryVersion}
		if key = vertexKey(e); s.stale(key, st) {
			if _, err := resource_cache.UploadSlice(s.caches.Buffers, key, gpu.BufferUsageVertex, e.Primitive.Vertices); err != nil {
				return err
			}
			s.mark(key, st)
		}
		if !e.Primitive.Indexed() {
			continue
		}
		if key = indexKey(e); s.stale(key, st) {
			if _, err := resource_cache.UploadSlice(s.caches.Buffers, key, gpu.BufferUsageIndex, e.Primitive.Indices); err != nil {
				return err
			}
			s.mark(key, st)
		}
	}
	return nil
}

func (s *Slot) stale(key resource_cache.ResourceKey, st stamp) bool {
	last, ok := s.uploaded[key]
	return !ok || last != st
}

func (s *Slot) mark(key resource_cache.ResourceKey, st stamp) {
	s.uploaded[key] = st
	s.stats.Uploads++
}

// Draw records one draw per visible entity. Descriptor bindings are only written for descriptor sets the cache
// created during this call; sets populated on earlier frames are bound as-is.
//
// Parameters:
//   - snap: the snapshot passed to Begin
//   - table: the pipeline table materials index into
//
// Returns:
//   - error: an error if a descriptor set could not be allocated or written
func (s *Slot) Draw(snap *scene.Snapshot, table *pipeline.Table) error {
	gpu.Assert(s.state == StateRecording && !s.ended, "frame %d draw while %s", s.index, s.state)

	bound := false
	var current common.PipelineID
	for i := range snap.Entities {
		e := &snap.Entities[i]
		p := table.Get(e.Material.Pipeline)
		if p.VertexInput() && e.Primitive.VertexCount() == 0 {
			continue
		}

		if !bound || current != e.Material.Pipeline {
			s.recorder.SetPipeline(p.Handle())
			current, bound = e.Material.Pipeline, true
		}

		for group, role := range p.Groups() {
			key := keyFor(e, &snap.Camera, role)
			provider, created, err := s.caches.Descriptors.GetOrCreateDescriptor(key, role.Layout())
			if err != nil {
				return err
			}
			if created {
				if err := provider.Bind(0, s.caches.Buffers.MustGet(key)); err != nil {
					return err
				}
				s.stats.BindingWrites++
			}
			s.recorder.BindDescriptors(group, provider.DescriptorSet())
		}

		switch p.Kind() {
		case pipeline.KindFullscreen:
			s.recorder.Draw(3, 1)
		case pipeline.KindDefault, pipeline.KindNormal, pipeline.KindLine:
			s.recorder.BindVertexBuffer(s.caches.Buffers.MustGet(vertexKey(e)))
			if e.Primitive.Indexed() {
				s.recorder.BindIndexBuffer(s.caches.Buffers.MustGet(indexKey(e)))
				s.recorder.DrawIndexed(e.Primitive.IndexCount(), 1)
			} else {
				s.recorder.Draw(e.Primitive.VertexCount(), 1)
			}
		default:
			panic("frame: unhandled pipeline kind " + p.Kind().String())
		}
		s.stats.Draws++
	}
	return nil
}
