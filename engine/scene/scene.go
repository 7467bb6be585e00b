// Package scene is the entity store the renderer draws from. The renderer never reads it directly; it consumes
// immutable snapshots taken once per frame.
package scene

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pacer/common"
)

// snapshotChunk is the number of entities one worker task computes world matrices for.
const snapshotChunk = 64

type node struct {
	model     common.ModelHandle
	material  common.MaterialHandle
	hasMat    bool
	transform common.Transform
	visible   bool
	version   uint64
}

type model struct {
	primitive *Primitive
	version   uint64
}

type material struct {
	Material
	version uint64
}

type camera struct {
	Camera
	version uint64
}

// Scene manages nodes, models, materials and cameras and produces per-frame snapshots.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// AddModel registers geometry shared by any number of nodes.
	//
	// Parameters:
	//   - primitive: the model geometry, nil for models drawn without vertex input
	//
	// Returns:
	//   - common.ModelHandle: the new model's handle
	AddModel(primitive *Primitive) common.ModelHandle

	// SetPrimitive replaces a model's geometry.
	//
	// Parameters:
	//   - h: the model handle
	//   - primitive: the new geometry
	//
	// Returns:
	//   - error: an error if the model does not exist
	SetPrimitive(h common.ModelHandle, primitive *Primitive) error

	// AddMaterial registers a material.
	//
	// Parameters:
	//   - m: the material
	//
	// Returns:
	//   - common.MaterialHandle: the new material's handle
	AddMaterial(m Material) common.MaterialHandle

	// SetMaterialColor changes a material's base color.
	//
	// Parameters:
	//   - h: the material handle
	//   - color: the new base color
	//
	// Returns:
	//   - error: an error if the material does not exist
	SetMaterialColor(h common.MaterialHandle, color common.Color) error

	// AddCamera registers a camera. The first camera added becomes the active one.
	//
	// Parameters:
	//   - c: the camera
	//
	// Returns:
	//   - common.CameraHandle: the new camera's handle
	AddCamera(c Camera) common.CameraHandle

	// UpdateCamera replaces a camera's parameters.
	//
	// Parameters:
	//   - h: the camera handle
	//   - c: the new parameters
	//
	// Returns:
	//   - error: an error if the camera does not exist
	UpdateCamera(h common.CameraHandle, c Camera) error

	// SetActiveCamera selects the camera snapshots are taken with.
	//
	// Parameters:
	//   - h: the camera handle
	//
	// Returns:
	//   - error: an error if the camera does not exist
	SetActiveCamera(h common.CameraHandle) error

	// AddNode places an instance of a model in the scene. Nodes start visible and without a material.
	//
	// Parameters:
	//   - m: the model handle
	//   - transform: the initial transform
	//
	// Returns:
	//   - common.NodeHandle: the new node's handle
	//   - error: an error if the model does not exist
	AddNode(m common.ModelHandle, transform common.Transform) (common.NodeHandle, error)

	// SetNodeMaterial assigns a material to a node.
	SetNodeMaterial(n common.NodeHandle, m common.MaterialHandle) error

	// SetTransform replaces a node's transform.
	SetTransform(n common.NodeHandle, transform common.Transform) error

	// SetVisible shows or hides a node.
	SetVisible(n common.NodeHandle, visible bool) error

	// RemoveNode removes a node from the scene.
	RemoveNode(n common.NodeHandle)

	// Count returns the number of nodes, visible or not.
	Count() int

	// Snapshot captures the visible scene. World matrices are computed on the scene's worker pool.
	//
	// Returns:
	//   - *Snapshot: the snapshot
	Snapshot() *Snapshot

	// Generation returns the current scene generation, which changes on every Reset.
	Generation() uint64

	// Reset removes everything from the scene and starts a new generation.
	Reset()
}

type scene struct {
	mu *sync.RWMutex

	name string

	nodes     map[common.NodeHandle]*node
	models    map[common.ModelHandle]*model
	materials map[common.MaterialHandle]*material
	cameras   map[common.CameraHandle]*camera

	activeCamera common.CameraHandle
	hasCamera    bool

	// nextHandle is shared by every handle kind so no two entities ever share a numeric id.
	nextHandle uint32
	// clock is bumped on every mutation and stamped into the changed entity's version.
	clock      uint64
	generation uint64

	// computePool runs the per-snapshot world matrix work. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

var _ Scene = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		nodes:          make(map[common.NodeHandle]*node),
		models:         make(map[common.ModelHandle]*model),
		materials:      make(map[common.MaterialHandle]*material),
		cameras:        make(map[common.CameraHandle]*camera),
		computeWorkers: max(runtime.NumCPU()-1, 1),
		generation:     1,
	}
	for _, option := range options {
		option(s)
	}

	// Created after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) handle() uint32 {
	s.nextHandle++
	return s.nextHandle
}

func (s *scene) tick() uint64 {
	s.clock++
	return s.clock
}

func (s *scene) AddModel(primitive *Primitive) common.ModelHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := common.ModelHandle(s.handle())
	s.models[h] = &model{primitive: primitive, version: s.tick()}
	return h
}

func (s *scene) SetPrimitive(h common.ModelHandle, primitive *Primitive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[h]
	if !ok {
		return fmt.Errorf("scene %s: no model %d", s.name, h)
	}
	m.primitive = primitive
	m.version = s.tick()
	return nil
}

func (s *scene) AddMaterial(m Material) common.MaterialHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := common.MaterialHandle(s.handle())
	s.materials[h] = &material{Material: m, version: s.tick()}
	return h
}

func (s *scene) SetMaterialColor(h common.MaterialHandle, color common.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[h]
	if !ok {
		return fmt.Errorf("scene %s: no material %d", s.name, h)
	}
	m.BaseColor = color
	m.version = s.tick()
	return nil
}

func (s *scene) AddCamera(c Camera) common.CameraHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := common.CameraHandle(s.handle())
	s.cameras[h] = &camera{Camera: c, version: s.tick()}
	if !s.hasCamera {
		s.activeCamera = h
		s.hasCamera = true
	}
	return h
}

func (s *scene) UpdateCamera(h common.CameraHandle, c Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cam, ok := s.cameras[h]
	if !ok {
		return fmt.Errorf("scene %s: no camera %d", s.name, h)
	}
	cam.Camera = c
	cam.version = s.tick()
	return nil
}

func (s *scene) SetActiveCamera(h common.CameraHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cameras[h]; !ok {
		return fmt.Errorf("scene %s: no camera %d", s.name, h)
	}
	s.activeCamera = h
	s.hasCamera = true
	return nil
}

func (s *scene) AddNode(m common.ModelHandle, transform common.Transform) (common.NodeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[m]; !ok {
		return 0, fmt.Errorf("scene %s: no model %d", s.name, m)
	}
	h := common.NodeHandle(s.handle())
	s.nodes[h] = &node{model: m, transform: transform, visible: true, version: s.tick()}
	return h, nil
}

func (s *scene) SetNodeMaterial(n common.NodeHandle, m common.MaterialHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd, ok := s.nodes[n]
	if !ok {
		return fmt.Errorf("scene %s: no node %d", s.name, n)
	}
	if _, ok := s.materials[m]; !ok {
		return fmt.Errorf("scene %s: no material %d", s.name, m)
	}
	nd.material = m
	nd.hasMat = true
	return nil
}

func (s *scene) SetTransform(n common.NodeHandle, transform common.Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd, ok := s.nodes[n]
	if !ok {
		return fmt.Errorf("scene %s: no node %d", s.name, n)
	}
	nd.transform = transform
	nd.version = s.tick()
	return nil
}

func (s *scene) SetVisible(n common.NodeHandle, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd, ok := s.nodes[n]
	if !ok {
		return fmt.Errorf("scene %s: no node %d", s.name, n)
	}
	nd.visible = visible
	return nil
}

func (s *scene) RemoveNode(n common.NodeHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, n)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *scene) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[common.NodeHandle]*node)
	s.models = make(map[common.ModelHandle]*model)
	s.materials = make(map[common.MaterialHandle]*material)
	s.cameras = make(map[common.CameraHandle]*camera)
	s.hasCamera = false
	s.activeCamera = 0
	s.generation++
}

func (s *scene) Snapshot() *Snapshot {
	snap, transforms := s.capture()

	// World matrices are independent per entity, so the work is split into chunks on the pool.
	// A WaitGroup is the per-snapshot barrier; the pool itself stays alive across frames.
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(snap.Entities); start += snapshotChunk {
		end := min(start+snapshotChunk, len(snap.Entities))
		wg.Add(1)
		id := taskID
		taskID++
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					snap.Entities[i].World = transforms[i].Matrix()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return snap
}

// capture copies everything a snapshot needs under the read lock so matrix work can run without it.
func (s *scene) capture() (*Snapshot, []common.Transform) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Generation: s.generation,
		Camera:     CameraView{Camera: DefaultCamera},
	}
	if cam, ok := s.cameras[s.activeCamera]; s.hasCamera && ok {
		snap.Camera = CameraView{Handle: s.activeCamera, Present: true, Camera: cam.Camera, Version: cam.version}
	}

	handles := make([]common.NodeHandle, 0, len(s.nodes))
	for h, nd := range s.nodes {
		if nd.visible {
			handles = append(handles, h)
		}
	}
	slices.Sort(handles)

	snap.Entities = make([]Entity, len(handles))
	transforms := make([]common.Transform, len(handles))
	for i, h := range handles {
		nd := s.nodes[h]
		m := s.models[nd.model]
		e := Entity{
			Node:            h,
			Model:           nd.model,
			Primitive:       m.primitive,
			GeometryVersion: m.version,
			Material:        FallbackMaterial,
			Version:         nd.version,
		}
		if mat, ok := s.materials[nd.material]; nd.hasMat && ok {
			e.Material = MaterialView{
				Handle:   nd.material,
				Present:  true,
				Pipeline: mat.Pipeline,
				Color:    mat.BaseColor,
				Version:  mat.version,
			}
		}
		snap.Entities[i] = e
		transforms[i] = nd.transform
	}
	return snap, transforms
}
