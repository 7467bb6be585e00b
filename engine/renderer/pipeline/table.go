package pipeline

import (
	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
)

// Table is the contiguous set of pipelines a renderer draws with, indexed by a material's pipeline id.
type Table struct {
	pipelines []Pipeline
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{pipelines: make([]Pipeline, 0, kindCount)}
}

// NewDefaultTable compiles one pipeline per kind, registered in Kinds order so that a kind's pipeline id equals
// its Kind value. Pipeline id 0 is the default kind, which the fallback material uses.
//
// Parameters:
//   - device: the device to compile on
//   - options: options applied to every pipeline
//
// Returns:
//   - *Table: the populated table
//   - error: an error if any pipeline failed to compile; pipelines already built are released
func NewDefaultTable(device gpu.Device, options ...PipelineBuilderOption) (*Table, error) {
	t := NewTable()
	for _, kind := range Kinds {
		p, err := NewPipeline(device, kind, options...)
		if err != nil {
			t.Release()
			return nil, err
		}
		t.Register(p)
	}
	return t, nil
}

// Register appends p to the table and assigns its id.
//
// Parameters:
//   - p: the pipeline to add
//
// Returns:
//   - common.PipelineID: the id materials use to select p
func (t *Table) Register(p Pipeline) common.PipelineID {
	id := common.PipelineID(len(t.pipelines))
	if impl, ok := p.(*pipeline); ok {
		impl.id = id
	}
	t.pipelines = append(t.pipelines, p)
	return id
}

// Get returns the pipeline for id. An unknown id is an integration error and panics.
//
// Parameters:
//   - id: the pipeline id
//
// Returns:
//   - Pipeline: the pipeline
func (t *Table) Get(id common.PipelineID) Pipeline {
	gpu.Assert(int(id) < len(t.pipelines), "pipeline id %d not in table of %d", id, len(t.pipelines))
	return t.pipelines[id]
}

func (t *Table) Len() int {
	return len(t.pipelines)
}

// Release releases every pipeline. The device must be idle.
func (t *Table) Release() {
	for _, p := range t.pipelines {
		p.Release()
	}
	t.pipelines = nil
}
