package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prisma/engine/renderer/layout"
)

/**
 * @brief A compiled, immutable pipeline. Holds the driver side objects
 * derived from one pipeline configuration and is safe to share by
 * reference across threads.
 */
type Pipeline struct {
	/** @brief Unique identity of this compiled pipeline instance. */
	ID uuid.UUID
	/** @brief The name of the source configuration. */
	Name string
	/** @brief The fingerprint the pipeline cache keyed this pipeline by. */
	Fingerprint Fingerprint
	/** @brief The derived layout plan the pipeline was built from. */
	Plan *layout.Plan

	backend        Backend
	setLayouts     []SetLayoutHandle
	pipelineLayout PipelineLayoutHandle
	handle         DriverPipelineHandle
}

// Handle returns the driver pipeline object for draw call recording.
func (p *Pipeline) Handle() DriverPipelineHandle {
	return p.handle
}

// NewSetAllocator creates a bounded descriptor set allocator for the
// set at the given binding index.
func (p *Pipeline) NewSetAllocator(setBinding uint32) (*SetAllocator, error) {
	sl, ok := p.Plan.SetLayoutFor(setBinding)
	if !ok {
		return nil, fmt.Errorf("pipeline %s has no descriptor set at binding %d", p.Name, setBinding)
	}

	var handle SetLayoutHandle
	for i := range p.Plan.SetLayouts {
		if p.Plan.SetLayouts[i].SetBinding == setBinding {
			handle = p.setLayouts[i]
		}
	}

	return newSetAllocator(p.backend, *sl, handle)
}

// Destroy releases every driver object owned by the pipeline. The
// caller must guarantee the GPU is no longer using it.
func (p *Pipeline) Destroy() {
	if p.handle != nil {
		p.backend.DestroyPipeline(p.handle)
		p.handle = nil
	}
	if p.pipelineLayout != nil {
		p.backend.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	for i, sl := range p.setLayouts {
		if sl != nil {
			p.backend.DestroyDescriptorSetLayout(sl)
			p.setLayouts[i] = nil
		}
	}
}
