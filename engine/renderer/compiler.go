package renderer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prisma/engine/core"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

type CompileErrorKind int

const (
	// CompileErrorMissingStageBinary indicates a stage file had no
	// resolved binary in the supplied mapping.
	CompileErrorMissingStageBinary CompileErrorKind = iota
	// CompileErrorUnresolvedRenderPass indicates the referenced render
	// pass name is not registered.
	CompileErrorUnresolvedRenderPass
	// CompileErrorDriverRejected indicates the GPU driver refused one of
	// the object creation calls. The driver message is preserved.
	CompileErrorDriverRejected
)

// CompileError reports a pipeline compilation failure.
type CompileError struct {
	Kind     CompileErrorKind
	Pipeline string
	Detail   string
	Cause    error
}

func (e *CompileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compile pipeline %q: %s: %v", e.Pipeline, e.Detail, e.Cause)
	}
	return fmt.Sprintf("compile pipeline %q: %s", e.Pipeline, e.Detail)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

/**
 * @brief Turns a validated configuration plus its derived layout plan
 * into driver side objects.
 *
 * Stage binaries are supplied externally as a mapping from stage file
 * path to SPIR-V bytes; this component never compiles shader source.
 */
type Compiler struct {
	backend Backend
	passes  *RenderPassRegistry
}

func NewCompiler(backend Backend, passes *RenderPassRegistry) *Compiler {
	return &Compiler{
		backend: backend,
		passes:  passes,
	}
}

// Compile creates the pipeline object for the given configuration.
//
// Driver objects are created in dependency order: shader modules,
// descriptor set layouts, pipeline layout, then the pipeline itself.
// On any failure every object created so far is destroyed, so a failed
// compilation never leaks partial GPU state.
func (c *Compiler) Compile(pc *metadata.PipelineConfig, plan *layout.Plan, binaries map[string][]byte) (*Pipeline, error) {
	pass, err := c.passes.Lookup(pc.RenderPassName)
	if err != nil {
		return nil, &CompileError{
			Kind:     CompileErrorUnresolvedRenderPass,
			Pipeline: pc.Name,
			Detail:   fmt.Sprintf("render pass %q is not registered", pc.RenderPassName),
			Cause:    err,
		}
	}

	for _, stage := range pc.Stages {
		if _, ok := binaries[stage.FileName]; !ok {
			return nil, &CompileError{
				Kind:     CompileErrorMissingStageBinary,
				Pipeline: pc.Name,
				Detail:   fmt.Sprintf("no binary resolved for stage file %q", stage.FileName),
			}
		}
	}

	// Shader modules live only for the duration of pipeline creation.
	stages := make([]StageModule, 0, len(pc.Stages))
	destroyModules := func() {
		for _, sm := range stages {
			c.backend.DestroyShaderModule(sm.Module)
		}
	}
	for _, stage := range pc.Stages {
		module, err := c.backend.CreateShaderModule(binaries[stage.FileName])
		if err != nil {
			destroyModules()
			return nil, &CompileError{
				Kind:     CompileErrorDriverRejected,
				Pipeline: pc.Name,
				Detail:   fmt.Sprintf("shader module creation failed for %q", stage.FileName),
				Cause:    err,
			}
		}
		stages = append(stages, StageModule{Type: stage.Type, Module: module})
	}

	pipeline := &Pipeline{
		ID:      uuid.New(),
		Name:    pc.Name,
		Plan:    plan,
		backend: c.backend,
	}

	// Set layouts must exist before the pipeline layout, which must
	// exist before the pipeline object.
	for _, sl := range plan.SetLayouts {
		handle, err := c.backend.CreateDescriptorSetLayout(sl)
		if err != nil {
			destroyModules()
			pipeline.Destroy()
			return nil, &CompileError{
				Kind:     CompileErrorDriverRejected,
				Pipeline: pc.Name,
				Detail:   fmt.Sprintf("descriptor set layout creation failed for set %d", sl.SetBinding),
				Cause:    err,
			}
		}
		pipeline.setLayouts = append(pipeline.setLayouts, handle)
	}

	pipelineLayout, err := c.backend.CreatePipelineLayout(pipeline.setLayouts, plan.PushConstants)
	if err != nil {
		destroyModules()
		pipeline.Destroy()
		return nil, &CompileError{
			Kind:     CompileErrorDriverRejected,
			Pipeline: pc.Name,
			Detail:   "pipeline layout creation failed",
			Cause:    err,
		}
	}
	pipeline.pipelineLayout = pipelineLayout

	handle, err := c.backend.CreateGraphicsPipeline(&GraphicsPipelineInfo{
		Name:           pc.Name,
		VertexInput:    plan.VertexInput,
		Stages:         stages,
		PipelineLayout: pipelineLayout,
		RenderPass:     pass.Handle,
	})
	// Modules are no longer needed once the pipeline exists (or failed).
	destroyModules()
	if err != nil {
		pipeline.Destroy()
		return nil, &CompileError{
			Kind:     CompileErrorDriverRejected,
			Pipeline: pc.Name,
			Detail:   "graphics pipeline creation failed",
			Cause:    err,
		}
	}
	pipeline.handle = handle

	core.LogDebug("pipeline %q compiled", pc.Name)
	return pipeline, nil
}
