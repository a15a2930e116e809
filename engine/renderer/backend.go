package renderer

import (
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

// Driver side object handles are opaque to the frontend. The backend is
// responsible for creation and destruction of the underlying objects.
type (
	ShaderModuleHandle   interface{}
	SetLayoutHandle      interface{}
	PipelineLayoutHandle interface{}
	DriverPipelineHandle interface{}
	DescriptorPoolHandle interface{}
	DriverSetHandle      interface{}
	RenderPassHandle     interface{}
)

/** @brief A shader stage module paired with its stage type. */
type StageModule struct {
	Type   metadata.StageType
	Module ShaderModuleHandle
}

/** @brief Everything the backend needs to create the final pipeline
object. The pipeline layout must already exist. */
type GraphicsPipelineInfo struct {
	Name           string
	VertexInput    layout.VertexInput
	Stages         []StageModule
	PipelineLayout PipelineLayoutHandle
	RenderPass     RenderPassHandle
}

// Backend is the driver facing surface of the pipeline compiler. The
// vulkan package provides the production implementation; tests use an
// in-memory fake.
type Backend interface {
	Initialize(appName string) error
	Shutdown() error

	CreateShaderModule(code []byte) (ShaderModuleHandle, error)
	DestroyShaderModule(module ShaderModuleHandle)

	CreateDescriptorSetLayout(set layout.SetLayout) (SetLayoutHandle, error)
	DestroyDescriptorSetLayout(setLayout SetLayoutHandle)

	CreatePipelineLayout(setLayouts []SetLayoutHandle, pushConstants []layout.PushConstantRange) (PipelineLayoutHandle, error)
	DestroyPipelineLayout(pipelineLayout PipelineLayoutHandle)

	CreateGraphicsPipeline(info *GraphicsPipelineInfo) (DriverPipelineHandle, error)
	DestroyPipeline(pipeline DriverPipelineHandle)

	CreateDescriptorPool(set layout.SetLayout) (DescriptorPoolHandle, error)
	DestroyDescriptorPool(pool DescriptorPoolHandle)

	AllocateDescriptorSet(pool DescriptorPoolHandle, setLayout SetLayoutHandle) (DriverSetHandle, error)
	FreeDescriptorSet(pool DescriptorPoolHandle, set DriverSetHandle) error
}
