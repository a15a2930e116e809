package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prisma/engine/core"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

/**
 * @brief Everything the driver needs to build a graphics pipeline.
 * The layout and the render pass must already exist.
 */
type VulkanPipelineConfig struct {
	/** @brief The render pass to associate with the pipeline. */
	Renderpass vk.RenderPass
	/** @brief The stride of the vertex data. */
	Stride uint32
	/** @brief An array of attributes. */
	Attributes []vk.VertexInputAttributeDescription
	/** @brief The already created pipeline layout. */
	PipelineLayout vk.PipelineLayout
	/** @brief An array of stages. */
	Stages []vk.PipelineShaderStageCreateInfo
}

func vertexFormatToVulkan(st metadata.ShaderType) (vk.Format, error) {
	switch st {
	case metadata.ShaderTypeFloat32:
		return vk.FormatR32Sfloat, nil
	case metadata.ShaderTypeFloat32_2:
		return vk.FormatR32g32Sfloat, nil
	case metadata.ShaderTypeFloat32_3:
		return vk.FormatR32g32b32Sfloat, nil
	case metadata.ShaderTypeFloat32_4:
		return vk.FormatR32g32b32a32Sfloat, nil
	case metadata.ShaderTypeInt8:
		return vk.FormatR8Sint, nil
	case metadata.ShaderTypeUint8:
		return vk.FormatR8Uint, nil
	case metadata.ShaderTypeInt16:
		return vk.FormatR16Sint, nil
	case metadata.ShaderTypeUint16:
		return vk.FormatR16Uint, nil
	case metadata.ShaderTypeInt32:
		return vk.FormatR32Sint, nil
	case metadata.ShaderTypeUint32:
		return vk.FormatR32Uint, nil
	}
	return vk.FormatUndefined, fmt.Errorf("shader type %s has no vertex input format", st.String())
}

func stageTypeToVulkan(st metadata.StageType) vk.ShaderStageFlagBits {
	switch st {
	case metadata.StageTypeVertex:
		return vk.ShaderStageVertexBit
	case metadata.StageTypeFragment:
		return vk.ShaderStageFragmentBit
	case metadata.StageTypeGeometry:
		return vk.ShaderStageGeometryBit
	case metadata.StageTypeCompute:
		return vk.ShaderStageComputeBit
	case metadata.StageTypeTessellationControl:
		return vk.ShaderStageTessellationControlBit
	case metadata.StageTypeTessellationEvaluation:
		return vk.ShaderStageTessellationEvaluationBit
	}
	return vk.ShaderStageVertexBit
}

func vertexAttributeDescriptions(input layout.VertexInput) ([]vk.VertexInputAttributeDescription, error) {
	attributes := make([]vk.VertexInputAttributeDescription, len(input.Attributes))
	for i, attr := range input.Attributes {
		format, err := vertexFormatToVulkan(attr.Type)
		if err != nil {
			return nil, err
		}
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: attr.Location,
			Binding:  0,
			Format:   format,
			Offset:   attr.Offset,
		}
	}
	return attributes, nil
}

func createPipelineLayout(context *VulkanContext, setLayouts []vk.DescriptorSetLayout, pushConstants []layout.PushConstantRange) (vk.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: 0,
		PPushConstantRanges:    nil,
	}

	if len(pushConstants) > 0 {
		ranges := make([]vk.PushConstantRange, len(pushConstants))
		for i, pc := range pushConstants {
			ranges[i] = vk.PushConstantRange{
				StageFlags: stageFlagsToVulkan(pc.StageFlags),
				Offset:     pc.Offset,
				Size:       pc.Size,
			}
			ranges[i].Deref()
		}
		pipelineLayoutCreateInfo.PushConstantRangeCount = uint32(len(ranges))
		pipelineLayoutCreateInfo.PPushConstantRanges = ranges
	}
	pipelineLayoutCreateInfo.Deref()

	var pipelineLayout vk.PipelineLayout
	if err := lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreatePipelineLayout(
			context.Device.LogicalDevice,
			&pipelineLayoutCreateInfo,
			context.Allocator,
			&pipelineLayout)
		if !VulkanResultIsSuccess(result) {
			return fmt.Errorf("vkCreatePipelineLayout failed with %s", VulkanResultString(result, true))
		}
		return nil
	}); err != nil {
		return vk.NullPipelineLayout, err
	}

	return pipelineLayout, nil
}

func destroyPipelineLayout(context *VulkanContext, pipelineLayout vk.PipelineLayout) {
	if pipelineLayout == vk.NullPipelineLayout {
		return
	}
	lockPool.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipelineLayout, context.Allocator)
		return nil
	})
}

func createGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (vk.Pipeline, error) {
	// Viewport and scissor are dynamic, the counts still have to be set.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	viewportState.Deref()

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		DepthBiasConstantFactor: 0.0,
		DepthBiasClamp:          0.0,
		DepthBiasSlopeFactor:    0.0,
	}
	rasterizerCreateInfo.Deref()

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		PSampleMask:           nil,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}
	multisamplingCreateInfo.Deref()

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	depthStencil.Deref()

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorSrcAlpha,
		DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	colorBlendAttachmentState.Deref()

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}
	colorBlendStateCreateInfo.Deref()

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
		vk.DynamicStateLineWidth,
	}

	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}
	dynamicStateCreateInfo.Deref()

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    config.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	bindingDescription.Deref()

	// Attributes
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}
	vertexInputInfo.Deref()

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}
	inputAssembly.Deref()

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		PTessellationState:  nil,
		Layout:              config.PipelineLayout,
		RenderPass:          config.Renderpass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	pipelineCreateInfo.Deref()

	pPipelines := make([]vk.Pipeline, 1)

	if err := lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreateGraphicsPipelines(
			context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pPipelines)

		if !VulkanResultIsSuccess(result) {
			return fmt.Errorf("vkCreateGraphicsPipelines failed with %s", VulkanResultString(result, true))
		}
		return nil
	}); err != nil {
		return vk.NullPipeline, err
	}

	if len(pPipelines) <= 0 || pPipelines[0] == vk.NullPipeline {
		return vk.NullPipeline, fmt.Errorf("vulkan pipeline handle is nil")
	}

	core.LogDebug("Graphics pipeline created!")
	return pPipelines[0], nil
}

func destroyPipeline(context *VulkanContext, pipeline vk.Pipeline) {
	if pipeline == vk.NullPipeline {
		return
	}
	lockPool.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipeline(context.Device.LogicalDevice, pipeline, context.Allocator)
		return nil
	})
}
