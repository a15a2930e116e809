package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

/** @brief A single subpass, color only render pass. */
type VulkanRenderpass struct {
	Handle vk.RenderPass
}

// RenderpassCreate builds the color only render pass pipelines are
// compiled against. Compilation only needs attachment compatibility,
// so a fixed format is enough.
func RenderpassCreate(context *VulkanContext) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{}

	// Main subpass
	colorAttachmentReference := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorAttachmentReference},
	}
	subpass.Deref()

	// Color attachment
	colorAttachment := vk.AttachmentDescription{
		Format:         vk.FormatB8g8r8a8Unorm,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		Flags:          0,
	}
	colorAttachment.Deref()

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}
	createInfo.Deref()

	if err := lockPool.SafeCall(RenderpassManagement, func() error {
		if res := vk.CreateRenderPass(
			context.Device.LogicalDevice,
			&createInfo,
			context.Allocator,
			&outRenderpass.Handle); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("vkCreateRenderPass failed with %s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return outRenderpass, nil
}

func RenderpassDestroy(context *VulkanContext, renderpass *VulkanRenderpass) {
	if renderpass == nil || renderpass.Handle == vk.NullRenderPass {
		return
	}
	lockPool.SafeCall(RenderpassManagement, func() error {
		vk.DestroyRenderPass(context.Device.LogicalDevice, renderpass.Handle, context.Allocator)
		renderpass.Handle = vk.NullRenderPass
		return nil
	})
}
