package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

func descriptorTypeToVulkan(dt metadata.DescriptorType) vk.DescriptorType {
	switch dt {
	case metadata.DescriptorTypeUniformBuffer:
		return vk.DescriptorTypeUniformBuffer
	case metadata.DescriptorTypeStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case metadata.DescriptorTypeSampler:
		return vk.DescriptorTypeSampler
	case metadata.DescriptorTypeSampledImage:
		return vk.DescriptorTypeCombinedImageSampler
	case metadata.DescriptorTypeStorageImage:
		return vk.DescriptorTypeStorageImage
	}
	return vk.DescriptorTypeUniformBuffer
}

func stageFlagsToVulkan(flags metadata.StageFlags) vk.ShaderStageFlags {
	var out vk.ShaderStageFlags
	if flags&metadata.StageFlagVertex != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if flags&metadata.StageFlagFragment != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	if flags&metadata.StageFlagGeometry != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageGeometryBit)
	}
	if flags&metadata.StageFlagCompute != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	}
	if flags&metadata.StageFlagTessellationControl != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageTessellationControlBit)
	}
	if flags&metadata.StageFlagTessellationEvaluation != 0 {
		out |= vk.ShaderStageFlags(vk.ShaderStageTessellationEvaluationBit)
	}
	return out
}

func createDescriptorSetLayout(context *VulkanContext, set layout.SetLayout) (vk.DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(set.Bindings))
	for i, b := range set.Bindings {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  descriptorTypeToVulkan(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      stageFlagsToVulkan(b.StageFlags),
		}
	}

	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var setLayout vk.DescriptorSetLayout
	if err := lockPool.SafeCall(DescriptorManagement, func() error {
		if res := vk.CreateDescriptorSetLayout(
			context.Device.LogicalDevice,
			&createInfo,
			context.Allocator,
			&setLayout); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return vk.NullDescriptorSetLayout, err
	}

	return setLayout, nil
}

func destroyDescriptorSetLayout(context *VulkanContext, setLayout vk.DescriptorSetLayout) {
	if setLayout == vk.NullDescriptorSetLayout {
		return
	}
	lockPool.SafeCall(DescriptorManagement, func() error {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, setLayout, context.Allocator)
		return nil
	})
}

// The pool is sized for exactly MaxSetAllocations sets, one pool size
// entry per binding. Sets are returned to the pool individually, which
// requires the free descriptor set flag.
func createDescriptorPool(context *VulkanContext, set layout.SetLayout) (vk.DescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, len(set.Bindings))
	for i, b := range set.Bindings {
		poolSizes[i] = vk.DescriptorPoolSize{
			Type:            descriptorTypeToVulkan(b.Type),
			DescriptorCount: b.Count * set.MaxSetAllocations,
		}
	}

	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       set.MaxSetAllocations,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if err := lockPool.SafeCall(DescriptorManagement, func() error {
		if res := vk.CreateDescriptorPool(
			context.Device.LogicalDevice,
			&createInfo,
			context.Allocator,
			&pool); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return vk.NullDescriptorPool, err
	}

	return pool, nil
}

func destroyDescriptorPool(context *VulkanContext, pool vk.DescriptorPool) {
	if pool == vk.NullDescriptorPool {
		return
	}
	lockPool.SafeCall(DescriptorManagement, func() error {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, pool, context.Allocator)
		return nil
	})
}

func allocateDescriptorSet(context *VulkanContext, pool vk.DescriptorPool, setLayout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{setLayout},
	}

	var set vk.DescriptorSet
	if err := lockPool.SafeCall(DescriptorManagement, func() error {
		if res := vk.AllocateDescriptorSets(
			context.Device.LogicalDevice,
			&allocInfo,
			&set); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return vk.NullDescriptorSet, err
	}

	return set, nil
}

func freeDescriptorSet(context *VulkanContext, pool vk.DescriptorPool, set vk.DescriptorSet) error {
	return lockPool.SafeCall(DescriptorManagement, func() error {
		if res := vk.FreeDescriptorSets(
			context.Device.LogicalDevice,
			pool,
			1,
			&set); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("vkFreeDescriptorSets failed with %s", VulkanResultString(res, true))
		}
		return nil
	})
}
