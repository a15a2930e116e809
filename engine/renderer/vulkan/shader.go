package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
)

func createShaderModule(context *VulkanContext, code []byte) (vk.ShaderModule, error) {
	words, err := spirvWords(code)
	if err != nil {
		return vk.NullShaderModule, err
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}

	var module vk.ShaderModule
	if err := lockPool.SafeCall(ShaderManagement, func() error {
		if res := vk.CreateShaderModule(
			context.Device.LogicalDevice,
			&createInfo,
			context.Allocator,
			&module); !VulkanResultIsSuccess(res) {
			return fmt.Errorf("vkCreateShaderModule failed with %s", VulkanResultString(res, true))
		}
		return nil
	}); err != nil {
		return vk.NullShaderModule, err
	}

	return module, nil
}

func destroyShaderModule(context *VulkanContext, module vk.ShaderModule) {
	if module == vk.NullShaderModule {
		return
	}
	lockPool.SafeCall(ShaderManagement, func() error {
		vk.DestroyShaderModule(context.Device.LogicalDevice, module, context.Allocator)
		return nil
	})
}

// SPIR-V is a stream of little endian 32 bit words.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader binary size %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}
