package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/prisma/engine/core"
	"github.com/spaghettifunk/prisma/engine/platform"
	"github.com/spaghettifunk/prisma/engine/renderer"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
)

var lockPool = NewVulkanLockPool()

// VulkanBackend is the production implementation of the driver facing
// surface. All object creation goes through the lock pool so the
// frontend may compile pipelines from multiple goroutines.
type VulkanBackend struct {
	platform *platform.Platform
	context  *VulkanContext
	debug    bool

	mainRenderpass *VulkanRenderpass
}

func New(p *platform.Platform, debug bool) *VulkanBackend {
	return &VulkanBackend{
		platform: p,
		context: &VulkanContext{
			Device: &VulkanDevice{
				GraphicsQueueIndex: -1,
			},
		},
		debug: debug,
	}
}

func (vb *VulkanBackend) Initialize(appName string) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		core.LogFatal("GetInstanceProcAddress is nil")
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogFatal("failed to initialize vk: %s", err)
		return err
	}

	// TODO: custom allocator.
	vb.context.Allocator = nil

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString(VULKAN_ENGINE_NAME),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	required_extensions := []string{"VK_KHR_surface"} // Generic surface extension
	en := vb.platform.RequiredInstanceExtensions()
	required_extensions = append(required_extensions, en...)

	if runtime.GOOS == "darwin" {
		required_extensions = append(required_extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	if vb.debug {
		required_extensions = append(required_extensions, vk.ExtDebugUtilsExtensionName, vk.ExtDebugReportExtensionName) // debug utilities
		core.LogInfo("Required extensions:")
		for i := 0; i < len(required_extensions); i++ {
			core.LogInfo(required_extensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(required_extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(required_extensions)

	// Validation layers.
	required_validation_layer_names := []string{}

	// Validation layers should only be enabled on non-release builds.
	if vb.debug {
		core.LogInfo("Validation layers enabled. Enumerating...")

		// The list of validation layers required.
		required_validation_layer_names = []string{"VK_LAYER_KHRONOS_validation"}

		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}

		// Obtain a list of available validation layers
		var available_layer_count uint32
		if res := vk.EnumerateInstanceLayerProperties(&available_layer_count, nil); res != vk.Success {
			return fmt.Errorf("failed to enumerate instance layer properties")
		}

		available_layers := make([]vk.LayerProperties, available_layer_count)
		if res := vk.EnumerateInstanceLayerProperties(&available_layer_count, available_layers); res != vk.Success {
			return fmt.Errorf("failed to enumerate instance layer properties")
		}

		// Verify all required layers are available.
		for i := range required_validation_layer_names {
			core.LogInfo("Searching for layer: %s...", required_validation_layer_names[i])
			found := false
			for j := range available_layers {
				available_layers[j].Deref()
				end := FindFirstZeroInByteArray(available_layers[j].LayerName[:])
				if required_validation_layer_names[i] == vk.ToString(available_layers[j].LayerName[:end+1]) {
					found = true
					core.LogInfo("Found.")
					break
				}
			}

			if !found {
				err := fmt.Errorf("required validation layer is missing: %s", required_validation_layer_names[i])
				core.LogFatal(err.Error())
				return err
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(required_validation_layer_names))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(required_validation_layer_names)

	if res := vk.CreateInstance(&createInfo, vb.context.Allocator, &vb.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vb.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan Instance created.")

	// Debugger
	if vb.debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
			PNext:       nil,
		}

		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vb.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return err
		}
		vb.context.debugMessenger = dbg

		core.LogDebug("Vulkan debugger created.")
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vb.platform.Window.CreateWindowSurface(vb.context.Instance, nil)
	if err != nil {
		core.LogError("Failed to create platform surface!")
		return err
	}
	vb.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	// Device creation
	if err := DeviceCreate(vb.context); err != nil {
		core.LogError("Failed to create device!")
		return err
	}

	// Render pass
	vb.mainRenderpass, err = RenderpassCreate(vb.context)
	if err != nil {
		core.LogError("Failed to create render pass!")
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vb *VulkanBackend) Shutdown() error {
	if vb.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vb.context.Device.LogicalDevice)
	}

	RenderpassDestroy(vb.context, vb.mainRenderpass)
	vb.mainRenderpass = nil

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vb.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vb.context.Surface != vk.NullSurface {
		vk.DestroySurface(vb.context.Instance, vb.context.Surface, vb.context.Allocator)
		vb.context.Surface = vk.NullSurface
	}

	if vb.debug {
		core.LogDebug("Destroying Vulkan debugger...")
		if vb.context.debugMessenger != vk.NullDebugReportCallback {
			vk.DestroyDebugReportCallback(vb.context.Instance, vb.context.debugMessenger, vb.context.Allocator)
		}
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vb.context.Instance, vb.context.Allocator)

	return nil
}

// MainRenderPass returns the handle for the default color only render
// pass created at initialization.
func (vb *VulkanBackend) MainRenderPass() renderer.RenderPassHandle {
	return vb.mainRenderpass.Handle
}

func (vb *VulkanBackend) CreateShaderModule(code []byte) (renderer.ShaderModuleHandle, error) {
	return createShaderModule(vb.context, code)
}

func (vb *VulkanBackend) DestroyShaderModule(module renderer.ShaderModuleHandle) {
	if m, ok := module.(vk.ShaderModule); ok {
		destroyShaderModule(vb.context, m)
	}
}

func (vb *VulkanBackend) CreateDescriptorSetLayout(set layout.SetLayout) (renderer.SetLayoutHandle, error) {
	return createDescriptorSetLayout(vb.context, set)
}

func (vb *VulkanBackend) DestroyDescriptorSetLayout(setLayout renderer.SetLayoutHandle) {
	if sl, ok := setLayout.(vk.DescriptorSetLayout); ok {
		destroyDescriptorSetLayout(vb.context, sl)
	}
}

func (vb *VulkanBackend) CreatePipelineLayout(setLayouts []renderer.SetLayoutHandle, pushConstants []layout.PushConstantRange) (renderer.PipelineLayoutHandle, error) {
	layouts := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, sl := range setLayouts {
		l, ok := sl.(vk.DescriptorSetLayout)
		if !ok {
			return nil, fmt.Errorf("set layout handle %d is not a vulkan descriptor set layout", i)
		}
		layouts[i] = l
	}
	return createPipelineLayout(vb.context, layouts, pushConstants)
}

func (vb *VulkanBackend) DestroyPipelineLayout(pipelineLayout renderer.PipelineLayoutHandle) {
	if pl, ok := pipelineLayout.(vk.PipelineLayout); ok {
		destroyPipelineLayout(vb.context, pl)
	}
}

func (vb *VulkanBackend) CreateGraphicsPipeline(info *renderer.GraphicsPipelineInfo) (renderer.DriverPipelineHandle, error) {
	attributes, err := vertexAttributeDescriptions(info.VertexInput)
	if err != nil {
		return nil, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, stage := range info.Stages {
		module, ok := stage.Module.(vk.ShaderModule)
		if !ok {
			return nil, fmt.Errorf("stage %s module is not a vulkan shader module", stage.Type.String())
		}
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stageTypeToVulkan(stage.Type),
			Module: module,
			PName:  VulkanSafeString(VULKAN_SHADER_ENTRY_POINT),
		}
		stages[i].Deref()
	}

	pipelineLayout, ok := info.PipelineLayout.(vk.PipelineLayout)
	if !ok {
		return nil, fmt.Errorf("pipeline layout handle is not a vulkan pipeline layout")
	}
	renderPass, ok := info.RenderPass.(vk.RenderPass)
	if !ok {
		return nil, fmt.Errorf("render pass handle is not a vulkan render pass")
	}

	return createGraphicsPipeline(vb.context, &VulkanPipelineConfig{
		Renderpass:     renderPass,
		Stride:         info.VertexInput.Stride,
		Attributes:     attributes,
		PipelineLayout: pipelineLayout,
		Stages:         stages,
	})
}

func (vb *VulkanBackend) DestroyPipeline(pipeline renderer.DriverPipelineHandle) {
	if p, ok := pipeline.(vk.Pipeline); ok {
		destroyPipeline(vb.context, p)
	}
}

func (vb *VulkanBackend) CreateDescriptorPool(set layout.SetLayout) (renderer.DescriptorPoolHandle, error) {
	return createDescriptorPool(vb.context, set)
}

func (vb *VulkanBackend) DestroyDescriptorPool(pool renderer.DescriptorPoolHandle) {
	if p, ok := pool.(vk.DescriptorPool); ok {
		destroyDescriptorPool(vb.context, p)
	}
}

func (vb *VulkanBackend) AllocateDescriptorSet(pool renderer.DescriptorPoolHandle, setLayout renderer.SetLayoutHandle) (renderer.DriverSetHandle, error) {
	p, ok := pool.(vk.DescriptorPool)
	if !ok {
		return nil, fmt.Errorf("pool handle is not a vulkan descriptor pool")
	}
	sl, ok := setLayout.(vk.DescriptorSetLayout)
	if !ok {
		return nil, fmt.Errorf("set layout handle is not a vulkan descriptor set layout")
	}
	return allocateDescriptorSet(vb.context, p, sl)
}

func (vb *VulkanBackend) FreeDescriptorSet(pool renderer.DescriptorPoolHandle, set renderer.DriverSetHandle) error {
	p, ok := pool.(vk.DescriptorPool)
	if !ok {
		return fmt.Errorf("pool handle is not a vulkan descriptor pool")
	}
	s, ok := set.(vk.DescriptorSet)
	if !ok {
		return fmt.Errorf("set handle is not a vulkan descriptor set")
	}
	return freeDescriptorSet(vb.context, p, s)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogInfo("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
