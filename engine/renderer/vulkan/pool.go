package vulkan

import "sync"

type LockGroup string

const (
	DescriptorManagement LockGroup = "descriptor_management"
	DeviceManagement     LockGroup = "device_management"
	InstanceManagement   LockGroup = "instance_management"
	PipelineManagement   LockGroup = "pipeline_management"
	RenderpassManagement LockGroup = "renderpass_management"
	ShaderManagement     LockGroup = "shader_management"
)

// Mutex pool serializing driver calls per object family.
type VulkanLockPool struct {
	locks map[LockGroup]*sync.Mutex
	mu    sync.Mutex // Protects access to the locks map
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks: make(map[LockGroup]*sync.Mutex),
	}
}

// Get or create a mutex for a specific group
func (vs *VulkanLockPool) setLock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	// Create a new mutex if it doesn't exist
	if _, exists := vs.locks[group]; !exists {
		vs.locks[group] = &sync.Mutex{}
	}
	vs.locks[group].Lock()

	return vs.locks[group]
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.setLock(group)
	defer l.Unlock()

	return fn()
}
