package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

// fakeBackend is an in-memory driver. Handles are unique integers so
// tests can assert identity and pair every create with its destroy.
type fakeBackend struct {
	mu     sync.Mutex
	nextID int

	shaderModules     map[int]bool
	setLayouts        map[int]bool
	pipelineLayouts   map[int]bool
	pipelines         map[int]bool
	pools             map[int]bool
	sets              map[int]bool
	compileCalls      atomic.Int64
	failShaderModule  bool
	failPipeline      bool
	failSetAllocation bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		shaderModules:   map[int]bool{},
		setLayouts:      map[int]bool{},
		pipelineLayouts: map[int]bool{},
		pipelines:       map[int]bool{},
		pools:           map[int]bool{},
		sets:            map[int]bool{},
	}
}

func (b *fakeBackend) handle() int {
	b.nextID++
	return b.nextID
}

func (b *fakeBackend) Initialize(appName string) error { return nil }
func (b *fakeBackend) Shutdown() error                 { return nil }

func (b *fakeBackend) CreateShaderModule(code []byte) (ShaderModuleHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failShaderModule {
		return nil, fmt.Errorf("driver rejected shader module")
	}
	h := b.handle()
	b.shaderModules[h] = true
	return h, nil
}

func (b *fakeBackend) DestroyShaderModule(module ShaderModuleHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.shaderModules, module.(int))
}

func (b *fakeBackend) CreateDescriptorSetLayout(set layout.SetLayout) (SetLayoutHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.handle()
	b.setLayouts[h] = true
	return h, nil
}

func (b *fakeBackend) DestroyDescriptorSetLayout(setLayout SetLayoutHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.setLayouts, setLayout.(int))
}

func (b *fakeBackend) CreatePipelineLayout(setLayouts []SetLayoutHandle, pushConstants []layout.PushConstantRange) (PipelineLayoutHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sl := range setLayouts {
		if !b.setLayouts[sl.(int)] {
			return nil, fmt.Errorf("pipeline layout references unknown set layout %v", sl)
		}
	}
	h := b.handle()
	b.pipelineLayouts[h] = true
	return h, nil
}

func (b *fakeBackend) DestroyPipelineLayout(pipelineLayout PipelineLayoutHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pipelineLayouts, pipelineLayout.(int))
}

func (b *fakeBackend) CreateGraphicsPipeline(info *GraphicsPipelineInfo) (DriverPipelineHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.compileCalls.Add(1)
	if b.failPipeline {
		return nil, fmt.Errorf("driver rejected pipeline %s", info.Name)
	}
	if !b.pipelineLayouts[info.PipelineLayout.(int)] {
		return nil, fmt.Errorf("pipeline references unknown layout %v", info.PipelineLayout)
	}
	for _, sm := range info.Stages {
		if !b.shaderModules[sm.Module.(int)] {
			return nil, fmt.Errorf("pipeline references destroyed module %v", sm.Module)
		}
	}
	h := b.handle()
	b.pipelines[h] = true
	return h, nil
}

func (b *fakeBackend) DestroyPipeline(pipeline DriverPipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pipelines, pipeline.(int))
}

func (b *fakeBackend) CreateDescriptorPool(set layout.SetLayout) (DescriptorPoolHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.handle()
	b.pools[h] = true
	return h, nil
}

func (b *fakeBackend) DestroyDescriptorPool(pool DescriptorPoolHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pools, pool.(int))
}

func (b *fakeBackend) AllocateDescriptorSet(pool DescriptorPoolHandle, setLayout SetLayoutHandle) (DriverSetHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSetAllocation {
		return nil, fmt.Errorf("driver out of pool memory")
	}
	if !b.pools[pool.(int)] {
		return nil, fmt.Errorf("allocation from unknown pool %v", pool)
	}
	h := b.handle()
	b.sets[h] = true
	return h, nil
}

func (b *fakeBackend) FreeDescriptorSet(pool DescriptorPoolHandle, set DriverSetHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sets[set.(int)] {
		return fmt.Errorf("freeing unknown set %v", set)
	}
	delete(b.sets, set.(int))
	return nil
}

func (b *fakeBackend) liveObjects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.shaderModules) + len(b.setLayouts) + len(b.pipelineLayouts) + len(b.pipelines) + len(b.pools) + len(b.sets)
}

// testPipelineConfig returns a valid configuration mirroring the
// example world descriptor: three attributes, two descriptor sets and
// a single mat4 push constant.
func testPipelineConfig() *metadata.PipelineConfig {
	return &metadata.PipelineConfig{
		Name:           "world",
		RenderPassName: "world",
		Stages: []*metadata.StageConfig{
			{Type: metadata.StageTypeVertex, FileName: "shaders/world.vert.spv"},
			{Type: metadata.StageTypeFragment, FileName: "shaders/world.frag.spv"},
		},
		Attributes: []*metadata.AttributeConfig{
			{Name: "in_position", Type: metadata.ShaderTypeFloat32_3},
			{Name: "in_texcoord", Type: metadata.ShaderTypeFloat32_2},
			{Name: "in_normal", Type: metadata.ShaderTypeFloat32_3},
		},
		DescriptorSets: []*metadata.DescriptorSetConfig{
			{
				SetBinding:        0,
				MaxSetAllocations: 3,
				Descriptors: []*metadata.DescriptorConfig{
					{
						Type: metadata.DescriptorTypeUniformBuffer,
						Name: "global_ubo",
						Fields: []*metadata.BufferFieldConfig{
							{Name: "view", Type: metadata.ShaderTypeMatrix4},
							{Name: "projection", Type: metadata.ShaderTypeMatrix4},
						},
					},
				},
			},
			{
				SetBinding:        1,
				MaxSetAllocations: 4,
				Descriptors: []*metadata.DescriptorConfig{
					{
						Type: metadata.DescriptorTypeUniformBuffer,
						Name: "material_ubo",
						Fields: []*metadata.BufferFieldConfig{
							{Name: "diffuse_color", Type: metadata.ShaderTypeFloat32_4},
						},
					},
					{Type: metadata.DescriptorTypeSampledImage, Name: "diffuse_texture"},
				},
			},
		},
		PushConstants: []*metadata.PushConstantConfig{
			{Name: "model", Type: metadata.ShaderTypeMatrix4},
		},
	}
}

func testBinaries() map[string][]byte {
	return map[string][]byte{
		"shaders/world.vert.spv": {0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0},
		"shaders/world.frag.spv": {0x03, 0x02, 0x23, 0x07, 2, 0, 0, 0},
	}
}
