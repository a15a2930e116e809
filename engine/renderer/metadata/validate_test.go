package metadata

import (
	"strings"
	"testing"

	"github.com/spaghettifunk/prisma/engine/config"
)

func validConfig() *PipelineConfig {
	return &PipelineConfig{
		Name:           "world",
		RenderPassName: "world",
		Stages: []*StageConfig{
			{Type: StageTypeVertex, FileName: "shaders/world.vert.spv"},
			{Type: StageTypeFragment, FileName: "shaders/world.frag.spv"},
		},
		Attributes: []*AttributeConfig{
			{Name: "in_position", Type: ShaderTypeFloat32_3},
			{Name: "in_texcoord", Type: ShaderTypeFloat32_2},
		},
		DescriptorSets: []*DescriptorSetConfig{
			{
				SetBinding:        0,
				MaxSetAllocations: 3,
				Descriptors: []*DescriptorConfig{
					{
						Type: DescriptorTypeUniformBuffer,
						Name: "global_ubo",
						Fields: []*BufferFieldConfig{
							{Name: "view", Type: ShaderTypeMatrix4},
							{Name: "projection", Type: ShaderTypeMatrix4},
						},
					},
				},
			},
		},
		PushConstants: []*PushConstantConfig{
			{Name: "model", Type: ShaderTypeMatrix4},
		},
	}
}

func hasErrorAt(errs ValidationErrors, path string) bool {
	for _, e := range errs {
		if e.Path == path {
			return true
		}
	}
	return false
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if errs := Validate(validConfig(), config.DefaultLimits()); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	pc := validConfig()
	limits := config.DefaultLimits()
	if errs := Validate(pc, limits); errs != nil {
		t.Fatalf("first validation failed: %v", errs)
	}
	if errs := Validate(pc, limits); errs != nil {
		t.Fatalf("re-validating a valid configuration reported: %v", errs)
	}
}

func TestValidateStageRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
		path   string
	}{
		{
			name:   "no stages",
			mutate: func(pc *PipelineConfig) { pc.Stages = nil },
			path:   "stages",
		},
		{
			name: "duplicate stage type",
			mutate: func(pc *PipelineConfig) {
				pc.Stages = append(pc.Stages, &StageConfig{Type: StageTypeVertex, FileName: "other.spv"})
			},
			path: "stages[2].stage_type",
		},
		{
			name:   "missing fragment stage",
			mutate: func(pc *PipelineConfig) { pc.Stages = pc.Stages[:1] },
			path:   "stages",
		},
		{
			name:   "empty stage file",
			mutate: func(pc *PipelineConfig) { pc.Stages[0].FileName = "" },
			path:   "stages[0].stage_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := validConfig()
			tt.mutate(pc)
			errs := Validate(pc, config.DefaultLimits())
			if !hasErrorAt(errs, tt.path) {
				t.Errorf("expected an error at %s, got %v", tt.path, errs)
			}
		})
	}
}

func TestValidateComputePipelineNeedsNoFragment(t *testing.T) {
	pc := validConfig()
	pc.Stages = []*StageConfig{{Type: StageTypeCompute, FileName: "shaders/cull.comp.spv"}}
	pc.Attributes = nil
	if errs := Validate(pc, config.DefaultLimits()); errs != nil {
		t.Fatalf("compute pipeline must not require vertex/fragment stages, got %v", errs)
	}
}

func TestValidateAttributeRules(t *testing.T) {
	pc := validConfig()
	pc.Attributes = append(pc.Attributes, &AttributeConfig{Name: "in_position", Type: ShaderTypeFloat32_3})
	errs := Validate(pc, config.DefaultLimits())
	if !hasErrorAt(errs, "attributes[2].name") {
		t.Errorf("expected a duplicate name error, got %v", errs)
	}

	pc = validConfig()
	limits := config.DefaultLimits()
	limits.MaxVertexAttributes = 1
	errs = Validate(pc, limits)
	if !hasErrorAt(errs, "attributes") {
		t.Errorf("expected an attribute count error, got %v", errs)
	}
}

func TestValidateDescriptorSetRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineConfig)
		path   string
	}{
		{
			name: "duplicate set binding",
			mutate: func(pc *PipelineConfig) {
				dup := *pc.DescriptorSets[0]
				pc.DescriptorSets = append(pc.DescriptorSets, &dup)
			},
			path: "descriptor_sets[1].set_binding",
		},
		{
			name:   "set binding beyond device limit",
			mutate: func(pc *PipelineConfig) { pc.DescriptorSets[0].SetBinding = 4 },
			path:   "descriptor_sets[0].set_binding",
		},
		{
			name:   "zero max set allocations",
			mutate: func(pc *PipelineConfig) { pc.DescriptorSets[0].MaxSetAllocations = 0 },
			path:   "descriptor_sets[0].max_set_allocations",
		},
		{
			name: "buffer descriptor without fields",
			mutate: func(pc *PipelineConfig) {
				pc.DescriptorSets[0].Descriptors[0].Fields = nil
			},
			path: "descriptor_sets[0].descriptors[0].fields",
		},
		{
			name: "sampler with fields",
			mutate: func(pc *PipelineConfig) {
				pc.DescriptorSets[0].Descriptors[0].Type = DescriptorTypeSampler
			},
			path: "descriptor_sets[0].descriptors[0].fields",
		},
		{
			name: "sampler without a name",
			mutate: func(pc *PipelineConfig) {
				pc.DescriptorSets[0].Descriptors[0] = &DescriptorConfig{Type: DescriptorTypeSampler}
			},
			path: "descriptor_sets[0].descriptors[0].name",
		},
		{
			name: "duplicate field name",
			mutate: func(pc *PipelineConfig) {
				fields := pc.DescriptorSets[0].Descriptors[0].Fields
				fields[1].Name = fields[0].Name
			},
			path: "descriptor_sets[0].descriptors[0].fields[1].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := validConfig()
			tt.mutate(pc)
			errs := Validate(pc, config.DefaultLimits())
			if !hasErrorAt(errs, tt.path) {
				t.Errorf("expected an error at %s, got %v", tt.path, errs)
			}
		})
	}
}

func TestValidateSparseSetBindings(t *testing.T) {
	// Bindings need not be contiguous, only unique and within bounds.
	pc := validConfig()
	pc.DescriptorSets[0].SetBinding = 2
	if errs := Validate(pc, config.DefaultLimits()); errs != nil {
		t.Fatalf("sparse set bindings must be accepted, got %v", errs)
	}
}

func TestValidatePushConstantRules(t *testing.T) {
	pc := validConfig()
	pc.PushConstants = append(pc.PushConstants, &PushConstantConfig{Name: "model", Type: ShaderTypeFloat32_4})
	errs := Validate(pc, config.DefaultLimits())
	if !hasErrorAt(errs, "push_constants[1].name") {
		t.Errorf("expected a duplicate name error, got %v", errs)
	}

	pc = validConfig()
	pc.PushConstants = []*PushConstantConfig{
		{Name: "model", Type: ShaderTypeMatrix4},
		{Name: "view", Type: ShaderTypeMatrix4},
		{Name: "projection", Type: ShaderTypeMatrix4},
	}
	errs = Validate(pc, config.DefaultLimits())
	if !hasErrorAt(errs, "push_constants") {
		t.Errorf("expected an oversized block error, got %v", errs)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	pc := validConfig()
	pc.Name = ""
	pc.RenderPassName = ""
	pc.Stages[0].FileName = ""
	pc.DescriptorSets[0].MaxSetAllocations = 0

	errs := Validate(pc, config.DefaultLimits())
	if len(errs) < 4 {
		t.Fatalf("expected every violation reported, got %d: %v", len(errs), errs)
	}
	for _, path := range []string{"name", "render_pass", "stages[0].stage_file", "descriptor_sets[0].max_set_allocations"} {
		if !hasErrorAt(errs, path) {
			t.Errorf("missing error at %s", path)
		}
	}
	if !strings.Contains(errs.Error(), "validation error") {
		t.Errorf("aggregate message should summarize, got %q", errs.Error())
	}
}
