package loaders

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

// FieldError names one malformed or missing descriptor field.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SchemaError is the exhaustive list of structural problems found while
// parsing a pipeline descriptor file. It is always fatal to that one
// pipeline; nothing is silently defaulted.
type SchemaError struct {
	Problems []FieldError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%d schema error(s): %s", len(e.Problems), strings.Join(msgs, "; "))
}

// Raw shapes mirror the descriptor file. Pointer fields distinguish an
// absent key from a present-but-empty one. Unknown keys are ignored for
// forward compatibility.
type rawPipeline struct {
	Name           *string             `json:"name"`
	RenderPass     *string             `json:"render_pass"`
	Stages         *[]rawStage         `json:"stages"`
	Attributes     *[]rawAttribute     `json:"attributes"`
	DescriptorSets *[]rawDescriptorSet `json:"descriptor_sets"`
	PushConstants  *[]rawPushConstant  `json:"push_constants"`
}

type rawStage struct {
	StageType *string `json:"stage_type"`
	StageFile *string `json:"stage_file"`
}

type rawAttribute struct {
	AttributeType *string `json:"attribute_type"`
	Name          *string `json:"name"`
}

type rawDescriptorSet struct {
	SetBinding        *int64           `json:"set_binding"`
	MaxSetAllocations *int64           `json:"max_set_allocations"`
	Descriptors       *[]rawDescriptor `json:"descriptors"`
}

type rawDescriptor struct {
	DescriptorType *string     `json:"descriptor_type"`
	Name           string      `json:"name"`
	Fields         *[]rawField `json:"fields"`
}

type rawField struct {
	FieldType *string `json:"field_type"`
	Name      *string `json:"name"`
}

type rawPushConstant struct {
	PushConstantType *string `json:"push_constant_type"`
	Name             *string `json:"name"`
}

// ParsePipelineConfig turns raw descriptor bytes into an immutable
// pipeline configuration. Every structural problem is collected into a
// single SchemaError so the author sees all of them in one pass.
// Semantic rules are the validator's job, not the parser's.
func ParsePipelineConfig(data []byte) (*metadata.PipelineConfig, error) {
	var raw rawPipeline
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Problems: []FieldError{{Path: "$", Message: err.Error()}}}
	}

	p := &schemaParser{}
	pc := &metadata.PipelineConfig{}

	if raw.Name == nil {
		p.add("name", "required key is missing")
	} else {
		pc.Name = *raw.Name
	}
	if raw.RenderPass == nil {
		p.add("render_pass", "required key is missing")
	} else {
		pc.RenderPassName = *raw.RenderPass
	}

	if raw.Stages == nil {
		p.add("stages", "required key is missing")
	} else {
		pc.Stages = p.parseStages(*raw.Stages)
	}
	if raw.Attributes == nil {
		p.add("attributes", "required key is missing")
	} else {
		pc.Attributes = p.parseAttributes(*raw.Attributes)
	}

	// Absent descriptor_sets or push_constants means "none".
	if raw.DescriptorSets != nil {
		pc.DescriptorSets = p.parseDescriptorSets(*raw.DescriptorSets)
	}
	if raw.PushConstants != nil {
		pc.PushConstants = p.parsePushConstants(*raw.PushConstants)
	}

	if len(p.problems) > 0 {
		return nil, &SchemaError{Problems: p.problems}
	}
	return pc, nil
}

type schemaParser struct {
	problems []FieldError
}

func (p *schemaParser) add(path, format string, args ...interface{}) {
	p.problems = append(p.problems, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (p *schemaParser) parseStages(raws []rawStage) []*metadata.StageConfig {
	stages := make([]*metadata.StageConfig, 0, len(raws))
	for i, raw := range raws {
		path := fmt.Sprintf("stages[%d]", i)
		stage := &metadata.StageConfig{}
		if raw.StageType == nil {
			p.add(path+".stage_type", "required key is missing")
		} else {
			st, err := metadata.StageTypeFromString(*raw.StageType)
			if err != nil {
				p.add(path+".stage_type", "%v", err)
			} else {
				stage.Type = st
			}
		}
		if raw.StageFile == nil {
			p.add(path+".stage_file", "required key is missing")
		} else {
			stage.FileName = *raw.StageFile
		}
		stages = append(stages, stage)
	}
	return stages
}

func (p *schemaParser) parseAttributes(raws []rawAttribute) []*metadata.AttributeConfig {
	attributes := make([]*metadata.AttributeConfig, 0, len(raws))
	for i, raw := range raws {
		path := fmt.Sprintf("attributes[%d]", i)
		attr := &metadata.AttributeConfig{}
		if raw.AttributeType == nil {
			p.add(path+".attribute_type", "required key is missing")
		} else {
			t, err := metadata.ShaderTypeFromString(*raw.AttributeType)
			if err != nil {
				p.add(path+".attribute_type", "%v", err)
			} else {
				attr.Type = t
			}
		}
		if raw.Name == nil {
			p.add(path+".name", "required key is missing")
		} else {
			attr.Name = *raw.Name
		}
		attributes = append(attributes, attr)
	}
	return attributes
}

func (p *schemaParser) parseDescriptorSets(raws []rawDescriptorSet) []*metadata.DescriptorSetConfig {
	sets := make([]*metadata.DescriptorSetConfig, 0, len(raws))
	for i, raw := range raws {
		path := fmt.Sprintf("descriptor_sets[%d]", i)
		set := &metadata.DescriptorSetConfig{}
		if raw.SetBinding == nil {
			p.add(path+".set_binding", "required key is missing")
		} else if *raw.SetBinding < 0 {
			p.add(path+".set_binding", "must not be negative, got %d", *raw.SetBinding)
		} else {
			set.SetBinding = uint32(*raw.SetBinding)
		}
		if raw.MaxSetAllocations == nil {
			p.add(path+".max_set_allocations", "required key is missing")
		} else if *raw.MaxSetAllocations < 0 {
			p.add(path+".max_set_allocations", "must not be negative, got %d", *raw.MaxSetAllocations)
		} else {
			set.MaxSetAllocations = uint32(*raw.MaxSetAllocations)
		}
		if raw.Descriptors == nil {
			p.add(path+".descriptors", "required key is missing")
		} else {
			set.Descriptors = p.parseDescriptors(path, *raw.Descriptors)
		}
		sets = append(sets, set)
	}
	return sets
}

func (p *schemaParser) parseDescriptors(setPath string, raws []rawDescriptor) []*metadata.DescriptorConfig {
	descriptors := make([]*metadata.DescriptorConfig, 0, len(raws))
	for i, raw := range raws {
		path := fmt.Sprintf("%s.descriptors[%d]", setPath, i)
		desc := &metadata.DescriptorConfig{Name: raw.Name}
		if raw.DescriptorType == nil {
			p.add(path+".descriptor_type", "required key is missing")
		} else {
			dt, err := metadata.DescriptorTypeFromString(*raw.DescriptorType)
			if err != nil {
				p.add(path+".descriptor_type", "%v", err)
			} else {
				desc.Type = dt
			}
		}
		if raw.Fields != nil {
			for j, rawField := range *raw.Fields {
				fieldPath := fmt.Sprintf("%s.fields[%d]", path, j)
				field := &metadata.BufferFieldConfig{}
				if rawField.FieldType == nil {
					p.add(fieldPath+".field_type", "required key is missing")
				} else {
					t, err := metadata.ShaderTypeFromString(*rawField.FieldType)
					if err != nil {
						p.add(fieldPath+".field_type", "%v", err)
					} else {
						field.Type = t
					}
				}
				if rawField.Name == nil {
					p.add(fieldPath+".name", "required key is missing")
				} else {
					field.Name = *rawField.Name
				}
				desc.Fields = append(desc.Fields, field)
			}
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors
}

func (p *schemaParser) parsePushConstants(raws []rawPushConstant) []*metadata.PushConstantConfig {
	entries := make([]*metadata.PushConstantConfig, 0, len(raws))
	for i, raw := range raws {
		path := fmt.Sprintf("push_constants[%d]", i)
		entry := &metadata.PushConstantConfig{}
		if raw.PushConstantType == nil {
			p.add(path+".push_constant_type", "required key is missing")
		} else {
			t, err := metadata.ShaderTypeFromString(*raw.PushConstantType)
			if err != nil {
				p.add(path+".push_constant_type", "%v", err)
			} else {
				entry.Type = t
			}
		}
		if raw.Name == nil {
			p.add(path+".name", "required key is missing")
		} else {
			entry.Name = *raw.Name
		}
		entries = append(entries, entry)
	}
	return entries
}

type PipelineLoader struct{}

func (pl *PipelineLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pc, err := ParsePipelineConfig(data)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     pc.Name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     pc,
	}, nil
}

func (pl *PipelineLoader) Unload(*metadata.Resource) error {
	return nil
}
