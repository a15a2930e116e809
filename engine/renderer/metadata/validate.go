package metadata

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/prisma/engine/config"
)

// ValidationError describes a single semantic rule violation, naming
// the offending field by path.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is the exhaustive list of problems found in one
// validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e), strings.Join(msgs, "; "))
}

/**
 * @brief Validates a pipeline configuration against the semantic rules
 * and the configured GPU limits.
 *
 * Validation is a pure function over the configuration. All rules are
 * checked; the returned list contains every violation found rather than
 * only the first one. A nil result means the configuration is valid.
 */
func Validate(pc *PipelineConfig, limits config.Limits) ValidationErrors {
	v := &validator{}

	v.validateStages(pc)
	v.validateAttributes(pc, limits)
	v.validateDescriptorSets(pc, limits)
	v.validatePushConstants(pc, limits)

	if pc.Name == "" {
		v.add("name", "pipeline name must not be empty")
	}
	if pc.RenderPassName == "" {
		v.add("render_pass", "renderpass name must not be empty")
	}

	if len(v.errors) == 0 {
		return nil
	}
	return v.errors
}

type validator struct {
	errors ValidationErrors
}

func (v *validator) add(path, format string, args ...interface{}) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateStages(pc *PipelineConfig) {
	if len(pc.Stages) == 0 {
		v.add("stages", "at least one stage is required")
		return
	}

	seen := map[StageType]int{}
	for i, stage := range pc.Stages {
		path := fmt.Sprintf("stages[%d]", i)
		if prev, ok := seen[stage.Type]; ok {
			v.add(path+".stage_type", "duplicate stage type %q, first declared at stages[%d]", stage.Type, prev)
		} else {
			seen[stage.Type] = i
		}
		if stage.FileName == "" {
			v.add(path+".stage_file", "stage file must not be empty")
		}
	}

	_, isCompute := seen[StageTypeCompute]
	if !isCompute {
		if _, ok := seen[StageTypeVertex]; !ok {
			v.add("stages", "a vertex stage is required")
		}
		if _, ok := seen[StageTypeFragment]; !ok {
			v.add("stages", "a fragment stage is required")
		}
	}
}

func (v *validator) validateAttributes(pc *PipelineConfig, limits config.Limits) {
	if uint32(len(pc.Attributes)) > limits.MaxVertexAttributes {
		v.add("attributes", "%d attributes exceed the device limit of %d", len(pc.Attributes), limits.MaxVertexAttributes)
	}

	seen := map[string]int{}
	for i, attr := range pc.Attributes {
		path := fmt.Sprintf("attributes[%d].name", i)
		if attr.Name == "" {
			v.add(path, "attribute name must not be empty")
			continue
		}
		if prev, ok := seen[attr.Name]; ok {
			v.add(path, "duplicate attribute name %q, first declared at attributes[%d]", attr.Name, prev)
		} else {
			seen[attr.Name] = i
		}
	}
}

func (v *validator) validateDescriptorSets(pc *PipelineConfig, limits config.Limits) {
	seenBindings := map[uint32]int{}
	for i, set := range pc.DescriptorSets {
		path := fmt.Sprintf("descriptor_sets[%d]", i)

		if prev, ok := seenBindings[set.SetBinding]; ok {
			v.add(path+".set_binding", "duplicate set binding %d, first declared at descriptor_sets[%d]", set.SetBinding, prev)
		} else {
			seenBindings[set.SetBinding] = i
		}
		if set.SetBinding >= limits.MaxBoundDescriptorSets {
			v.add(path+".set_binding", "set binding %d exceeds the device limit of %d bound sets", set.SetBinding, limits.MaxBoundDescriptorSets)
		}
		if set.MaxSetAllocations < 1 {
			v.add(path+".max_set_allocations", "must be at least 1")
		}

		v.validateDescriptors(path, set)
	}
}

func (v *validator) validateDescriptors(setPath string, set *DescriptorSetConfig) {
	seenNames := map[string]int{}
	for i, desc := range set.Descriptors {
		path := fmt.Sprintf("%s.descriptors[%d]", setPath, i)

		if desc.Name != "" {
			if prev, ok := seenNames[desc.Name]; ok {
				v.add(path+".name", "duplicate descriptor name %q, first declared at index %d", desc.Name, prev)
			} else {
				seenNames[desc.Name] = i
			}
		}

		if desc.Type.IsBufferBacked() {
			if len(desc.Fields) == 0 {
				v.add(path+".fields", "%s descriptor requires at least one field", desc.Type)
			}
		} else {
			if desc.Name == "" {
				v.add(path+".name", "%s descriptor requires a name", desc.Type)
			}
			if len(desc.Fields) > 0 {
				v.add(path+".fields", "%s descriptor must not declare fields", desc.Type)
			}
		}

		seenFields := map[string]int{}
		for j, field := range desc.Fields {
			fieldPath := fmt.Sprintf("%s.fields[%d].name", path, j)
			if field.Name == "" {
				v.add(fieldPath, "field name must not be empty")
				continue
			}
			if prev, ok := seenFields[field.Name]; ok {
				v.add(fieldPath, "duplicate field name %q, first declared at index %d", field.Name, prev)
			} else {
				seenFields[field.Name] = j
			}
		}
	}
}

func (v *validator) validatePushConstants(pc *PipelineConfig, limits config.Limits) {
	seen := map[string]int{}
	var offset uint32
	for i, entry := range pc.PushConstants {
		path := fmt.Sprintf("push_constants[%d].name", i)
		if entry.Name == "" {
			v.add(path, "push constant name must not be empty")
		} else if prev, ok := seen[entry.Name]; ok {
			v.add(path, "duplicate push constant name %q, first declared at index %d", entry.Name, prev)
		} else {
			seen[entry.Name] = i
		}

		if align := entry.Type.Alignment(); align > 0 {
			offset = alignUp(offset, align)
		}
		offset += entry.Type.Size()
	}

	if offset > limits.MaxPushConstantSize {
		v.add("push_constants", "block size %d exceeds the device limit of %d bytes", offset, limits.MaxPushConstantSize)
	}
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}
