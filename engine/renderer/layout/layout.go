package layout

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/spaghettifunk/prisma/engine/config"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

type ErrorKind int

const (
	// ErrorKindOversizedPushConstantBlock indicates the push constant
	// block exceeds the configured device limit.
	ErrorKindOversizedPushConstantBlock ErrorKind = iota
	// ErrorKindUnsupportedFieldType indicates a type outside the
	// universe the target slot supports.
	ErrorKindUnsupportedFieldType
)

// Error reports a layout derivation failure.
type Error struct {
	Kind    ErrorKind
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("layout error at %s: %s", e.Path, e.Message)
}

/** @brief A single vertex attribute slot with its resolved offset. */
type VertexAttribute struct {
	Name     string
	Location uint32
	Type     metadata.ShaderType
	Offset   uint32
}

/** @brief The resolved vertex input layout for binding 0. */
type VertexInput struct {
	/** @brief The stride of the vertex data, the sum of all attribute sizes. */
	Stride     uint32
	Attributes []VertexAttribute
}

/** @brief A single resolved binding within a descriptor set layout. */
type Binding struct {
	/** @brief The binding slot, the descriptor's position in the set. */
	Binding uint32
	Type    metadata.DescriptorType
	/** @brief Number of descriptors in the binding. Always 1 for this schema. */
	Count uint32
	/** @brief The stages the binding is visible to. */
	StageFlags metadata.StageFlags
	/** @brief Resolved byte size for buffer backed bindings, 0 otherwise. */
	BufferSize uint32
	/** @brief Resolved field offsets for buffer backed bindings. */
	Fields []BufferField
}

/** @brief A single buffer field with its resolved offset. */
type BufferField struct {
	Name   string
	Type   metadata.ShaderType
	Offset uint32
}

/** @brief The resolved layout of one descriptor set. */
type SetLayout struct {
	SetBinding        uint32
	MaxSetAllocations uint32
	Bindings          []Binding
}

/** @brief A resolved push constant range. */
type PushConstantRange struct {
	StageFlags metadata.StageFlags
	Offset     uint32
	Size       uint32
}

/**
 * @brief The full derived layout of a pipeline: vertex input, one
 * layout per descriptor set and the push constant ranges. Given the
 * same ordered configuration the plan is always identical.
 */
type Plan struct {
	VertexInput   VertexInput
	SetLayouts    []SetLayout
	PushConstants []PushConstantRange
}

// SetLayoutFor returns the layout for the given set binding index.
func (p *Plan) SetLayoutFor(setBinding uint32) (*SetLayout, bool) {
	for i := range p.SetLayouts {
		if p.SetLayouts[i].SetBinding == setBinding {
			return &p.SetLayouts[i], true
		}
	}
	return nil, false
}

/**
 * @brief Derives the layout plan from a validated pipeline
 * configuration.
 *
 * Vertex attributes are packed tightly in sequence order; buffer fields
 * and push constants follow the std140 alignment of their types. The
 * walk is deterministic, so equal configurations produce byte identical
 * plans.
 */
func BuildPlan(pc *metadata.PipelineConfig, limits config.Limits) (*Plan, error) {
	vertexInput, err := buildVertexInput(pc)
	if err != nil {
		return nil, err
	}

	visibility := pc.StageVisibility()

	setLayouts := make([]SetLayout, 0, len(pc.DescriptorSets))
	for i, set := range pc.DescriptorSets {
		sl, err := buildSetLayout(i, set, visibility)
		if err != nil {
			return nil, err
		}
		setLayouts = append(setLayouts, sl)
	}

	pushConstants, err := buildPushConstants(pc, visibility, limits)
	if err != nil {
		return nil, err
	}

	return &Plan{
		VertexInput:   vertexInput,
		SetLayouts:    setLayouts,
		PushConstants: pushConstants,
	}, nil
}

func buildVertexInput(pc *metadata.PipelineConfig) (VertexInput, error) {
	var offset uint32
	attributes := make([]VertexAttribute, 0, len(pc.Attributes))
	for i, attr := range pc.Attributes {
		if !attr.Type.HasVertexFormat() {
			return VertexInput{}, &Error{
				Kind:    ErrorKindUnsupportedFieldType,
				Path:    fmt.Sprintf("attributes[%d]", i),
				Message: fmt.Sprintf("type %q has no vertex input format", attr.Type),
			}
		}
		attributes = append(attributes, VertexAttribute{
			Name:     attr.Name,
			Location: uint32(i),
			Type:     attr.Type,
			Offset:   offset,
		})
		offset += attr.Type.Size()
	}
	return VertexInput{Stride: offset, Attributes: attributes}, nil
}

func buildSetLayout(setIndex int, set *metadata.DescriptorSetConfig, visibility metadata.StageFlags) (SetLayout, error) {
	bindings := make([]Binding, 0, len(set.Descriptors))
	for i, desc := range set.Descriptors {
		binding := Binding{
			Binding:    uint32(i),
			Type:       desc.Type,
			Count:      1,
			StageFlags: visibility,
		}

		if desc.Type.IsBufferBacked() {
			var offset uint32
			fields := make([]BufferField, 0, len(desc.Fields))
			for j, field := range desc.Fields {
				align := field.Type.Alignment()
				if align == 0 || field.Type.Size() == 0 {
					return SetLayout{}, &Error{
						Kind:    ErrorKindUnsupportedFieldType,
						Path:    fmt.Sprintf("descriptor_sets[%d].descriptors[%d].fields[%d]", setIndex, i, j),
						Message: fmt.Sprintf("type %q cannot be laid out in a buffer", field.Type),
					}
				}
				offset = alignUp(offset, align)
				fields = append(fields, BufferField{
					Name:   field.Name,
					Type:   field.Type,
					Offset: offset,
				})
				offset += field.Type.Size()
			}
			// std140 rounds a block up to a vec4 boundary.
			binding.BufferSize = alignUp(offset, 16)
			binding.Fields = fields
		}

		bindings = append(bindings, binding)
	}

	return SetLayout{
		SetBinding:        set.SetBinding,
		MaxSetAllocations: set.MaxSetAllocations,
		Bindings:          bindings,
	}, nil
}

func buildPushConstants(pc *metadata.PipelineConfig, visibility metadata.StageFlags, limits config.Limits) ([]PushConstantRange, error) {
	if len(pc.PushConstants) == 0 {
		return nil, nil
	}

	var offset uint32
	for i, entry := range pc.PushConstants {
		align := entry.Type.Alignment()
		if align == 0 || entry.Type.Size() == 0 {
			return nil, &Error{
				Kind:    ErrorKindUnsupportedFieldType,
				Path:    fmt.Sprintf("push_constants[%d]", i),
				Message: fmt.Sprintf("type %q cannot be laid out in a push constant block", entry.Type),
			}
		}
		offset = alignUp(offset, align)
		offset += entry.Type.Size()
	}

	// Push constant ranges must be 4 byte aligned.
	size := alignUp(offset, 4)
	if size > limits.MaxPushConstantSize {
		return nil, &Error{
			Kind:    ErrorKindOversizedPushConstantBlock,
			Path:    "push_constants",
			Message: fmt.Sprintf("block size %d exceeds the device limit of %d bytes", size, limits.MaxPushConstantSize),
		}
	}

	// All entries share the pipeline wide visibility, so the block
	// collapses into a single range at offset 0.
	return []PushConstantRange{{
		StageFlags: visibility,
		Offset:     0,
		Size:       size,
	}}, nil
}

func alignUp[T constraints.Unsigned](v, align T) T {
	return (v + align - 1) / align * align
}
