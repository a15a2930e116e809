package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

/**
 * @brief GPU limits the pipeline compiler validates and lays out against.
 *
 * These mirror the guaranteed minimums of the target graphics API and
 * can be raised per device via the engine configuration file. Layout
 * math never hardcodes them.
 */
type Limits struct {
	/** @brief Maximum total size in bytes of a push constant block. */
	MaxPushConstantSize uint32 `toml:"max_push_constant_size"`
	/** @brief Maximum number of vertex attributes in a single pipeline. */
	MaxVertexAttributes uint32 `toml:"max_vertex_attributes"`
	/** @brief Maximum number of simultaneously bound descriptor sets. */
	MaxBoundDescriptorSets uint32 `toml:"max_bound_descriptor_sets"`
	/** @brief Required alignment for uniform buffer offsets. */
	MinUniformBufferAlignment uint32 `toml:"min_uniform_buffer_alignment"`
}

type fileConfig struct {
	Limits Limits `toml:"limits"`
}

// DefaultLimits returns the Vulkan guaranteed minimums.
func DefaultLimits() Limits {
	return Limits{
		MaxPushConstantSize:       128,
		MaxVertexAttributes:       16,
		MaxBoundDescriptorSets:    4,
		MinUniformBufferAlignment: 256,
	}
}

// LoadLimits reads the engine configuration file and overlays it on the
// defaults. Fields absent from the file keep their default value.
func LoadLimits(path string) (Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("load limits: %w", err)
	}
	return ParseLimits(data)
}

// ParseLimits decodes TOML configuration bytes over the defaults.
func ParseLimits(data []byte) (Limits, error) {
	fc := fileConfig{Limits: DefaultLimits()}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return Limits{}, fmt.Errorf("parse limits: %w", err)
	}
	if err := fc.Limits.check(); err != nil {
		return Limits{}, err
	}
	return fc.Limits, nil
}

func (l Limits) check() error {
	if l.MaxPushConstantSize == 0 {
		return fmt.Errorf("limits: max_push_constant_size must be greater than 0")
	}
	if l.MaxVertexAttributes == 0 {
		return fmt.Errorf("limits: max_vertex_attributes must be greater than 0")
	}
	if l.MaxBoundDescriptorSets == 0 {
		return fmt.Errorf("limits: max_bound_descriptor_sets must be greater than 0")
	}
	return nil
}
