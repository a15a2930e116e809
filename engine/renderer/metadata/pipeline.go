package metadata

/** @brief Configuration for a single shader stage. */
type StageConfig struct {
	/** @brief The type of the stage. */
	Type StageType
	/** @brief Path to the precompiled stage binary. Resolved externally. */
	FileName string
}

/** @brief Configuration for a vertex attribute. Sequence order defines
the input slot order and therefore the byte offsets. */
type AttributeConfig struct {
	/** @brief The name of the attribute. */
	Name string
	/** @brief The type of the attribute. */
	Type ShaderType
}

/** @brief Configuration for a single field of a buffer backed
descriptor. Sequence order defines the buffer memory layout. */
type BufferFieldConfig struct {
	/** @brief The name of the field. */
	Name string
	/** @brief The type of the field. */
	Type ShaderType
}

/** @brief Configuration for a single descriptor within a set. The
binding slot is the descriptor's position in the sequence. */
type DescriptorConfig struct {
	/** @brief The type of the descriptor. */
	Type DescriptorType
	/** @brief The name of the descriptor. Required for descriptors
	without fields, such as samplers. */
	Name string
	/** @brief The ordered fields of a buffer backed descriptor. */
	Fields []*BufferFieldConfig
}

/** @brief Configuration for a descriptor set. */
type DescriptorSetConfig struct {
	/** @brief The set index the pipeline binds this set at. Unique per
	pipeline, may be sparse. */
	SetBinding uint32
	/** @brief Upper bound on simultaneously outstanding set allocations. */
	MaxSetAllocations uint32
	/** @brief The ordered descriptors of the set. */
	Descriptors []*DescriptorConfig
}

/** @brief Configuration for a single push constant entry. Sequence
order defines the block layout. */
type PushConstantConfig struct {
	/** @brief The name of the entry. */
	Name string
	/** @brief The type of the entry. */
	Type ShaderType
}

/**
 * @brief Configuration for a render pipeline. Typically created by the
 * pipeline resource loader from a .pipeline.json resource file and
 * immutable afterwards.
 */
type PipelineConfig struct {
	/** @brief The name of the pipeline to be created. */
	Name string
	/** @brief The name of the renderpass used by this pipeline. */
	RenderPassName string
	/** @brief The collection of stages. */
	Stages []*StageConfig
	/** @brief The collection of vertex attributes, in slot order. */
	Attributes []*AttributeConfig
	/** @brief The collection of descriptor sets. */
	DescriptorSets []*DescriptorSetConfig
	/** @brief The collection of push constant entries, in block order. */
	PushConstants []*PushConstantConfig
}

// StageVisibility returns the visibility mask covering every declared
// stage of the pipeline.
func (pc *PipelineConfig) StageVisibility() StageFlags {
	var flags StageFlags
	for _, stage := range pc.Stages {
		flags |= stage.Type.Flag()
	}
	return flags
}

// HasStage reports whether a stage of the given type is declared.
func (pc *PipelineConfig) HasStage(st StageType) bool {
	for _, stage := range pc.Stages {
		if stage.Type == st {
			return true
		}
	}
	return false
}
