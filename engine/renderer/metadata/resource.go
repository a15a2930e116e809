package metadata

/** @brief The types of resources the asset manager can load. */
type ResourceType int

const (
	/** @brief A declarative pipeline descriptor (.pipeline.json). */
	ResourceTypePipeline ResourceType = iota
	/** @brief A precompiled shader stage binary (.spv). */
	ResourceTypeStageBinary
)

/**
 * @brief A generic resource as returned by a loader. The Data field
 * holds the loader specific payload.
 */
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     interface{}
}
