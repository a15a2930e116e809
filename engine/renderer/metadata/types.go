package metadata

import "fmt"

/** @brief Shader stages available in the system. */
type StageType int

const (
	StageTypeVertex StageType = iota
	StageTypeFragment
	StageTypeGeometry
	StageTypeCompute
	StageTypeTessellationControl
	StageTypeTessellationEvaluation
)

func StageTypeFromString(s string) (StageType, error) {
	switch s {
	case "vertex":
		return StageTypeVertex, nil
	case "fragment":
		return StageTypeFragment, nil
	case "geometry":
		return StageTypeGeometry, nil
	case "compute":
		return StageTypeCompute, nil
	case "tessellation_control":
		return StageTypeTessellationControl, nil
	case "tessellation_evaluation":
		return StageTypeTessellationEvaluation, nil
	}
	return 0, fmt.Errorf("string %s is not a valid StageType", s)
}

func (st StageType) String() string {
	switch st {
	case StageTypeVertex:
		return "vertex"
	case StageTypeFragment:
		return "fragment"
	case StageTypeGeometry:
		return "geometry"
	case StageTypeCompute:
		return "compute"
	case StageTypeTessellationControl:
		return "tessellation_control"
	case StageTypeTessellationEvaluation:
		return "tessellation_evaluation"
	}
	return "unknown"
}

/**
 * @brief Bitmask of stages a resource is visible to. The backend maps
 * these to the equivalent driver flags.
 */
type StageFlags uint32

const (
	StageFlagVertex                 StageFlags = 0x00000001
	StageFlagFragment               StageFlags = 0x00000002
	StageFlagGeometry               StageFlags = 0x00000004
	StageFlagCompute                StageFlags = 0x00000008
	StageFlagTessellationControl    StageFlags = 0x00000010
	StageFlagTessellationEvaluation StageFlags = 0x00000020
)

// Flag returns the visibility bit for a single stage.
func (st StageType) Flag() StageFlags {
	switch st {
	case StageTypeVertex:
		return StageFlagVertex
	case StageTypeFragment:
		return StageFlagFragment
	case StageTypeGeometry:
		return StageFlagGeometry
	case StageTypeCompute:
		return StageFlagCompute
	case StageTypeTessellationControl:
		return StageFlagTessellationControl
	case StageTypeTessellationEvaluation:
		return StageFlagTessellationEvaluation
	}
	return 0
}

/** @brief Available shader data types. */
type ShaderType int

const (
	ShaderTypeFloat32 ShaderType = iota
	ShaderTypeFloat32_2
	ShaderTypeFloat32_3
	ShaderTypeFloat32_4
	ShaderTypeInt8
	ShaderTypeUint8
	ShaderTypeInt16
	ShaderTypeUint16
	ShaderTypeInt32
	ShaderTypeUint32
	ShaderTypeMatrix4
)

func ShaderTypeFromString(s string) (ShaderType, error) {
	switch s {
	case "f32":
		return ShaderTypeFloat32, nil
	case "vec2":
		return ShaderTypeFloat32_2, nil
	case "vec3":
		return ShaderTypeFloat32_3, nil
	case "vec4":
		return ShaderTypeFloat32_4, nil
	case "i8":
		return ShaderTypeInt8, nil
	case "u8":
		return ShaderTypeUint8, nil
	case "i16":
		return ShaderTypeInt16, nil
	case "u16":
		return ShaderTypeUint16, nil
	case "i32":
		return ShaderTypeInt32, nil
	case "u32":
		return ShaderTypeUint32, nil
	case "mat4":
		return ShaderTypeMatrix4, nil
	}
	return 0, fmt.Errorf("string %s is not a valid ShaderType", s)
}

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeFloat32:
		return "f32"
	case ShaderTypeFloat32_2:
		return "vec2"
	case ShaderTypeFloat32_3:
		return "vec3"
	case ShaderTypeFloat32_4:
		return "vec4"
	case ShaderTypeInt8:
		return "i8"
	case ShaderTypeUint8:
		return "u8"
	case ShaderTypeInt16:
		return "i16"
	case ShaderTypeUint16:
		return "u16"
	case ShaderTypeInt32:
		return "i32"
	case ShaderTypeUint32:
		return "u32"
	case ShaderTypeMatrix4:
		return "mat4"
	}
	return "unknown"
}

// Size returns the tightly packed byte size of the type.
func (t ShaderType) Size() uint32 {
	switch t {
	case ShaderTypeInt8, ShaderTypeUint8:
		return 1
	case ShaderTypeInt16, ShaderTypeUint16:
		return 2
	case ShaderTypeFloat32, ShaderTypeInt32, ShaderTypeUint32:
		return 4
	case ShaderTypeFloat32_2:
		return 8
	case ShaderTypeFloat32_3:
		return 12
	case ShaderTypeFloat32_4:
		return 16
	case ShaderTypeMatrix4:
		return 64
	}
	return 0
}

// Alignment returns the std140 base alignment of the type. Three
// component vectors round up to the four component boundary; a 4x4
// matrix is laid out as four column vectors.
func (t ShaderType) Alignment() uint32 {
	switch t {
	case ShaderTypeInt8, ShaderTypeUint8:
		return 1
	case ShaderTypeInt16, ShaderTypeUint16:
		return 2
	case ShaderTypeFloat32, ShaderTypeInt32, ShaderTypeUint32:
		return 4
	case ShaderTypeFloat32_2:
		return 8
	case ShaderTypeFloat32_3, ShaderTypeFloat32_4, ShaderTypeMatrix4:
		return 16
	}
	return 0
}

// HasVertexFormat reports whether the type can be fed to the vertex
// input assembler. Matrices have no single-slot vertex format.
func (t ShaderType) HasVertexFormat() bool {
	return t != ShaderTypeMatrix4
}

/** @brief Available descriptor types. */
type DescriptorType int

const (
	DescriptorTypeUniformBuffer DescriptorType = iota
	DescriptorTypeStorageBuffer
	DescriptorTypeSampler
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
)

func DescriptorTypeFromString(s string) (DescriptorType, error) {
	switch s {
	case "uniform_buffer":
		return DescriptorTypeUniformBuffer, nil
	case "storage_buffer":
		return DescriptorTypeStorageBuffer, nil
	case "sampler":
		return DescriptorTypeSampler, nil
	case "sampled_image":
		return DescriptorTypeSampledImage, nil
	case "storage_image":
		return DescriptorTypeStorageImage, nil
	}
	return 0, fmt.Errorf("string %s is not a valid DescriptorType", s)
}

func (dt DescriptorType) String() string {
	switch dt {
	case DescriptorTypeUniformBuffer:
		return "uniform_buffer"
	case DescriptorTypeStorageBuffer:
		return "storage_buffer"
	case DescriptorTypeSampler:
		return "sampler"
	case DescriptorTypeSampledImage:
		return "sampled_image"
	case DescriptorTypeStorageImage:
		return "storage_image"
	}
	return "unknown"
}

// IsBufferBacked reports whether the descriptor carries a field layout.
func (dt DescriptorType) IsBufferBacked() bool {
	return dt == DescriptorTypeUniformBuffer || dt == DescriptorTypeStorageBuffer
}
