package loaders

import (
	"os"

	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

type BinaryLoader struct{}

// Load reads a precompiled SPIR-V stage binary and returns it as an
// opaque blob. Compiling shader source is an external concern.
func (bl *BinaryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     "",
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (bl *BinaryLoader) Unload(*metadata.Resource) error {
	return nil
}
