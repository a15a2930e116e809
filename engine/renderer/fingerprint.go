package renderer

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

// Fingerprint is a content hash over the full normalized pipeline
// configuration, used as the pipeline cache key.
type Fingerprint [sha256.Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ComputeFingerprint hashes the semantic content of a configuration:
// stage file paths and their binary contents, the attribute sequence,
// the descriptor set shapes, the push constant block and the render
// pass name. It walks the parsed model, so the encoding's key order
// cannot influence the result. Sequence order does, as it is
// semantically meaningful.
func ComputeFingerprint(pc *metadata.PipelineConfig, binaries map[string][]byte) Fingerprint {
	h := sha256.New()

	writeString(h, pc.RenderPassName)

	writeLen(h, len(pc.Stages))
	for _, stage := range pc.Stages {
		writeU32(h, uint32(stage.Type))
		writeString(h, stage.FileName)
		blob := binaries[stage.FileName]
		sum := sha256.Sum256(blob)
		h.Write(sum[:])
	}

	writeLen(h, len(pc.Attributes))
	for _, attr := range pc.Attributes {
		writeU32(h, uint32(attr.Type))
		writeString(h, attr.Name)
	}

	writeLen(h, len(pc.DescriptorSets))
	for _, set := range pc.DescriptorSets {
		writeU32(h, set.SetBinding)
		writeU32(h, set.MaxSetAllocations)
		writeLen(h, len(set.Descriptors))
		for _, desc := range set.Descriptors {
			writeU32(h, uint32(desc.Type))
			writeString(h, desc.Name)
			writeLen(h, len(desc.Fields))
			for _, field := range desc.Fields {
				writeU32(h, uint32(field.Type))
				writeString(h, field.Name)
			}
		}
	}

	writeLen(h, len(pc.PushConstants))
	for _, entry := range pc.PushConstants {
		writeU32(h, uint32(entry.Type))
		writeString(h, entry.Name)
	}

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

func writeU32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}

func writeLen(h hash.Hash, n int) {
	writeU32(h, uint32(n))
}

func writeString(h hash.Hash, s string) {
	writeLen(h, len(s))
	h.Write([]byte(s))
}
