package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()
	if l.MaxPushConstantSize != 128 {
		t.Errorf("MaxPushConstantSize = %d, want 128", l.MaxPushConstantSize)
	}
	if l.MaxVertexAttributes != 16 {
		t.Errorf("MaxVertexAttributes = %d, want 16", l.MaxVertexAttributes)
	}
	if l.MaxBoundDescriptorSets != 4 {
		t.Errorf("MaxBoundDescriptorSets = %d, want 4", l.MaxBoundDescriptorSets)
	}
	if l.MinUniformBufferAlignment != 256 {
		t.Errorf("MinUniformBufferAlignment = %d, want 256", l.MinUniformBufferAlignment)
	}
}

func TestParseLimitsOverlaysDefaults(t *testing.T) {
	l, err := ParseLimits([]byte(`
[limits]
max_push_constant_size = 256
max_bound_descriptor_sets = 8
`))
	if err != nil {
		t.Fatalf("ParseLimits failed: %v", err)
	}
	if l.MaxPushConstantSize != 256 {
		t.Errorf("MaxPushConstantSize = %d, want 256", l.MaxPushConstantSize)
	}
	if l.MaxBoundDescriptorSets != 8 {
		t.Errorf("MaxBoundDescriptorSets = %d, want 8", l.MaxBoundDescriptorSets)
	}
	// Fields absent from the file keep their defaults.
	if l.MaxVertexAttributes != 16 {
		t.Errorf("MaxVertexAttributes = %d, want default 16", l.MaxVertexAttributes)
	}
	if l.MinUniformBufferAlignment != 256 {
		t.Errorf("MinUniformBufferAlignment = %d, want default 256", l.MinUniformBufferAlignment)
	}
}

func TestParseLimitsEmptyFileIsAllDefaults(t *testing.T) {
	l, err := ParseLimits(nil)
	if err != nil {
		t.Fatalf("ParseLimits failed: %v", err)
	}
	if l != DefaultLimits() {
		t.Errorf("ParseLimits(nil) = %+v, want defaults", l)
	}
}

func TestParseLimitsRejectsMalformedTOML(t *testing.T) {
	if _, err := ParseLimits([]byte(`[limits`)); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}

func TestParseLimitsRejectsZeroValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"zero push constant size", "[limits]\nmax_push_constant_size = 0\n"},
		{"zero vertex attributes", "[limits]\nmax_vertex_attributes = 0\n"},
		{"zero descriptor sets", "[limits]\nmax_bound_descriptor_sets = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLimits([]byte(tt.toml)); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestLoadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte("[limits]\nmax_vertex_attributes = 32\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadLimits(path)
	if err != nil {
		t.Fatalf("LoadLimits failed: %v", err)
	}
	if l.MaxVertexAttributes != 32 {
		t.Errorf("MaxVertexAttributes = %d, want 32", l.MaxVertexAttributes)
	}
}

func TestLoadLimitsMissingFile(t *testing.T) {
	if _, err := LoadLimits(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected an error for a missing configuration file")
	}
}
