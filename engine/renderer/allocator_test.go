package renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/spaghettifunk/prisma/engine/config"
)

func testAllocator(t *testing.T, setBinding uint32) (*SetAllocator, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	cache := NewCache(testCompiler(t, backend), config.DefaultLimits())
	t.Cleanup(cache.Shutdown)

	pipeline, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries())
	if err != nil {
		t.Fatalf("GetOrCompile failed: %v", err)
	}
	allocator, err := pipeline.NewSetAllocator(setBinding)
	if err != nil {
		t.Fatalf("NewSetAllocator failed: %v", err)
	}
	t.Cleanup(allocator.Destroy)
	return allocator, backend
}

func TestAllocateUpToCapacity(t *testing.T) {
	allocator, _ := testAllocator(t, 0) // capacity 3

	sets := make([]*DescriptorSet, 0, allocator.Capacity())
	for i := uint32(0); i < allocator.Capacity(); i++ {
		set, err := allocator.Allocate()
		if err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
		if set.Handle() == nil {
			t.Fatalf("allocation %d has no driver handle", i)
		}
		sets = append(sets, set)
	}
	if got := allocator.Outstanding(); got != allocator.Capacity() {
		t.Errorf("expected %d outstanding, got %d", allocator.Capacity(), got)
	}

	// One past the bound reports exhaustion, never a silent grant.
	if _, err := allocator.Allocate(); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}

	for _, set := range sets {
		if err := allocator.Release(set); err != nil {
			t.Fatalf("release failed: %v", err)
		}
	}
	if got := allocator.Outstanding(); got != 0 {
		t.Errorf("expected 0 outstanding after release, got %d", got)
	}
}

func TestReleaseRestoresCapacity(t *testing.T) {
	allocator, _ := testAllocator(t, 1) // capacity 4

	first, err := allocator.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := allocator.Release(first); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// The released driver set is recycled rather than reallocated.
	second, err := allocator.Allocate()
	if err != nil {
		t.Fatalf("Allocate after release failed: %v", err)
	}
	if second.Handle() != first.Handle() {
		t.Error("expected the released driver set to be recycled")
	}
	if second.ID == first.ID {
		t.Error("recycled allocation must have a fresh identity")
	}
}

func TestDoubleReleaseIsRejected(t *testing.T) {
	allocator, _ := testAllocator(t, 0)

	set, err := allocator.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := allocator.Release(set); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := allocator.Release(set); err == nil {
		t.Error("second release of the same set must fail")
	}
	if err := allocator.Release(nil); err == nil {
		t.Error("release of nil must fail")
	}
}

func TestAllocatorForUnknownSetBinding(t *testing.T) {
	backend := newFakeBackend()
	cache := NewCache(testCompiler(t, backend), config.DefaultLimits())
	defer cache.Shutdown()

	pipeline, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries())
	if err != nil {
		t.Fatalf("GetOrCompile failed: %v", err)
	}
	if _, err := pipeline.NewSetAllocator(2); err == nil {
		t.Error("expected an error for a set binding the pipeline does not declare")
	}
}
