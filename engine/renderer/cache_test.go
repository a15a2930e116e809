package renderer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spaghettifunk/prisma/engine/config"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

func testCache(t *testing.T) (*Cache, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	return NewCache(testCompiler(t, backend), config.DefaultLimits()), backend
}

func TestGetOrCompileReturnsSameHandle(t *testing.T) {
	cache, backend := testCache(t)
	defer cache.Shutdown()

	first, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries())
	if err != nil {
		t.Fatalf("first GetOrCompile failed: %v", err)
	}
	second, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries())
	if err != nil {
		t.Fatalf("second GetOrCompile failed: %v", err)
	}

	if first != second {
		t.Error("equal configurations must observe the identical pipeline")
	}
	if calls := backend.compileCalls.Load(); calls != 1 {
		t.Errorf("expected exactly one driver compilation, got %d", calls)
	}
	if hits, misses := cache.Stats(); hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestGetOrCompileCoalescesConcurrentMisses(t *testing.T) {
	cache, backend := testCache(t)
	defer cache.Shutdown()

	const callers = 16
	results := make([]*Pipeline, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			p, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries())
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d observed a different pipeline", i)
		}
	}
	if calls := backend.compileCalls.Load(); calls != 1 {
		t.Errorf("concurrent misses must coalesce into one compilation, got %d", calls)
	}
}

func TestFailedCompileLeavesNoEntry(t *testing.T) {
	cache, backend := testCache(t)
	defer cache.Shutdown()

	backend.failPipeline = true
	pc := testPipelineConfig()
	if _, err := cache.GetOrCompile(context.Background(), pc, testBinaries()); err == nil {
		t.Fatal("expected compilation to fail")
	}
	if _, ok := cache.Lookup(ComputeFingerprint(pc, testBinaries())); ok {
		t.Error("failed compilation must not populate the cache")
	}

	// Fixing the cause makes the same fingerprint compile.
	backend.failPipeline = false
	if _, err := cache.GetOrCompile(context.Background(), pc, testBinaries()); err != nil {
		t.Fatalf("retry after failure did not compile: %v", err)
	}
}

func TestInvalidConfigurationDoesNotReachDriver(t *testing.T) {
	cache, backend := testCache(t)
	defer cache.Shutdown()

	pc := testPipelineConfig()
	pc.Stages = pc.Stages[:1] // drop the fragment stage

	_, err := cache.GetOrCompile(context.Background(), pc, testBinaries())
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	var verrs metadata.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if calls := backend.compileCalls.Load(); calls != 0 {
		t.Errorf("invalid configuration must not reach the driver, got %d calls", calls)
	}
}

func TestDifferentBinariesAreDifferentPipelines(t *testing.T) {
	cache, backend := testCache(t)
	defer cache.Shutdown()

	first, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries())
	if err != nil {
		t.Fatalf("GetOrCompile failed: %v", err)
	}

	edited := testBinaries()
	edited["shaders/world.frag.spv"] = append(edited["shaders/world.frag.spv"], 0xff, 0xff, 0xff, 0xff)
	second, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), edited)
	if err != nil {
		t.Fatalf("GetOrCompile with edited binary failed: %v", err)
	}

	if first == second {
		t.Error("an edited stage binary must produce a new pipeline")
	}
	if calls := backend.compileCalls.Load(); calls != 2 {
		t.Errorf("expected two compilations, got %d", calls)
	}
}

func TestShutdownDestroysPipelines(t *testing.T) {
	cache, backend := testCache(t)

	if _, err := cache.GetOrCompile(context.Background(), testPipelineConfig(), testBinaries()); err != nil {
		t.Fatalf("GetOrCompile failed: %v", err)
	}
	cache.Shutdown()

	// The registered render pass handle is not a cache owned object.
	if got := backend.liveObjects(); got != 0 {
		t.Errorf("expected no live driver objects after Shutdown, got %d", got)
	}
}
