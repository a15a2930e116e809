package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/prisma/engine/config"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
)

func testCompiler(t *testing.T, backend *fakeBackend) *Compiler {
	t.Helper()
	passes := NewRenderPassRegistry()
	passes.Register("world", backend.handle())
	return NewCompiler(backend, passes)
}

func testPlan(t *testing.T) *layout.Plan {
	t.Helper()
	plan, err := layout.BuildPlan(testPipelineConfig(), config.DefaultLimits())
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	return plan
}

func TestCompileCreatesPipeline(t *testing.T) {
	backend := newFakeBackend()
	compiler := testCompiler(t, backend)

	pipeline, err := compiler.Compile(testPipelineConfig(), testPlan(t), testBinaries())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if pipeline.Handle() == nil {
		t.Fatal("compiled pipeline has no driver handle")
	}
	if len(backend.shaderModules) != 0 {
		t.Errorf("shader modules must not outlive compilation, %d left", len(backend.shaderModules))
	}
	if len(backend.setLayouts) != 2 {
		t.Errorf("expected 2 set layouts, got %d", len(backend.setLayouts))
	}

	pipeline.Destroy()
	if got := backend.liveObjects(); got != 0 {
		t.Errorf("expected no live driver objects after Destroy, got %d", got)
	}
}

func TestCompileUnresolvedRenderPass(t *testing.T) {
	backend := newFakeBackend()
	compiler := NewCompiler(backend, NewRenderPassRegistry())

	_, err := compiler.Compile(testPipelineConfig(), testPlan(t), testBinaries())
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Kind != CompileErrorUnresolvedRenderPass {
		t.Errorf("expected CompileErrorUnresolvedRenderPass, got %d", ce.Kind)
	}
}

func TestCompileMissingStageBinary(t *testing.T) {
	backend := newFakeBackend()
	compiler := testCompiler(t, backend)

	binaries := testBinaries()
	delete(binaries, "shaders/world.frag.spv")

	_, err := compiler.Compile(testPipelineConfig(), testPlan(t), binaries)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Kind != CompileErrorMissingStageBinary {
		t.Errorf("expected CompileErrorMissingStageBinary, got %d", ce.Kind)
	}
	if got := backend.liveObjects(); got != 0 {
		t.Errorf("failed compilation leaked %d driver objects", got)
	}
}

func TestCompileDriverRejectionCleansUp(t *testing.T) {
	backend := newFakeBackend()
	backend.failPipeline = true
	compiler := testCompiler(t, backend)

	_, err := compiler.Compile(testPipelineConfig(), testPlan(t), testBinaries())
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Kind != CompileErrorDriverRejected {
		t.Errorf("expected CompileErrorDriverRejected, got %d", ce.Kind)
	}
	if got := backend.liveObjects(); got != 0 {
		t.Errorf("rejected compilation leaked %d driver objects", got)
	}
}

func TestCompileShaderModuleFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failShaderModule = true
	compiler := testCompiler(t, backend)

	_, err := compiler.Compile(testPipelineConfig(), testPlan(t), testBinaries())
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if ce.Kind != CompileErrorDriverRejected {
		t.Errorf("expected CompileErrorDriverRejected, got %d", ce.Kind)
	}
	if got := backend.liveObjects(); got != 0 {
		t.Errorf("failed compilation leaked %d driver objects", got)
	}
}
