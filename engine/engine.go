package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/prisma/engine/assets"
	"github.com/spaghettifunk/prisma/engine/config"
	"github.com/spaghettifunk/prisma/engine/core"
	"github.com/spaghettifunk/prisma/engine/platform"
	"github.com/spaghettifunk/prisma/engine/renderer"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
	"github.com/spaghettifunk/prisma/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

/** @brief The name of the render pass every pipeline descriptor may reference. */
const MainRenderPassName = "world"

type ApplicationConfig struct {
	Name       string
	AssetsDir  string
	ConfigPath string
	// Live drives a real device. When false only parsing, validation
	// and layout derivation are available.
	Live  bool
	Debug bool
}

// Engine ties the asset manager, the device backend and the pipeline
// cache together. It is the single entry point applications use to
// turn descriptors on disk into live pipeline objects.
type Engine struct {
	currentStage Stage
	appConfig    ApplicationConfig

	platform     *platform.Platform
	assetManager *assets.AssetManager
	limits       config.Limits

	backend renderer.Backend
	passes  *renderer.RenderPassRegistry
	cache   *renderer.Cache
}

func New(cfg ApplicationConfig) (*Engine, error) {
	p, err := platform.New()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		appConfig:    cfg,
		platform:     p,
		assetManager: am,
		passes:       renderer.NewRenderPassRegistry(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	limits := config.DefaultLimits()
	if e.appConfig.ConfigPath != "" {
		l, err := config.LoadLimits(e.appConfig.ConfigPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			core.LogWarn("config file %s not found, using default limits", e.appConfig.ConfigPath)
		} else {
			limits = l
		}
	}
	e.limits = limits

	assetsDir := e.appConfig.AssetsDir
	if assetsDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		assetsDir = fmt.Sprintf("%s/assets", wd)
	}
	if err := e.assetManager.Initialize(assetsDir); err != nil {
		return err
	}

	if e.appConfig.Live {
		if err := e.platform.Startup(e.appConfig.Name, 1280, 720); err != nil {
			return err
		}

		backend := vulkan.New(e.platform, e.appConfig.Debug)
		if err := backend.Initialize(e.appConfig.Name); err != nil {
			return err
		}
		e.backend = backend
		e.passes.Register(MainRenderPassName, backend.MainRenderPass())
		e.cache = renderer.NewCache(renderer.NewCompiler(e.backend, e.passes), e.limits)
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Limits returns the device limits validation runs against.
func (e *Engine) Limits() config.Limits {
	return e.limits
}

// Cache exposes the pipeline cache. Nil unless running live.
func (e *Engine) Cache() *renderer.Cache {
	return e.cache
}

// LoadPipelineConfig reads and parses the named descriptor from the
// asset root without touching the device.
func (e *Engine) LoadPipelineConfig(name string) (*metadata.PipelineConfig, error) {
	resource, err := e.assetManager.LoadAsset(name, metadata.ResourceTypePipeline, nil)
	if err != nil {
		return nil, err
	}
	pc, ok := resource.Data.(*metadata.PipelineConfig)
	if !ok {
		return nil, fmt.Errorf("resource %s did not produce a pipeline configuration", name)
	}
	return pc, nil
}

// PlanPipeline validates the named descriptor and derives its layout
// plan. This is the offline path, no device is required.
func (e *Engine) PlanPipeline(name string) (*metadata.PipelineConfig, *layout.Plan, error) {
	pc, err := e.LoadPipelineConfig(name)
	if err != nil {
		return nil, nil, err
	}
	if verrs := metadata.Validate(pc, e.limits); len(verrs) > 0 {
		return pc, nil, verrs
	}
	plan, err := layout.BuildPlan(pc, e.limits)
	if err != nil {
		return pc, nil, err
	}
	return pc, plan, nil
}

// CompilePipeline loads the named descriptor and its stage binaries and
// runs them through the cache. Requires live mode.
func (e *Engine) CompilePipeline(ctx context.Context, name string) (*renderer.Pipeline, error) {
	if e.cache == nil {
		return nil, fmt.Errorf("engine is not running against a device, cannot compile %s", name)
	}

	pc, err := e.LoadPipelineConfig(name)
	if err != nil {
		return nil, err
	}

	binaries := make(map[string][]byte, len(pc.Stages))
	for _, stage := range pc.Stages {
		resource, err := e.assetManager.LoadAsset(stage.FileName, metadata.ResourceTypeStageBinary, nil)
		if err != nil {
			return nil, fmt.Errorf("stage binary %s: %w", stage.FileName, err)
		}
		blob, ok := resource.Data.([]byte)
		if !ok {
			return nil, fmt.Errorf("stage binary %s did not produce a blob", stage.FileName)
		}
		binaries[stage.FileName] = blob
	}

	return e.cache.GetOrCompile(ctx, pc, binaries)
}

// Watch blocks until ctx is done, logging descriptor changes on disk.
// A changed descriptor means the cached pipeline no longer matches the
// file; the next CompilePipeline picks up the edit as a new fingerprint.
func (e *Engine) Watch(ctx context.Context) {
	for {
		select {
		case event, ok := <-e.assetManager.Events():
			if !ok {
				return
			}
			core.LogInfo("asset changed: %s (%s)", event.Name, event.Op.String())
		case err, ok := <-e.assetManager.Errors():
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	if e.cache != nil {
		e.cache.Shutdown()
		e.cache = nil
	}
	if e.backend != nil {
		if err := e.backend.Shutdown(); err != nil {
			return err
		}
		e.backend = nil
	}
	e.assetManager.Close()
	if e.appConfig.Live {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
