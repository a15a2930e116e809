/*
This is an example of application that will use the
engine package to compile pipeline descriptors
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/prisma/engine"
	"github.com/spaghettifunk/prisma/engine/core"
)

func main() {
	pipelineName := flag.String("pipeline", "world", "name of the pipeline descriptor to compile")
	assetsDir := flag.String("assets", "assets", "root directory for descriptors and stage binaries")
	configPath := flag.String("config", "assets/config/engine.toml", "path to the engine configuration")
	live := flag.Bool("live", false, "create real driver objects instead of only deriving the layout")
	debug := flag.Bool("debug", false, "enable driver validation layers")
	watch := flag.Bool("watch", false, "keep running and report descriptor changes on disk")
	flag.Parse()

	e, err := engine.New(engine.ApplicationConfig{
		Name:       "Prisma",
		AssetsDir:  *assetsDir,
		ConfigPath: *configPath,
		Live:       *live,
		Debug:      *debug,
	})
	if err != nil {
		panic(err)
	}

	if err := e.Initialize(); err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		cancel()
	}()

	if *live {
		pipeline, err := e.CompilePipeline(ctx, *pipelineName)
		if err != nil {
			core.LogFatal("compiling %s failed: %s", *pipelineName, err.Error())
		}
		core.LogInfo("pipeline %s compiled, fingerprint %s", pipeline.Name, pipeline.Fingerprint.String())

		hits, misses := e.Cache().Stats()
		core.LogInfo("cache: %d hit(s), %d miss(es)", hits, misses)
	} else {
		pc, plan, err := e.PlanPipeline(*pipelineName)
		if err != nil {
			core.LogFatal("planning %s failed: %s", *pipelineName, err.Error())
		}

		core.LogInfo("pipeline %s validated", pc.Name)
		core.LogInfo("vertex input: stride %d byte(s), %d attribute(s)", plan.VertexInput.Stride, len(plan.VertexInput.Attributes))
		for _, attr := range plan.VertexInput.Attributes {
			core.LogInfo("  location %d: %s %s at offset %d", attr.Location, attr.Name, attr.Type.String(), attr.Offset)
		}
		for _, set := range plan.SetLayouts {
			core.LogInfo("set %d: %d binding(s), up to %d live set(s)", set.SetBinding, len(set.Bindings), set.MaxSetAllocations)
			for _, b := range set.Bindings {
				if b.BufferSize > 0 {
					core.LogInfo("  binding %d: %s, %d byte(s)", b.Binding, b.Type.String(), b.BufferSize)
				} else {
					core.LogInfo("  binding %d: %s", b.Binding, b.Type.String())
				}
			}
		}
		for _, pcr := range plan.PushConstants {
			core.LogInfo("push constants: %d byte(s) at offset %d", pcr.Size, pcr.Offset)
		}
	}

	if *watch {
		core.LogInfo("watching %s for changes, Ctrl-C to stop", *assetsDir)
		e.Watch(ctx)
	}

	if err := e.Shutdown(); err != nil {
		panic(err)
	}
}
