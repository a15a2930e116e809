package renderer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/prisma/engine/config"
	"github.com/spaghettifunk/prisma/engine/core"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
	"github.com/spaghettifunk/prisma/engine/renderer/metadata"
)

/**
 * @brief Keyed store mapping configuration fingerprints to compiled
 * pipelines.
 *
 * Concurrent GetOrCompile calls for the same fingerprint coalesce: the
 * first caller compiles, all others wait on the same entry and observe
 * the identical handle. A failed compilation leaves no entry, so the
 * configuration can be fixed and retried.
 */
type Cache struct {
	compiler *Compiler
	limits   config.Limits

	mu      sync.Mutex
	entries map[Fingerprint]*cacheEntry

	// Statistics, atomic so they can be read without the lock.
	hits   atomic.Uint64
	misses atomic.Uint64
}

// cacheEntry is the pending-or-resolved slot for one fingerprint.
// done is closed exactly once, after pipeline and err are set.
type cacheEntry struct {
	done     chan struct{}
	pipeline *Pipeline
	err      error
}

func NewCache(compiler *Compiler, limits config.Limits) *Cache {
	return &Cache{
		compiler: compiler,
		limits:   limits,
		entries:  make(map[Fingerprint]*cacheEntry),
	}
}

// GetOrCompile returns the pipeline for the configuration, compiling it
// on first use.
//
// On a hit the cached handle is returned immediately. On a miss the
// caller blocks until validation, layout derivation and driver object
// creation complete. If ctx is done while another caller's compilation
// is in flight, the wait is abandoned but the compilation itself
// proceeds and populates the cache for future use.
func (c *Cache) GetOrCompile(ctx context.Context, pc *metadata.PipelineConfig, binaries map[string][]byte) (*Pipeline, error) {
	fp := ComputeFingerprint(pc, binaries)

	c.mu.Lock()
	if entry, ok := c.entries[fp]; ok {
		c.mu.Unlock()
		c.hits.Add(1)

		select {
		case <-entry.done:
			return entry.pipeline, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	entry := &cacheEntry{done: make(chan struct{})}
	c.entries[fp] = entry
	c.mu.Unlock()
	c.misses.Add(1)

	pipeline, err := c.compile(pc, binaries)
	if err != nil {
		// Leave no entry behind so the fingerprint can be retried.
		c.mu.Lock()
		delete(c.entries, fp)
		c.mu.Unlock()
	} else {
		pipeline.Fingerprint = fp
	}
	entry.pipeline = pipeline
	entry.err = err
	close(entry.done)

	return pipeline, err
}

func (c *Cache) compile(pc *metadata.PipelineConfig, binaries map[string][]byte) (*Pipeline, error) {
	if errs := metadata.Validate(pc, c.limits); errs != nil {
		core.LogError("pipeline %q failed validation: %s", pc.Name, errs.Error())
		return nil, errs
	}

	plan, err := layout.BuildPlan(pc, c.limits)
	if err != nil {
		return nil, err
	}

	return c.compiler.Compile(pc, plan, binaries)
}

// Lookup returns the cached pipeline for a fingerprint without
// compiling. It does not wait for in-flight compilations.
func (c *Cache) Lookup(fp Fingerprint) (*Pipeline, bool) {
	c.mu.Lock()
	entry, ok := c.entries[fp]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-entry.done:
		return entry.pipeline, entry.err == nil
	default:
		return nil, false
	}
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Shutdown destroys every cached pipeline. Pending compilations must
// have completed; the GPU must be idle.
func (c *Cache) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for fp, entry := range c.entries {
		<-entry.done
		if entry.pipeline != nil {
			entry.pipeline.Destroy()
		}
		delete(c.entries, fp)
	}
}
