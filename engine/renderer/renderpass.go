package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/prisma/engine/core"
)

/** @brief A named render pass registered by the owning renderer. */
type RenderPass struct {
	Name   string
	Handle RenderPassHandle
}

// RenderPassRegistry resolves render pass names referenced by pipeline
// configurations. Render pass objects are created and owned elsewhere;
// the registry only maps names to handles.
type RenderPassRegistry struct {
	mu     sync.RWMutex
	passes map[string]*RenderPass
}

func NewRenderPassRegistry() *RenderPassRegistry {
	return &RenderPassRegistry{
		passes: make(map[string]*RenderPass),
	}
}

// Register makes a render pass resolvable by name. Re-registering a
// name replaces the previous handle.
func (r *RenderPassRegistry) Register(name string, handle RenderPassHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.passes[name]; exists {
		core.LogWarn("render pass %q re-registered, replacing previous handle", name)
	}
	r.passes[name] = &RenderPass{Name: name, Handle: handle}
}

// Lookup resolves a render pass by name.
func (r *RenderPassRegistry) Lookup(name string) (*RenderPass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pass, ok := r.passes[name]
	if !ok {
		return nil, fmt.Errorf("render pass %q: %w", name, core.ErrNotFound)
	}
	return pass, nil
}
