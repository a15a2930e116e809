package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prisma/engine/containers"
	"github.com/spaghettifunk/prisma/engine/renderer/layout"
)

// ErrPoolExhausted signals that every slot of a set allocator is
// outstanding. This is a normal backpressure condition: the caller may
// retry once other handles are released.
var ErrPoolExhausted = errors.New("descriptor set pool exhausted")

/** @brief A bindable descriptor set instance handed out by an allocator. */
type DescriptorSet struct {
	/** @brief Unique identity of this allocation. */
	ID uuid.UUID

	driver DriverSetHandle
}

// Handle returns the driver descriptor set for bind recording.
func (s *DescriptorSet) Handle() DriverSetHandle {
	return s.driver
}

/**
 * @brief Services bounded descriptor set allocations for one set
 * layout, e.g. one set per material instance.
 *
 * Outstanding allocations never exceed the configured capacity;
 * exceeding it reports ErrPoolExhausted, never a silent grant. Released
 * driver sets are recycled through a ring queue instead of being
 * returned to the driver pool.
 */
type SetAllocator struct {
	backend   Backend
	setLayout SetLayoutHandle
	pool      DescriptorPoolHandle

	setBinding uint32
	capacity   uint32

	mu          sync.Mutex
	outstanding uint32
	live        map[uuid.UUID]*DescriptorSet
	free        *containers.RingQueue[DriverSetHandle]
}

func newSetAllocator(backend Backend, sl layout.SetLayout, handle SetLayoutHandle) (*SetAllocator, error) {
	pool, err := backend.CreateDescriptorPool(sl)
	if err != nil {
		return nil, fmt.Errorf("create descriptor pool for set %d: %w", sl.SetBinding, err)
	}

	return &SetAllocator{
		backend:    backend,
		setLayout:  handle,
		pool:       pool,
		setBinding: sl.SetBinding,
		capacity:   sl.MaxSetAllocations,
		live:       make(map[uuid.UUID]*DescriptorSet),
		free:       containers.NewRingQueue[DriverSetHandle](int(sl.MaxSetAllocations)),
	}, nil
}

// Allocate hands out a descriptor set, reusing a released one when
// available. Safe for concurrent use from any thread issuing draw work.
func (a *SetAllocator) Allocate() (*DescriptorSet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.outstanding >= a.capacity {
		return nil, fmt.Errorf("set %d: %w (capacity %d)", a.setBinding, ErrPoolExhausted, a.capacity)
	}

	var driver DriverSetHandle
	if recycled, err := a.free.Dequeue(); err == nil {
		driver = recycled
	} else {
		fresh, err := a.backend.AllocateDescriptorSet(a.pool, a.setLayout)
		if err != nil {
			return nil, fmt.Errorf("set %d: allocate descriptor set: %w", a.setBinding, err)
		}
		driver = fresh
	}

	set := &DescriptorSet{ID: uuid.New(), driver: driver}
	a.live[set.ID] = set
	a.outstanding++
	return set, nil
}

// Release returns a set's capacity to the allocator. Releasing a set
// twice, or a set from another allocator, is an error.
func (a *SetAllocator) Release(set *DescriptorSet) error {
	if set == nil {
		return fmt.Errorf("set %d: release of nil descriptor set", a.setBinding)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.live[set.ID]; !ok {
		return fmt.Errorf("set %d: descriptor set %s is not an outstanding allocation", a.setBinding, set.ID)
	}
	delete(a.live, set.ID)
	a.outstanding--

	// Capacity equals queue size, so this cannot fail.
	return a.free.Enqueue(set.driver)
}

// Outstanding returns the number of currently live allocations.
func (a *SetAllocator) Outstanding() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outstanding
}

// Capacity returns the configured allocation bound.
func (a *SetAllocator) Capacity() uint32 {
	return a.capacity
}

// Destroy releases the backing driver pool and every set allocated from
// it. Outstanding handles become invalid.
func (a *SetAllocator) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.backend.DestroyDescriptorPool(a.pool)
	a.pool = nil
	a.live = make(map[uuid.UUID]*DescriptorSet)
	a.outstanding = 0
	a.free = containers.NewRingQueue[DriverSetHandle](int(a.capacity))
}
