// internal/arena/arena.go
package arena

import (
	"errors"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// DefaultBlockBudget is the default number of logical node-blocks an
// Arena will account for before reporting pressure.
const DefaultBlockBudget = uint(1 << 20)

// DefaultPressureThreshold is the occupancy fraction at which an Arena
// reports IsUnderPressure.
const DefaultPressureThreshold = 0.8

// ErrOutOfMemory is returned by Acquire once the configured block budget
// is exhausted.
var ErrOutOfMemory = errors.New("arena: block budget exhausted")

// Stats reports an Arena's current occupancy.
type Stats struct {
	Limit     uint
	Allocated uint
	HighWater uint
}

// PressureCallback is invoked on the transition into a pressured state.
type PressureCallback func(allocated, limit uint)

// Arena tracks logical node-block occupancy against a configured budget.
// It does not itself allocate or free memory: node objects remain
// ordinary Go-GC'd heap values (see DESIGN.md), and Arena's bitset is
// bookkeeping only — the same role the teacher's free-page bitmap plays
// for on-disk pages, repurposed here to in-memory node accounting so that
// Stats/IsUnderPressure have something real to report against (spec.md §6
// Allocator hook).
type Arena struct {
	mu                sync.RWMutex
	limit             uint
	pressureThreshold float64
	allocated         uint
	highWater         uint
	blocks            *bitset.BitSet
	nextBlock         uint
	freed             []uint
	pressureCallback  PressureCallback
	wasUnderPressure  bool
}

// New creates an Arena tracking up to limit logical blocks. A limit of 0
// uses DefaultBlockBudget.
func New(limit uint) *Arena {
	if limit == 0 {
		limit = DefaultBlockBudget
	}
	return &Arena{
		limit:             limit,
		pressureThreshold: DefaultPressureThreshold,
		blocks:            bitset.New(limit),
	}
}

// Limit returns the configured block budget.
func (a *Arena) Limit() uint {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.limit
}

// SetPressureThreshold sets the occupancy fraction (0..1) at which
// IsUnderPressure reports true.
func (a *Arena) SetPressureThreshold(threshold float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	a.pressureThreshold = threshold
}

// OnPressure registers a callback fired when occupancy crosses into the
// pressured state.
func (a *Arena) OnPressure(cb PressureCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pressureCallback = cb
}

// Acquire reserves the next free logical block, reusing one freed by
// Release when available, and reports ErrOutOfMemory once the budget is
// exhausted.
func (a *Arena) Acquire() (uint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.allocated >= a.limit {
		return 0, ErrOutOfMemory
	}

	var id uint
	if n := len(a.freed); n > 0 {
		id = a.freed[n-1]
		a.freed = a.freed[:n-1]
	} else {
		id = a.nextBlock
		a.nextBlock++
	}
	a.blocks.Set(id)
	a.allocated++
	if a.allocated > a.highWater {
		a.highWater = a.allocated
	}
	a.checkPressure()
	return id, nil
}

// Release returns a block to the free pool.
func (a *Arena) Release(id uint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.blocks.Test(id) {
		return
	}
	a.blocks.Clear(id)
	a.freed = append(a.freed, id)
	if a.allocated > 0 {
		a.allocated--
	}
	a.wasUnderPressure = a.wasUnderPressure && a.occupancyLocked() >= a.pressureThreshold
}

// IsUnderPressure reports whether occupancy has crossed the configured
// threshold.
func (a *Arena) IsUnderPressure() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.occupancyLocked() >= a.pressureThreshold
}

func (a *Arena) occupancyLocked() float64 {
	if a.limit == 0 {
		return 0
	}
	return float64(a.allocated) / float64(a.limit)
}

// checkPressure fires pressureCallback on the transition into pressure.
// Must be called while holding the write lock.
func (a *Arena) checkPressure() {
	under := a.occupancyLocked() >= a.pressureThreshold
	if under && !a.wasUnderPressure && a.pressureCallback != nil {
		cb := a.pressureCallback
		allocated, limit := a.allocated, a.limit
		a.wasUnderPressure = true
		go cb(allocated, limit)
	} else if !under {
		a.wasUnderPressure = false
	}
}

// Stats returns a snapshot of the arena's current occupancy.
func (a *Arena) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{Limit: a.limit, Allocated: a.allocated, HighWater: a.highWater}
}
