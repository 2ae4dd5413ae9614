package verikit

import "sync"

type slotState uint8

const (
	// slotEmpty means the store has never been consulted for this slot.
	slotEmpty slotState = iota
	// slotValue means a decoded value is cached.
	slotValue
	// slotNoOverride means the store was consulted and holds no row for
	// this tenant; reads resolve through the global layer. Only tenant
	// slots enter this state.
	slotNoOverride
)

// configSlot is the guarded storage location for one key within one scope.
type configSlot struct {
	mu    sync.RWMutex
	value any
	state slotState
}

func (s *configSlot) get() (any, slotState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.state
}

func (s *configSlot) set(v any) {
	s.mu.Lock()
	s.value = v
	s.state = slotValue
	s.mu.Unlock()
}

func (s *configSlot) clear() {
	s.mu.Lock()
	s.value = nil
	s.state = slotEmpty
	s.mu.Unlock()
}

// configCache holds one slot per registered key for a single scope. The
// slot map is immutable after construction; only slot contents change, so
// lookups need no lock of their own.
type configCache struct {
	slots map[string]*configSlot
}

func newConfigCache() *configCache {
	slots := make(map[string]*configSlot, len(keyRegistry))
	for name := range keyRegistry {
		slots[name] = &configSlot{}
	}
	return &configCache{slots: slots}
}

// slot returns the slot for a registered key. Asking for an unregistered
// name is a programming defect, not a recoverable condition.
func (c *configCache) slot(name string) *configSlot {
	s, ok := c.slots[name]
	if !ok {
		panic("verikit: unregistered config key: " + name)
	}
	return s
}
