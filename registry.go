package gap

import "sync"

// Handle is the opaque token naming one live engine instance. Zero means
// "no handle". A handle is valid only between the Initialize that issued
// it and the Finalize that consumed it.
type Handle int64

// registry maps live handles to their states. Handles are issued
// monotonically and never reused, so a stale capability can always be told
// apart from a live one.
var registry = struct {
	mu     sync.RWMutex
	next   Handle
	states map[Handle]*State
}{
	states: make(map[Handle]*State),
}

func registerState(s *State) Handle {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.next++
	h := registry.next
	registry.states[h] = s
	return h
}

func unregisterState(h Handle) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.states, h)
}

// lookupState resolves a handle to its live state, nil if the handle was
// never issued or has been finalized.
func lookupState(h Handle) *State {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.states[h]
}
