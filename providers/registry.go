package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/petal-labs/warehouse/core"
	"github.com/petal-labs/warehouse/intercept"
)

// registry holds the owners defined by linked-in adapter packages.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*intercept.Owner)
	watchers   = make(map[int]func(*intercept.Owner))
	nextWatch  int
)

// Register adds an owner to the registry.
// It is typically called from an adapter package's init() function.
// If an owner with the same name is already registered, it will be overwritten.
//
// Example usage in an adapter package:
//
//	var chatCompletions = intercept.NewOwner("openai.chat.completions")
//
//	func init() {
//	    providers.Register(chatCompletions)
//	}
func Register(owner *intercept.Owner) {
	if owner == nil {
		return
	}
	registryMu.Lock()
	registry[owner.Name()] = owner
	notify := make([]func(*intercept.Owner), 0, len(watchers))
	for _, fn := range watchers {
		notify = append(notify, fn)
	}
	registryMu.Unlock()

	for _, fn := range notify {
		fn(owner)
	}
}

// Watch calls fn for every owner registered from now on, after it is in the
// registry. Adapter packages may initialize after instrumentation starts;
// watchers let them be instrumented late. The returned func stops watching.
func Watch(fn func(*intercept.Owner)) (stop func()) {
	registryMu.Lock()
	defer registryMu.Unlock()
	id := nextWatch
	nextWatch++
	watchers[id] = fn
	return func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		delete(watchers, id)
	}
}

// Get retrieves an owner by name.
// Returns nil if the owner is not registered.
func Get(name string) *intercept.Owner {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[name]
}

// Resolve looks an owner up by name.
// It fails with core.ErrOwnerNotFound when the adapter that defines the owner
// is not linked into the binary.
func Resolve(name string) (*intercept.Owner, error) {
	owner := Get(name)
	if owner == nil {
		return nil, fmt.Errorf("%w: %s (available: %v)", core.ErrOwnerNotFound, name, List())
	}
	return owner, nil
}

// List returns the names of all registered owners in sorted order.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered returns true if an owner with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Unregister removes an owner. It exists for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}
