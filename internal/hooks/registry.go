package hooks

import (
	"fmt"
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/potooio/synchook/internal/types"
)

// Registry maps hook names and parent kinds to hooks.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	hooks  map[string]types.Hook                   // name → hook
	gvkMap map[schema.GroupVersionKind]types.Hook // parent GVK → hook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:  make(map[string]types.Hook),
		gvkMap: make(map[schema.GroupVersionKind]types.Hook),
	}
}

// Register adds a hook to the registry and maps every parent kind it handles.
// Returns an error if the name or a parent kind is already taken; the
// registry is left unchanged in that case.
func (r *Registry) Register(hook types.Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := hook.Name()
	if name == "" {
		return fmt.Errorf("hook has no name")
	}
	if _, exists := r.hooks[name]; exists {
		return fmt.Errorf("hook %q already registered", name)
	}

	handles := hook.Handles()
	for _, gvk := range handles {
		if existing, exists := r.gvkMap[gvk]; exists {
			return fmt.Errorf("parent kind %s already registered to hook %q, cannot register to %q",
				gvk.String(), existing.Name(), name)
		}
	}
	for _, gvk := range handles {
		r.gvkMap[gvk] = hook
	}

	r.hooks[name] = hook
	return nil
}

// ForName returns the hook with the given name, or nil if none.
func (r *Registry) ForName(name string) types.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks[name]
}

// ForGVK returns the hook reconciling the given parent kind, or nil if none.
func (r *Registry) ForGVK(gvk schema.GroupVersionKind) types.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gvkMap[gvk]
}

// All returns all registered hooks ordered by name.
func (r *Registry) All() []types.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]types.Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Names returns the registered hook names in ascending order.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, 0, len(all))
	for _, h := range all {
		names = append(names, h.Name())
	}
	return names
}
