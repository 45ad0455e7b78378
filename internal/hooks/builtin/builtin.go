// Package builtin assembles the hooks shipped with synchook.
package builtin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/potooio/synchook/internal/hooks"
	"github.com/potooio/synchook/internal/hooks/daemonjob"
	"github.com/potooio/synchook/internal/hooks/indexedjob"
	"github.com/potooio/synchook/internal/hooks/propagation"
	"github.com/potooio/synchook/internal/types"
)

// All returns a fresh instance of every built-in hook.
func All() []types.Hook {
	return []types.Hook{
		indexedjob.New(),
		daemonjob.New(),
		propagation.NewConfigMapPropagation(),
		propagation.NewSecretPropagation(),
		propagation.NewGlobalConfigMap(),
	}
}

// NewRegistry registers the built-in hooks named in enabled, or all of them
// when enabled is empty. Unknown names are an error.
func NewRegistry(enabled []string) (*hooks.Registry, error) {
	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		want[name] = true
	}

	reg := hooks.NewRegistry()
	for _, h := range All() {
		if len(want) > 0 && !want[h.Name()] {
			continue
		}
		if err := reg.Register(h); err != nil {
			return nil, fmt.Errorf("registering hook %s: %w", h.Name(), err)
		}
		delete(want, h.Name())
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for name := range want {
			unknown = append(unknown, strconv.Quote(name))
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown hooks: %s", strings.Join(unknown, ", "))
	}
	return reg, nil
}
