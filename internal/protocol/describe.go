package protocol

import (
	"github.com/potooio/synchook/internal/hooks"
	"github.com/potooio/synchook/internal/types"
)

// HookInfo describes a registered hook.
type HookInfo struct {
	Name       string      `json:"name"`
	Parents    []string    `json:"parents"`
	Operations []Operation `json:"operations"`
}

// Describe lists the parent kinds and operations hook serves.
func Describe(hook types.Hook) HookInfo {
	info := HookInfo{Name: hook.Name(), Parents: []string{}}
	for _, gvk := range hook.Handles() {
		info.Parents = append(info.Parents, types.KeyFor(gvk).String())
	}
	info.Operations = []Operation{OperationSync}
	if _, ok := hook.(types.Finalizer); ok {
		info.Operations = append(info.Operations, OperationFinalize)
	}
	info.Operations = append(info.Operations, OperationCustomize)
	return info
}

// DescribeAll describes every hook in registry, ordered by name.
func DescribeAll(registry *hooks.Registry) []HookInfo {
	all := registry.All()
	out := make([]HookInfo, 0, len(all))
	for _, h := range all {
		out = append(out, Describe(h))
	}
	return out
}
