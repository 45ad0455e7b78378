package protocol

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/potooio/synchook/internal/hooks"
	"github.com/potooio/synchook/internal/types"
)

// Dispatcher routes decoded requests to hooks.
// It is safe for concurrent use.
type Dispatcher struct {
	registry *hooks.Registry
	logger   *zap.Logger
}

func NewDispatcher(registry *hooks.Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger.Named("dispatch"),
	}
}

// Registry returns the hooks the dispatcher routes to.
func (d *Dispatcher) Registry() *hooks.Registry {
	return d.registry
}

// Dispatch runs operation on the named hook with a raw JSON body. The
// result is a *types.SyncResponse for sync and finalize and a
// *types.CustomizeResponse for customize.
func (d *Dispatcher) Dispatch(ctx context.Context, hookName string, operation Operation, body []byte) (interface{}, error) {
	op := hookName + "/" + string(operation)

	hook := d.registry.ForName(hookName)
	if hook == nil {
		return nil, types.Unsupportedf(op, "no hook named %q", hookName)
	}

	switch operation {
	case OperationSync, OperationFinalize:
		req, err := DecodeSyncRequest(op, body)
		if err != nil {
			return nil, d.failed(op, err)
		}
		resp, err := d.Sync(ctx, hook, operation, req)
		if err != nil {
			return nil, d.failed(op, err)
		}
		return resp, nil
	case OperationCustomize:
		req, err := DecodeCustomizeRequest(op, body)
		if err != nil {
			return nil, d.failed(op, err)
		}
		resp, err := d.Customize(ctx, hook, req)
		if err != nil {
			return nil, d.failed(op, err)
		}
		return resp, nil
	default:
		return nil, types.Unsupportedf(op, "unknown operation %q", operation)
	}
}

// Sync runs a decoded sync or finalize request and checks the response.
func (d *Dispatcher) Sync(ctx context.Context, hook types.Hook, operation Operation, req *types.SyncRequest) (*types.SyncResponse, error) {
	op := hook.Name() + "/" + string(operation)
	if err := checkHandled(op, hook, req.Parent); err != nil {
		return nil, err
	}

	var (
		resp *types.SyncResponse
		err  error
	)
	switch operation {
	case OperationSync:
		resp, err = hook.Sync(ctx, req)
	case OperationFinalize:
		finalizer, ok := hook.(types.Finalizer)
		if !ok {
			return nil, types.Unsupportedf(op, "hook %s has no finalize operation", hook.Name())
		}
		resp, err = finalizer.Finalize(ctx, req)
	default:
		return nil, types.Unsupportedf(op, "unknown operation %q", operation)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, types.Internalf(op, "hook returned no response")
	}
	if resp.Status == nil {
		resp.Status = map[string]interface{}{}
	}
	if resp.Children == nil {
		resp.Children = []*unstructured.Unstructured{}
	}
	if err := checkChildren(op, resp.Children); err != nil {
		return nil, err
	}

	d.logger.Debug("Synced",
		zap.String("op", op),
		zap.String("parent", parentRef(req.Parent)),
		zap.Int("observedGroups", len(req.Children)),
		zap.Int("desiredChildren", len(resp.Children)),
		zap.Bool("finalized", resp.Finalized),
	)
	return resp, nil
}

// Customize runs a decoded customize request.
func (d *Dispatcher) Customize(ctx context.Context, hook types.Hook, req *types.CustomizeRequest) (*types.CustomizeResponse, error) {
	op := hook.Name() + "/" + string(OperationCustomize)
	if err := checkHandled(op, hook, req.Parent); err != nil {
		return nil, err
	}
	resp, err := hook.Customize(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, types.Internalf(op, "hook returned no response")
	}
	if resp.RelatedResources == nil {
		resp.RelatedResources = []types.RelatedResourceRule{}
	}
	d.logger.Debug("Customized",
		zap.String("op", op),
		zap.String("parent", parentRef(req.Parent)),
		zap.Int("rules", len(resp.RelatedResources)),
	)
	return resp, nil
}

func (d *Dispatcher) failed(op string, err error) error {
	switch types.KindOf(err) {
	case types.KindInternalComputation:
		d.logger.Error("Hook failed", zap.String("op", op), zap.Error(err))
	default:
		d.logger.Warn("Rejected request", zap.String("op", op), zap.Error(err))
	}
	return err
}

func checkHandled(op string, hook types.Hook, parent *unstructured.Unstructured) error {
	if parent == nil {
		return types.Malformedf(op, "parent is missing")
	}
	gvk := parent.GroupVersionKind()
	for _, handled := range hook.Handles() {
		if handled == gvk {
			return nil
		}
	}
	return types.Malformedf(op, "hook %s does not handle parent kind %s", hook.Name(), types.KeyFor(gvk))
}

// checkChildren rejects responses the orchestrator could not apply.
func checkChildren(op string, children []*unstructured.Unstructured) error {
	seen := make(map[string]bool, len(children))
	for i, child := range children {
		if child == nil {
			return types.Internalf(op, "children[%d] is null", i)
		}
		if child.GetAPIVersion() == "" || child.GetKind() == "" || child.GetName() == "" {
			return types.Internalf(op, "children[%d] lacks apiVersion, kind or name", i)
		}
		key := fmt.Sprintf("%s %s/%s", types.KeyFor(child.GroupVersionKind()), child.GetNamespace(), child.GetName())
		if seen[key] {
			return types.Internalf(op, "duplicate child %s", key)
		}
		seen[key] = true
	}
	return nil
}

func parentRef(parent *unstructured.Unstructured) string {
	if ns := parent.GetNamespace(); ns != "" {
		return ns + "/" + parent.GetName()
	}
	return parent.GetName()
}
