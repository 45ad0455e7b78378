package daemonjob

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/potooio/synchook/api/v1alpha1"
	"github.com/potooio/synchook/internal/builders"
	"github.com/potooio/synchook/internal/hooks"
	"github.com/potooio/synchook/internal/latch"
	"github.com/potooio/synchook/internal/types"
	"github.com/potooio/synchook/internal/util"
)

const hookName = "daemonjob"

var (
	parentGVK    = v1alpha1.SchemeGroupVersion.WithKind("DaemonJob")
	daemonSetGVK = appsv1.SchemeGroupVersion.WithKind("DaemonSet")
)

// Hook reconciles DaemonJob parents.
type Hook struct{}

func New() *Hook {
	return &Hook{}
}

func (h *Hook) Name() string {
	return hookName
}

func (h *Hook) Handles() []schema.GroupVersionKind {
	return []schema.GroupVersionKind{parentGVK}
}

// Customize declares no related resources.
func (h *Hook) Customize(ctx context.Context, req *types.CustomizeRequest) (*types.CustomizeResponse, error) {
	return &types.CustomizeResponse{RelatedResources: []types.RelatedResourceRule{}}, nil
}

func (h *Hook) Sync(ctx context.Context, req *types.SyncRequest) (*types.SyncResponse, error) {
	const op = hookName + "/sync"

	if err := hooks.ValidateParentName(op, req.Parent, builders.DaemonSetSuffix); err != nil {
		return nil, err
	}
	var spec v1alpha1.DaemonJobSpec
	if err := hooks.DecodeSpec(op, req.Parent, &spec); err != nil {
		return nil, err
	}
	if _, err := req.Children.Require(op, "children", daemonSetGVK); err != nil {
		return nil, err
	}

	parentStatus := util.SafeNestedMap(req.Parent.Object, "status")
	if latch.Observe(parentStatus, latch.ConditionComplete) == latch.Frozen {
		return &types.SyncResponse{
			Status:   latch.WithCondition(parentStatus, latch.ConditionComplete, true),
			Children: []*unstructured.Unstructured{},
		}, nil
	}

	job := req.Parent.GetName()
	template := util.SafeNestedMap(req.Parent.Object, "spec", "template")
	desired, err := builders.DaemonSet(job, template, spec.PauseImage)
	if err != nil {
		return nil, types.Internalf(op, "building daemonset %s: %w", builders.DaemonSetName(job), err)
	}

	observed := req.Children.Lookup(daemonSetGVK, req.Parent, req.Parent.GetNamespace(), builders.DaemonSetName(job))
	var observedStatus map[string]interface{}
	if observed != nil {
		observedStatus = util.SafeNestedMap(observed.Object, "status")
	}
	status := latch.WithCondition(observedStatus, latch.ConditionComplete, finished(observedStatus))

	return &types.SyncResponse{
		Status:   status,
		Children: []*unstructured.Unstructured{desired},
	}, nil
}

// finished reports whether a DaemonSet status shows the job ran on every
// scheduled node.
func finished(status map[string]interface{}) bool {
	if latch.IsTrue(status, latch.ConditionComplete) {
		return true
	}
	desired := util.SafeNestedInt64(status, "desiredNumberScheduled")
	ready := util.SafeNestedInt64(status, "numberReady")
	return desired > 0 && desired == ready
}
