package indexedjob

import (
	"context"
	"sort"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/potooio/synchook/api/v1alpha1"
	"github.com/potooio/synchook/internal/builders"
	"github.com/potooio/synchook/internal/hooks"
	"github.com/potooio/synchook/internal/latch"
	"github.com/potooio/synchook/internal/types"
	"github.com/potooio/synchook/internal/util"
)

const (
	hookName           = "indexedjob"
	defaultCompletions = 1
	defaultParallelism = 1
)

var (
	parentGVK = v1alpha1.SchemeGroupVersion.WithKind("IndexedJob")
	podGVK    = corev1.SchemeGroupVersion.WithKind("Pod")
)

// Hook reconciles IndexedJob parents.
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

// Customize declares no related resources; an IndexedJob depends only on its Pods.
func (h *Hook) Customize(ctx context.Context, req *types.CustomizeRequest) (*types.CustomizeResponse, error) {
	return &types.CustomizeResponse{RelatedResources: []types.RelatedResourceRule{}}, nil
}

func (h *Hook) Sync(ctx context.Context, req *types.SyncRequest) (*types.SyncResponse, error) {
	const op = hookName + "/sync"

	spec, err := resolveSpec(op, req.Parent)
	if err != nil {
		return nil, err
	}
	pods, err := req.Children.Require(op, "children", podGVK)
	if err != nil {
		return nil, err
	}

	job := req.Parent.GetName()
	observed := classify(job, pods, spec.completions)
	template := util.SafeNestedMap(req.Parent.Object, "spec", "template")
	parentStatus := util.SafeNestedMap(req.Parent.Object, "status")

	frozen := latch.Observe(parentStatus, latch.ConditionComplete, latch.ConditionFailed) == latch.Frozen

	indices, active := plan(observed, spec, frozen)
	children := make([]*unstructured.Unstructured, 0, len(indices))
	for _, idx := range indices {
		pod, err := builders.IndexedPod(job, template, idx)
		if err != nil {
			return nil, types.Internalf(op, "building pod %s: %w", builders.IndexedPodName(job, idx), err)
		}
		children = append(children, pod)
	}

	if frozen {
		return &types.SyncResponse{Status: parentStatus, Children: children}, nil
	}

	status, err := observed.status(spec.completions, active)
	if err != nil {
		return nil, types.Internalf(op, "encoding status: %w", err)
	}
	return &types.SyncResponse{Status: status, Children: children}, nil
}

type jobSpec struct {
	completions int
	parallelism int
}

func resolveSpec(op string, parent *unstructured.Unstructured) (jobSpec, error) {
	// The widest suffix a child name can carry is that of the highest index.
	if err := hooks.ValidateParentName(op, parent, "-"+strconv.Itoa(v1alpha1.MaxIndexedJobSize-1)); err != nil {
		return jobSpec{}, err
	}
	var spec v1alpha1.IndexedJobSpec
	if err := hooks.DecodeSpec(op, parent, &spec); err != nil {
		return jobSpec{}, err
	}
	out := jobSpec{completions: defaultCompletions, parallelism: defaultParallelism}
	if spec.Completions != nil {
		out.completions = int(*spec.Completions)
	}
	if spec.Parallelism != nil {
		out.parallelism = int(*spec.Parallelism)
	}
	return out, nil
}

type phase int

const (
	phaseActive phase = iota
	phaseSucceeded
	phaseFailed
)

// observation is the set of valid indices found among the children.
type observation map[int]phase

func classify(job string, pods map[string]*unstructured.Unstructured, completions int) observation {
	out := make(observation, len(pods))
	for _, pod := range pods {
		if pod == nil {
			continue
		}
		idx, ok := parseIndex(job, pod.GetName())
		if !ok || idx >= completions {
			continue
		}
		switch util.SafeNestedString(pod.Object, "status", "phase") {
		case string(corev1.PodSucceeded):
			out[idx] = phaseSucceeded
		case string(corev1.PodFailed):
			out[idx] = phaseFailed
		default:
			out[idx] = phaseActive
		}
	}
	return out
}

// parseIndex extracts N from "<job>-<N>". Only the canonical form produced
// by builders.IndexedPodName is accepted, so every index maps to one name.
func parseIndex(job, name string) (int, bool) {
	suffix, ok := strings.CutPrefix(name, job+"-")
	if !ok || suffix == "" {
		return 0, false
	}
	if len(suffix) > 1 && suffix[0] == '0' {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return idx, true
}

func (o observation) count(p phase) int {
	n := 0
	for _, v := range o {
		if v == p {
			n++
		}
	}
	return n
}

// plan returns the indices to emit, ascending, and how many of them are
// active. Terminal indices are always kept. A frozen job keeps every observed
// index and starts nothing. Otherwise active indices are kept up to
// parallelism, lowest first, and free indices are then started while
// capacity remains.
func plan(observed observation, spec jobSpec, frozen bool) ([]int, int) {
	known := make([]int, 0, len(observed))
	for idx := range observed {
		known = append(known, idx)
	}
	sort.Ints(known)

	keep := make(map[int]bool, len(known))
	active := 0
	for _, idx := range known {
		if observed[idx] != phaseActive {
			keep[idx] = true
			continue
		}
		if frozen || active < spec.parallelism {
			keep[idx] = true
			active++
		}
	}

	if !frozen {
		for idx := 0; idx < spec.completions && active < spec.parallelism; idx++ {
			if _, seen := observed[idx]; seen {
				continue
			}
			keep[idx] = true
			active++
		}
	}

	out := make([]int, 0, len(keep))
	for idx := range keep {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, active
}

func (o observation) status(completions, active int) (map[string]interface{}, error) {
	succeeded := o.count(phaseSucceeded)
	st := v1alpha1.IndexedJobStatus{
		Active:    int32(active),
		Succeeded: int32(succeeded),
		Failed:    int32(o.count(phaseFailed)),
		Conditions: []v1alpha1.Condition{{
			Type:   latch.ConditionComplete,
			Status: latch.ConditionStatus(succeeded == completions),
		}},
	}
	return runtime.DefaultUnstructuredConverter.ToUnstructured(&st)
}
