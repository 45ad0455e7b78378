package propagation

import (
	"context"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/potooio/synchook/api/v1alpha1"
	"github.com/potooio/synchook/internal/builders"
	"github.com/potooio/synchook/internal/hooks"
	"github.com/potooio/synchook/internal/types"
	"github.com/potooio/synchook/internal/util"
)

var namespaceGVK = corev1.SchemeGroupVersion.WithKind("Namespace")

// Config describes one propagation variant.
type Config struct {
	// Name is the hook name.
	Name string
	// ParentKind is the parent kind in the v1alpha1 group.
	ParentKind string
	// Source is the kind of the propagated object.
	Source schema.GroupVersionKind
	// Resource is the plural resource name of Source, used in related rules.
	Resource string
	// Payload lists the top-level fields copied from the source.
	Payload []string
}

// Hook propagates one source kind.
type Hook struct {
	cfg Config
}

func New(cfg Config) *Hook {
	return &Hook{cfg: cfg}
}

// NewConfigMapPropagation returns the configmappropagation hook.
func NewConfigMapPropagation() *Hook {
	return New(Config{
		Name:       "configmappropagation",
		ParentKind: "ConfigMapPropagation",
		Source:     corev1.SchemeGroupVersion.WithKind("ConfigMap"),
		Resource:   "configmaps",
		Payload:    []string{"data", "binaryData"},
	})
}

// NewSecretPropagation returns the secretpropagation hook.
func NewSecretPropagation() *Hook {
	return New(Config{
		Name:       "secretpropagation",
		ParentKind: "SecretPropagation",
		Source:     corev1.SchemeGroupVersion.WithKind("Secret"),
		Resource:   "secrets",
		Payload:    []string{"type", "data"},
	})
}

// NewGlobalConfigMap returns the globalconfigmap hook.
func NewGlobalConfigMap() *Hook {
	return New(Config{
		Name:       "globalconfigmap",
		ParentKind: "GlobalConfigMap",
		Source:     corev1.SchemeGroupVersion.WithKind("ConfigMap"),
		Resource:   "configmaps",
		Payload:    []string{"data", "binaryData"},
	})
}

func (h *Hook) Name() string {
	return h.cfg.Name
}

func (h *Hook) Handles() []schema.GroupVersionKind {
	return []schema.GroupVersionKind{v1alpha1.SchemeGroupVersion.WithKind(h.cfg.ParentKind)}
}

func (h *Hook) Customize(ctx context.Context, req *types.CustomizeRequest) (*types.CustomizeResponse, error) {
	op := h.cfg.Name + "/customize"

	spec, err := h.resolveSpec(op, req.Parent)
	if err != nil {
		return nil, err
	}

	rules := []types.RelatedResourceRule{{
		APIVersion: h.cfg.Source.GroupVersion().String(),
		Resource:   h.cfg.Resource,
		Namespace:  spec.SourceNamespace,
		Names:      []string{spec.SourceName},
	}}
	if len(spec.TargetNamespaces) == 0 {
		selector := spec.TargetNamespaceLabelSelector
		if selector == nil {
			selector = &metav1.LabelSelector{}
		}
		rules = append(rules, types.RelatedResourceRule{
			APIVersion:    namespaceGVK.GroupVersion().String(),
			Resource:      "namespaces",
			LabelSelector: selector,
		})
	}
	return &types.CustomizeResponse{RelatedResources: rules}, nil
}

func (h *Hook) Sync(ctx context.Context, req *types.SyncRequest) (*types.SyncResponse, error) {
	op := h.cfg.Name + "/sync"

	spec, err := h.resolveSpec(op, req.Parent)
	if err != nil {
		return nil, err
	}
	copies, err := req.Children.Require(op, "children", h.cfg.Source)
	if err != nil {
		return nil, err
	}
	if _, err := req.Related.Require(op, "related", h.cfg.Source); err != nil {
		return nil, err
	}

	status := v1alpha1.PropagationStatus{ActualCopies: int32(countObjects(copies))}

	source := req.Related.Lookup(h.cfg.Source, req.Parent, spec.SourceNamespace, spec.SourceName)
	if source == nil {
		return h.respond(op, status, []*unstructured.Unstructured{}, false)
	}

	targets, err := h.targets(op, spec, req)
	if err != nil {
		return nil, err
	}
	status.ExpectedCopies = int32(len(targets))

	children := make([]*unstructured.Unstructured, 0, len(targets))
	for _, ns := range targets {
		cp, err := builders.Copy(source, ns, spec.SourceName, h.cfg.Payload)
		if err != nil {
			return nil, types.Internalf(op, "copying %s/%s to %s: %w", spec.SourceNamespace, spec.SourceName, ns, err)
		}
		children = append(children, cp)
	}
	return h.respond(op, status, children, false)
}

// Finalize removes every copy before the parent goes away.
func (h *Hook) Finalize(ctx context.Context, req *types.SyncRequest) (*types.SyncResponse, error) {
	op := h.cfg.Name + "/finalize"

	if req.Parent == nil {
		return nil, types.Malformedf(op, "parent is missing")
	}
	copies, err := req.Children.Require(op, "children", h.cfg.Source)
	if err != nil {
		return nil, err
	}
	remaining := countObjects(copies)
	status := v1alpha1.PropagationStatus{ActualCopies: int32(remaining)}
	return h.respond(op, status, []*unstructured.Unstructured{}, remaining == 0)
}

func (h *Hook) respond(op string, status v1alpha1.PropagationStatus, children []*unstructured.Unstructured, finalized bool) (*types.SyncResponse, error) {
	st, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&status)
	if err != nil {
		return nil, types.Internalf(op, "encoding status: %w", err)
	}
	return &types.SyncResponse{Status: st, Children: children, Finalized: finalized}, nil
}

func (h *Hook) resolveSpec(op string, parent *unstructured.Unstructured) (v1alpha1.PropagationSpec, error) {
	var spec v1alpha1.PropagationSpec
	if err := hooks.DecodeSpec(op, parent, &spec); err != nil {
		return spec, err
	}
	if errs := validation.IsDNS1123Label(spec.SourceNamespace); len(errs) > 0 {
		return spec, types.Malformedf(op, "sourceNamespace %q: %s", spec.SourceNamespace, strings.Join(errs, "; "))
	}
	if errs := validation.IsDNS1123Subdomain(spec.SourceName); len(errs) > 0 {
		return spec, types.Malformedf(op, "sourceName %q: %s", spec.SourceName, strings.Join(errs, "; "))
	}
	for _, ns := range spec.TargetNamespaces {
		if errs := validation.IsDNS1123Label(ns); len(errs) > 0 {
			return spec, types.Malformedf(op, "targetNamespaces entry %q: %s", ns, strings.Join(errs, "; "))
		}
	}
	if _, err := util.CompileSelector(spec.TargetNamespaceLabelSelector); err != nil {
		return spec, types.Malformedf(op, "targetNamespaceLabelSelector: %w", err)
	}
	return spec, nil
}

// targets returns the namespaces that should hold a copy, sorted.
func (h *Hook) targets(op string, spec v1alpha1.PropagationSpec, req *types.SyncRequest) ([]string, error) {
	if len(spec.TargetNamespaces) > 0 {
		return util.SortedUniqueStrings(spec.TargetNamespaces, spec.SourceNamespace), nil
	}

	if _, err := req.Related.Require(op, "related", namespaceGVK); err != nil {
		return nil, err
	}
	selector, err := util.CompileSelector(spec.TargetNamespaceLabelSelector)
	if err != nil {
		return nil, types.Malformedf(op, "targetNamespaceLabelSelector: %w", err)
	}

	var names []string
	for _, ns := range req.Related.List(namespaceGVK) {
		if !selector.Matches(labels.Set(ns.GetLabels())) {
			continue
		}
		if util.SafeNestedString(ns.Object, "status", "phase") == string(corev1.NamespaceTerminating) {
			continue
		}
		if ns.GetDeletionTimestamp() != nil {
			continue
		}
		names = append(names, ns.GetName())
	}
	return util.SortedUniqueStrings(names, spec.SourceNamespace), nil
}

func countObjects(group map[string]*unstructured.Unstructured) int {
	n := 0
	for _, obj := range group {
		if obj != nil {
			n++
		}
	}
	return n
}
