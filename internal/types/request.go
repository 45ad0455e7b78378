package types

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// SyncRequest is the observed state handed to Hook.Sync and Finalizer.Finalize.
//
// Example body:
//
//	{
//	  "controller": {"metadata": {"name": "indexedjob-controller"}},
//	  "parent": {"apiVersion": "ctl.potoo.io/v1alpha1", "kind": "IndexedJob", ...},
//	  "children": {"Pod.v1": {"job-0": {...}, "job-1": {...}}},
//	  "related": {},
//	  "finalizing": false
//	}
type SyncRequest struct {
	// Controller is the orchestrator's controller object. Hooks ignore it.
	Controller map[string]interface{} `json:"controller,omitempty"`

	Parent *unstructured.Unstructured `json:"parent"`

	// Children holds the observed children per group key, keyed by
	// relative name. A group is present (possibly empty) for every child
	// kind the orchestrator manages.
	Children ObjectMap `json:"children"`

	// Related holds the objects selected by the rules Customize returned.
	// A missing group means it was not fetched yet.
	Related ObjectMap `json:"related"`

	Finalizing bool `json:"finalizing,omitempty"`
}

// SyncResponse is the desired state computed by a hook.
type SyncResponse struct {
	// Status replaces the parent status wholesale.
	Status map[string]interface{} `json:"status"`

	// Children is the complete desired set of children.
	Children []*unstructured.Unstructured `json:"children"`

	// ResyncAfterSeconds asks the orchestrator to call again after the
	// given delay even if nothing changed. Zero means no request.
	ResyncAfterSeconds float64 `json:"resyncAfterSeconds,omitempty"`

	// Finalized reports that cleanup is done. Only meaningful for Finalize.
	Finalized bool `json:"finalized,omitempty"`
}

// CustomizeRequest is the input of Hook.Customize.
type CustomizeRequest struct {
	Controller map[string]interface{}     `json:"controller,omitempty"`
	Parent     *unstructured.Unstructured `json:"parent"`
}

// CustomizeResponse lists the related resources to fetch for a parent.
type CustomizeResponse struct {
	RelatedResources []RelatedResourceRule `json:"relatedResources"`
}

// RelatedResourceRule selects related objects of one resource type.
// Names and LabelSelector narrow the selection when set; Namespace is
// empty for cluster-scoped resources or to select across namespaces.
type RelatedResourceRule struct {
	APIVersion    string                `json:"apiVersion"`
	Resource      string                `json:"resource"`
	LabelSelector *metav1.LabelSelector `json:"labelSelector,omitempty"`
	Namespace     string                `json:"namespace,omitempty"`
	Names         []string              `json:"names,omitempty"`
}
