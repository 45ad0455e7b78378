package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupName is the API group of every parent kind served by synchook.
const GroupName = "ctl.potoo.io"

// SchemeGroupVersion is the group version of the parent kinds.
var SchemeGroupVersion = schema.GroupVersion{Group: GroupName, Version: "v1alpha1"}

// Condition is a status condition written by a hook into a parent status.
// Status is the string "True" or "False" so that it round-trips unchanged
// through the orchestrator.
type Condition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// ---

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=ij
// +kubebuilder:printcolumn:name="Active",type=integer,JSONPath=`.status.active`
// +kubebuilder:printcolumn:name="Succeeded",type=integer,JSONPath=`.status.succeeded`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// IndexedJob runs spec.completions Pods named <job>-<index>, at most
// spec.parallelism of them at a time.
type IndexedJob struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   IndexedJobSpec   `json:"spec"`
	Status IndexedJobStatus `json:"status,omitempty"`
}

// MaxIndexedJobSize bounds completions and parallelism, matching the limit
// Kubernetes places on Indexed Jobs. The validate tags below repeat it.
const MaxIndexedJobSize = 100000

type IndexedJobSpec struct {
	// Completions is the number of indices that must succeed. Defaults to 1.
	// Held as int64 so out-of-range input is rejected rather than truncated.
	// +optional
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=100000
	Completions *int64 `json:"completions,omitempty" validate:"omitempty,gte=0,lte=100000"`

	// Parallelism is the maximum number of Pods running at once. Defaults to 1.
	// +optional
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=100000
	Parallelism *int64 `json:"parallelism,omitempty" validate:"omitempty,gte=0,lte=100000"`

	// Template is the Pod template. Every container receives a JOB_INDEX
	// environment variable holding the Pod's index.
	Template corev1.PodTemplateSpec `json:"template" validate:"-"`
}

type IndexedJobStatus struct {
	Active     int32       `json:"active"`
	Succeeded  int32       `json:"succeeded"`
	Failed     int32       `json:"failed"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
type IndexedJobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []IndexedJob `json:"items"`
}

// ---

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=dj

// DaemonJob runs its template once on every node through a DaemonSet named
// <job>-dj. The job containers run as init containers followed by a pause
// container, so the DaemonSet becomes ready once every node finished the work.
//
// Status mirrors the DaemonSet status plus a Complete condition and is left
// schemaless so that DaemonSet status fields pass through unchanged.
type DaemonJob struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec DaemonJobSpec `json:"spec"`
}

type DaemonJobSpec struct {
	// Template is the Pod template run on every node.
	Template corev1.PodTemplateSpec `json:"template" validate:"-"`

	// PauseImage replaces the default pause container image.
	// +optional
	PauseImage string `json:"pauseImage,omitempty"`
}

// +kubebuilder:object:root=true
type DaemonJobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []DaemonJob `json:"items"`
}

// ---

// PropagationSpec is shared by all propagation kinds. The source object is
// copied into every target namespace. Targets are TargetNamespaces when set,
// otherwise every namespace matching TargetNamespaceLabelSelector (all
// namespaces when the selector is empty). The source namespace never
// receives a copy.
type PropagationSpec struct {
	// SourceName is the name of the object to propagate.
	SourceName string `json:"sourceName" validate:"required"`

	// SourceNamespace is the namespace of the object to propagate.
	SourceNamespace string `json:"sourceNamespace" validate:"required"`

	// TargetNamespaces lists the namespaces that receive a copy.
	// +optional
	TargetNamespaces []string `json:"targetNamespaces,omitempty" validate:"omitempty,dive,required"`

	// TargetNamespaceLabelSelector selects target namespaces when
	// TargetNamespaces is empty.
	// +optional
	TargetNamespaceLabelSelector *metav1.LabelSelector `json:"targetNamespaceLabelSelector,omitempty"`
}

type PropagationStatus struct {
	// ExpectedCopies is the number of target namespaces.
	ExpectedCopies int32 `json:"expected_copies"`

	// ActualCopies is the number of copies observed at the time of the call.
	ActualCopies int32 `json:"actual_copies"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=cmp
// +kubebuilder:printcolumn:name="Expected",type=integer,JSONPath=`.status.expected_copies`
// +kubebuilder:printcolumn:name="Actual",type=integer,JSONPath=`.status.actual_copies`

// ConfigMapPropagation copies a ConfigMap into a list of namespaces.
type ConfigMapPropagation struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PropagationSpec   `json:"spec"`
	Status PropagationStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=sp

// SecretPropagation copies a Secret into every namespace matching a label selector.
type SecretPropagation struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PropagationSpec   `json:"spec"`
	Status PropagationStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=gcm

// GlobalConfigMap copies a ConfigMap into every namespace of the cluster.
type GlobalConfigMap struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   PropagationSpec   `json:"spec"`
	Status PropagationStatus `json:"status,omitempty"`
}
