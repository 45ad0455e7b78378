// Package propagation copies a source object into a set of target
// namespaces. One implementation serves three parent kinds that differ only
// in the source kind and in how targets are usually chosen:
//
//	hook                  parent                 source     targets
//	configmappropagation  ConfigMapPropagation   ConfigMap  spec.targetNamespaces
//	secretpropagation     SecretPropagation      Secret     namespaces matching spec.targetNamespaceLabelSelector
//	globalconfigmap       GlobalConfigMap        ConfigMap  every namespace
//
// Every variant accepts both target forms: an explicit targetNamespaces list
// wins; without it the related Namespace.v1 objects are filtered by the label
// selector (an absent selector selects all of them). Namespaces being
// terminated and the source namespace never receive a copy.
//
// # Sync
//
// Related groups: <Source>.v1 (always), Namespace.v1 (when targets are
// discovered). A missing group means the orchestrator has not fetched it yet
// and the request is rejected. A present group without the source object
// means the source was deleted: the children set is empty, so every copy is
// removed.
//
// Status: {expected_copies: <targets>, actual_copies: <observed copies>}.
//
// # Finalize
//
// Returns no children and reports finalized once no copy is observed.
//
// # Input example
//
//	spec:
//	  sourceName: registry-credentials
//	  sourceNamespace: vault
//	  targetNamespaceLabelSelector:
//	    matchLabels:
//	      pull-secrets: enabled
package propagation
