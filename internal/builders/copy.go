package builders

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// Copy builds a copy of source named name in namespace. Only apiVersion,
// kind, metadata.name, metadata.namespace and the listed payload fields are
// carried over; labels, owner references and server-populated metadata are
// not. Payload fields absent from source are left out.
func Copy(source *unstructured.Unstructured, namespace, name string, payload []string) (*unstructured.Unstructured, error) {
	if source == nil {
		return nil, fmt.Errorf("no source object")
	}
	if namespace == "" || name == "" {
		return nil, fmt.Errorf("copy needs a namespace and a name")
	}
	obj := map[string]interface{}{
		"apiVersion": source.GetAPIVersion(),
		"kind":       source.GetKind(),
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
	}
	for _, field := range payload {
		if v, ok := source.Object[field]; ok && v != nil {
			obj[field] = runtime.DeepCopyJSONValue(v)
		}
	}
	return &unstructured.Unstructured{Object: obj}, nil
}
