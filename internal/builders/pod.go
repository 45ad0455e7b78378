package builders

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/potooio/synchook/internal/util"
)

// IndexEnvVar is the environment variable carrying a Pod's index.
const IndexEnvVar = "JOB_INDEX"

// IndexedPodName returns the name of the Pod holding index of job.
func IndexedPodName(job string, index int) string {
	return job + "-" + strconv.Itoa(index)
}

// IndexedPod builds Pod <job>-<index> from a Pod template.
//
// The Pod is a deep copy of the template with apiVersion, kind and
// metadata.name set, and JOB_INDEX=<index> in the environment of every
// container and init container. An existing JOB_INDEX entry is overwritten.
// The template must declare at least one container.
func IndexedPod(job string, template map[string]interface{}, index int) (*unstructured.Unstructured, error) {
	if index < 0 {
		return nil, fmt.Errorf("negative index %d", index)
	}
	pod := runtime.DeepCopyJSON(template)
	if pod == nil {
		pod = map[string]interface{}{}
	}
	pod["apiVersion"] = "v1"
	pod["kind"] = "Pod"

	if err := setName(pod, IndexedPodName(job, index)); err != nil {
		return nil, err
	}

	containers := util.SafeNestedSlice(pod, "spec", "containers")
	if len(containers) == 0 {
		return nil, fmt.Errorf("pod template has no containers")
	}
	value := strconv.Itoa(index)
	for _, field := range []string{"containers", "initContainers"} {
		list := util.SafeNestedSlice(pod, "spec", field)
		if list == nil {
			continue
		}
		for i, item := range list {
			c, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("spec.%s[%d] is not an object", field, i)
			}
			c["env"] = withEnv(c["env"], IndexEnvVar, value)
		}
		if err := unstructured.SetNestedSlice(pod, list, "spec", field); err != nil {
			return nil, fmt.Errorf("setting spec.%s: %w", field, err)
		}
	}
	return &unstructured.Unstructured{Object: pod}, nil
}

// withEnv sets name=value in an env list, appending when absent.
func withEnv(env interface{}, name, value string) []interface{} {
	items, _ := env.([]interface{})
	out := make([]interface{}, 0, len(items)+1)
	found := false
	for _, item := range items {
		if e, ok := item.(map[string]interface{}); ok && util.SafeStringFromMap(e, "name") == name {
			if found {
				continue
			}
			item = map[string]interface{}{"name": name, "value": value}
			found = true
		}
		out = append(out, item)
	}
	if !found {
		out = append(out, map[string]interface{}{"name": name, "value": value})
	}
	return out
}

// setName sets metadata.name, creating metadata when missing.
func setName(obj map[string]interface{}, name string) error {
	if m, ok := obj["metadata"]; ok && m != nil {
		if _, isMap := m.(map[string]interface{}); !isMap {
			return fmt.Errorf("metadata is not an object")
		}
	}
	return unstructured.SetNestedField(obj, name, "metadata", "name")
}
