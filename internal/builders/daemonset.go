package builders

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/potooio/synchook/internal/util"
)

const (
	// DaemonSetSuffix is appended to a DaemonJob name to name its DaemonSet.
	DaemonSetSuffix = "-dj"

	// DefaultPauseImage runs after the job containers finished so that the
	// DaemonSet Pod stays ready.
	DefaultPauseImage = "gcr.io/google_containers/pause"

	pauseContainerName = "pause"
)

// DaemonSetName returns the name of the DaemonSet managed for job.
func DaemonSetName(job string) string {
	return job + DaemonSetSuffix
}

// DaemonSet builds DaemonSet <job>-dj from a Pod template.
//
// The template containers become init containers, appended after any init
// containers the template already declares, and a single pause container
// keeps each Pod alive once they finished. The selector matches the template
// labels, which must therefore be non-empty. An empty pauseImage selects
// DefaultPauseImage.
func DaemonSet(job string, template map[string]interface{}, pauseImage string) (*unstructured.Unstructured, error) {
	podTemplate := runtime.DeepCopyJSON(template)
	if podTemplate == nil {
		podTemplate = map[string]interface{}{}
	}

	containers := util.SafeNestedSlice(podTemplate, "spec", "containers")
	if len(containers) == 0 {
		return nil, fmt.Errorf("pod template has no containers")
	}
	labels := util.SafeNestedMap(podTemplate, "metadata", "labels")
	if len(labels) == 0 {
		return nil, fmt.Errorf("pod template has no labels to select on")
	}

	if pauseImage == "" {
		pauseImage = DefaultPauseImage
	}
	initContainers := append(util.SafeNestedSlice(podTemplate, "spec", "initContainers"), containers...)
	pause := []interface{}{
		map[string]interface{}{"name": pauseContainerName, "image": pauseImage},
	}
	if err := unstructured.SetNestedSlice(podTemplate, initContainers, "spec", "initContainers"); err != nil {
		return nil, fmt.Errorf("setting initContainers: %w", err)
	}
	if err := unstructured.SetNestedSlice(podTemplate, pause, "spec", "containers"); err != nil {
		return nil, fmt.Errorf("setting containers: %w", err)
	}

	ds := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "DaemonSet",
		"metadata": map[string]interface{}{
			"name":   DaemonSetName(job),
			"labels": runtime.DeepCopyJSON(labels),
		},
		"spec": map[string]interface{}{
			"selector": map[string]interface{}{
				"matchLabels": labels,
			},
			"template": podTemplate,
		},
	}}
	return ds, nil
}
