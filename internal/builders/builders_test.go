package builders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/potooio/synchook/internal/util"
)

func podTemplate() map[string]interface{} {
	return map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": map[string]interface{}{"app": "worker"},
		},
		"spec": map[string]interface{}{
			"restartPolicy": "OnFailure",
			"initContainers": []interface{}{
				map[string]interface{}{"name": "setup", "image": "busybox"},
			},
			"containers": []interface{}{
				map[string]interface{}{
					"name":  "main",
					"image": "busybox",
					"env": []interface{}{
						map[string]interface{}{"name": "MODE", "value": "batch"},
					},
				},
				map[string]interface{}{"name": "sidecar", "image": "envoy"},
			},
		},
	}
}

func envOf(t *testing.T, container interface{}) map[string]string {
	t.Helper()
	c, ok := container.(map[string]interface{})
	require.True(t, ok)
	out := map[string]string{}
	for _, e := range util.MapItems(c["env"].([]interface{})) {
		out[util.SafeStringFromMap(e, "name")] = util.SafeStringFromMap(e, "value")
	}
	return out
}

func TestIndexedPod(t *testing.T) {
	tmpl := podTemplate()
	pod, err := IndexedPod("crunch", tmpl, 3)
	require.NoError(t, err)

	assert.Equal(t, "v1", pod.GetAPIVersion())
	assert.Equal(t, "Pod", pod.GetKind())
	assert.Equal(t, "crunch-3", pod.GetName())
	assert.Equal(t, map[string]string{"app": "worker"}, pod.GetLabels())
	assert.Equal(t, "OnFailure", util.SafeNestedString(pod.Object, "spec", "restartPolicy"))

	containers := util.SafeNestedSlice(pod.Object, "spec", "containers")
	require.Len(t, containers, 2)
	assert.Equal(t, map[string]string{"MODE": "batch", IndexEnvVar: "3"}, envOf(t, containers[0]))
	assert.Equal(t, map[string]string{IndexEnvVar: "3"}, envOf(t, containers[1]))

	inits := util.SafeNestedSlice(pod.Object, "spec", "initContainers")
	require.Len(t, inits, 1)
	assert.Equal(t, map[string]string{IndexEnvVar: "3"}, envOf(t, inits[0]))

	assert.Equal(t, podTemplate(), tmpl, "template must not be mutated")
}

func TestIndexedPod_OverwritesExistingIndex(t *testing.T) {
	tmpl := podTemplate()
	containers := tmpl["spec"].(map[string]interface{})["containers"].([]interface{})
	main := containers[0].(map[string]interface{})
	main["env"] = []interface{}{
		map[string]interface{}{"name": IndexEnvVar, "value": "stale"},
		map[string]interface{}{"name": IndexEnvVar, "value": "dup"},
	}

	pod, err := IndexedPod("crunch", tmpl, 0)
	require.NoError(t, err)
	got := util.SafeNestedSlice(pod.Object, "spec", "containers")[0].(map[string]interface{})["env"].([]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"name": IndexEnvVar, "value": "0"}}, got)
}

func TestIndexedPod_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template map[string]interface{}
		index    int
	}{
		{name: "nil template", template: nil},
		{name: "no containers", template: map[string]interface{}{"spec": map[string]interface{}{}}},
		{name: "empty containers", template: map[string]interface{}{"spec": map[string]interface{}{"containers": []interface{}{}}}},
		{name: "container not an object", template: map[string]interface{}{"spec": map[string]interface{}{"containers": []interface{}{"main"}}}},
		{name: "metadata not an object", template: map[string]interface{}{"metadata": "x", "spec": map[string]interface{}{"containers": []interface{}{map[string]interface{}{"name": "c"}}}}},
		{name: "negative index", template: podTemplate(), index: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IndexedPod("job", tt.template, tt.index)
			assert.Error(t, err)
		})
	}
}

func TestDaemonSet(t *testing.T) {
	tmpl := podTemplate()
	ds, err := DaemonSet("prepull", tmpl, "")
	require.NoError(t, err)

	assert.Equal(t, "apps/v1", ds.GetAPIVersion())
	assert.Equal(t, "DaemonSet", ds.GetKind())
	assert.Equal(t, "prepull-dj", ds.GetName())
	assert.Equal(t, map[string]string{"app": "worker"}, ds.GetLabels())

	matchLabels := util.SafeNestedMap(ds.Object, "spec", "selector", "matchLabels")
	assert.Equal(t, map[string]interface{}{"app": "worker"}, matchLabels)

	inits := util.MapItems(util.SafeNestedSlice(ds.Object, "spec", "template", "spec", "initContainers"))
	require.Len(t, inits, 3)
	assert.Equal(t, "setup", inits[0]["name"])
	assert.Equal(t, "main", inits[1]["name"])
	assert.Equal(t, "sidecar", inits[2]["name"])

	containers := util.MapItems(util.SafeNestedSlice(ds.Object, "spec", "template", "spec", "containers"))
	require.Len(t, containers, 1)
	assert.Equal(t, "pause", containers[0]["name"])
	assert.Equal(t, DefaultPauseImage, containers[0]["image"])

	assert.Equal(t, "OnFailure", util.SafeNestedString(ds.Object, "spec", "template", "spec", "restartPolicy"))
	assert.Equal(t, podTemplate(), tmpl, "template must not be mutated")
}

func TestDaemonSet_PauseImage(t *testing.T) {
	ds, err := DaemonSet("prepull", podTemplate(), "registry.k8s.io/pause:3.10")
	require.NoError(t, err)
	containers := util.MapItems(util.SafeNestedSlice(ds.Object, "spec", "template", "spec", "containers"))
	require.Len(t, containers, 1)
	assert.Equal(t, "registry.k8s.io/pause:3.10", containers[0]["image"])
}

func TestDaemonSet_Errors(t *testing.T) {
	noLabels := podTemplate()
	delete(noLabels, "metadata")

	noContainers := podTemplate()
	delete(noContainers["spec"].(map[string]interface{}), "containers")

	_, err := DaemonSet("x", noLabels, "")
	assert.ErrorContains(t, err, "labels")

	_, err = DaemonSet("x", noContainers, "")
	assert.ErrorContains(t, err, "containers")
}

func TestCopy(t *testing.T) {
	source := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata": map[string]interface{}{
			"name":            "creds",
			"namespace":       "vault",
			"labels":          map[string]interface{}{"team": "a"},
			"resourceVersion": "42",
			"uid":             "abc",
		},
		"type": "kubernetes.io/basic-auth",
		"data": map[string]interface{}{"username": "YWRtaW4="},
	}}

	cp, err := Copy(source, "team-a", "creds", []string{"data", "type", "stringData"})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata": map[string]interface{}{
			"name":      "creds",
			"namespace": "team-a",
		},
		"type": "kubernetes.io/basic-auth",
		"data": map[string]interface{}{"username": "YWRtaW4="},
	}, cp.Object)

	cp.Object["data"].(map[string]interface{})["username"] = "changed"
	assert.Equal(t, "YWRtaW4=", util.SafeNestedString(source.Object, "data", "username"), "source must not be shared")
}

func TestCopy_Errors(t *testing.T) {
	_, err := Copy(nil, "ns", "name", nil)
	assert.Error(t, err)

	src := &unstructured.Unstructured{Object: map[string]interface{}{"apiVersion": "v1", "kind": "ConfigMap"}}
	_, err = Copy(src, "", "name", nil)
	assert.Error(t, err)
}
