// Package testutil provides shared test helpers for the synchook project.
// Import this in test files to avoid duplicating fixture loading and object builders.
package testutil

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/potooio/synchook/internal/types"
)

// LoadFixture reads a YAML file and returns it as an Unstructured object.
// Numbers decode as int64, the same way request bodies do.
// Fails the test immediately if the file can't be read or parsed.
func LoadFixture(t *testing.T, path string) *unstructured.Unstructured {
	t.Helper()
	obj := &unstructured.Unstructured{}
	require.NoError(t, obj.UnmarshalJSON(FixtureJSON(t, path)), "failed to parse fixture %s", path)
	return obj
}

// LoadSyncRequest reads a YAML or JSON sync request fixture.
func LoadSyncRequest(t *testing.T, path string) *types.SyncRequest {
	t.Helper()
	req := &types.SyncRequest{}
	require.NoError(t, json.Unmarshal(FixtureJSON(t, path), req), "failed to decode fixture %s", path)
	return req
}

// FixtureJSON returns a YAML fixture converted to JSON, for request bodies.
func FixtureJSON(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read fixture %s", path)
	j, err := yaml.YAMLToJSON(data)
	require.NoError(t, err, "failed to convert fixture %s", path)
	return j
}

// NewObject returns an object with the given identity and no content.
func NewObject(apiVersion, kind, namespace, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetAPIVersion(apiVersion)
	obj.SetKind(kind)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return obj
}

// Pod returns a Pod named name whose status.phase is phase. An empty phase
// leaves status unset, which is how a freshly created Pod is observed.
func Pod(namespace, name, phase string) *unstructured.Unstructured {
	pod := NewObject("v1", "Pod", namespace, name)
	if phase != "" {
		pod.Object["status"] = map[string]interface{}{"phase": phase}
	}
	return pod
}

// Namespace returns a Namespace object carrying lbls.
func Namespace(name string, lbls map[string]string) *unstructured.Unstructured {
	ns := NewObject("v1", "Namespace", "", name)
	if len(lbls) > 0 {
		ns.SetLabels(lbls)
	}
	return ns
}

// Names returns the namespace-qualified names of objs in order.
func Names(objs []*unstructured.Unstructured) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		if ns := o.GetNamespace(); ns != "" {
			out = append(out, ns+"/"+o.GetName())
		} else {
			out = append(out, o.GetName())
		}
	}
	return out
}

// MustJSON encodes v or fails the test.
func MustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
