package types

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupKey identifies one object type in an ObjectMap. Its text form is
// "<Kind>.<version>" for the core group and "<Kind>.<group>/<version>"
// otherwise, e.g. "Pod.v1" or "DaemonSet.apps/v1".
type GroupKey schema.GroupVersionKind

// KeyFor returns the group key of gvk.
func KeyFor(gvk schema.GroupVersionKind) GroupKey {
	return GroupKey(gvk)
}

// ParseGroupKey parses the text form of a group key.
func ParseGroupKey(s string) (GroupKey, error) {
	kind, apiVersion, ok := strings.Cut(s, ".")
	if !ok || kind == "" || apiVersion == "" {
		return GroupKey{}, fmt.Errorf("invalid group key %q: want <Kind>.<apiVersion>", s)
	}
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return GroupKey{}, fmt.Errorf("invalid group key %q: %w", s, err)
	}
	if gv.Version == "" {
		return GroupKey{}, fmt.Errorf("invalid group key %q: missing version", s)
	}
	return GroupKey(gv.WithKind(kind)), nil
}

func (k GroupKey) GroupVersionKind() schema.GroupVersionKind {
	return schema.GroupVersionKind(k)
}

func (k GroupKey) String() string {
	return k.Kind + "." + k.GroupVersionKind().GroupVersion().String()
}

func (k GroupKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *GroupKey) UnmarshalText(text []byte) error {
	parsed, err := ParseGroupKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ObjectMap holds observed objects grouped by type and keyed by relative
// name (see RelativeName). It is the wire shape of both the children and
// the related sections of a SyncRequest.
type ObjectMap map[GroupKey]map[string]*unstructured.Unstructured

// RelativeName returns the key of an object inside an ObjectMap group.
// Namespaced objects of a cluster-scoped parent are keyed "<namespace>/<name>",
// everything else by name alone.
func RelativeName(parent *unstructured.Unstructured, namespace, name string) string {
	if parent.GetNamespace() == "" && namespace != "" {
		return namespace + "/" + name
	}
	return name
}

// Group returns the objects of one type and whether the group is present.
// A present group may be empty.
func (m ObjectMap) Group(gvk schema.GroupVersionKind) (map[string]*unstructured.Unstructured, bool) {
	group, ok := m[KeyFor(gvk)]
	return group, ok
}

// Require is Group for groups the computation depends on. A missing group
// is a MalformedRequest naming the request section it was expected in.
func (m ObjectMap) Require(op, section string, gvk schema.GroupVersionKind) (map[string]*unstructured.Unstructured, error) {
	group, ok := m.Group(gvk)
	if !ok {
		return nil, Malformedf(op, "%s group %s is missing", section, KeyFor(gvk))
	}
	if group == nil {
		group = map[string]*unstructured.Unstructured{}
	}
	return group, nil
}

// Lookup finds one object by namespace and name, resolving the relative
// key the way the orchestrator builds it for parent.
func (m ObjectMap) Lookup(gvk schema.GroupVersionKind, parent *unstructured.Unstructured, namespace, name string) *unstructured.Unstructured {
	group, ok := m.Group(gvk)
	if !ok {
		return nil
	}
	obj := group[RelativeName(parent, namespace, name)]
	if obj == nil {
		return nil
	}
	// A namespaced parent keys objects by name only, so the namespace
	// still has to be checked.
	if obj.GetNamespace() != namespace && obj.GetNamespace() != "" {
		return nil
	}
	return obj
}

// List returns the objects of one type ordered by namespace and name.
func (m ObjectMap) List(gvk schema.GroupVersionKind) []*unstructured.Unstructured {
	group, _ := m.Group(gvk)
	out := make([]*unstructured.Unstructured, 0, len(group))
	for _, obj := range group {
		if obj != nil {
			out = append(out, obj)
		}
	}
	SortObjects(out)
	return out
}

// Insert adds obj under its relative name, creating the group if needed.
func (m ObjectMap) Insert(parent, obj *unstructured.Unstructured) {
	key := KeyFor(obj.GroupVersionKind())
	group := m[key]
	if group == nil {
		group = make(map[string]*unstructured.Unstructured)
		m[key] = group
	}
	group[RelativeName(parent, obj.GetNamespace(), obj.GetName())] = obj
}

// Validate checks every entry is an object with a name.
func (m ObjectMap) Validate(op, section string) error {
	for key, group := range m {
		for rel, obj := range group {
			if obj == nil {
				return Malformedf(op, "%s[%s][%s] is null", section, key, rel)
			}
			if obj.GetName() == "" {
				return Malformedf(op, "%s[%s][%s] has no metadata.name", section, key, rel)
			}
		}
	}
	return nil
}

// SortObjects orders objects by group key, namespace and name.
func SortObjects(objs []*unstructured.Unstructured) {
	sort.SliceStable(objs, func(i, j int) bool {
		ki, kj := KeyFor(objs[i].GroupVersionKind()).String(), KeyFor(objs[j].GroupVersionKind()).String()
		if ki != kj {
			return ki < kj
		}
		if objs[i].GetNamespace() != objs[j].GetNamespace() {
			return objs[i].GetNamespace() < objs[j].GetNamespace()
		}
		return objs[i].GetName() < objs[j].GetName()
	})
}
