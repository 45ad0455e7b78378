package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/potooio/synchook/internal/protocol"
	"github.com/potooio/synchook/internal/types"
	"github.com/potooio/synchook/internal/util"
)

// resourceKinds maps the resources customize rules name to object kinds.
var resourceKinds = map[string]string{
	"configmaps": "ConfigMap",
	"secrets":    "Secret",
	"namespaces": "Namespace",
}

// world is the object store of the simulated cluster.
type world struct {
	objects map[string]*unstructured.Unstructured
}

func newWorld(objs ...*unstructured.Unstructured) *world {
	w := &world{objects: map[string]*unstructured.Unstructured{}}
	w.put(objs...)
	return w
}

func objectKey(obj *unstructured.Unstructured) string {
	return fmt.Sprintf("%s %s/%s", types.KeyFor(obj.GroupVersionKind()), obj.GetNamespace(), obj.GetName())
}

func (w *world) put(objs ...*unstructured.Unstructured) {
	for _, obj := range objs {
		w.objects[objectKey(obj)] = obj.DeepCopy()
	}
}

func (w *world) get(obj *unstructured.Unstructured) *unstructured.Unstructured {
	return w.objects[objectKey(obj)]
}

func (w *world) remove(obj *unstructured.Unstructured) {
	delete(w.objects, objectKey(obj))
}

// list returns the objects of gvk ordered by key.
func (w *world) list(gvk schema.GroupVersionKind) []*unstructured.Unstructured {
	var out []*unstructured.Unstructured
	for _, obj := range w.objects {
		if obj.GroupVersionKind() == gvk {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return objectKey(out[i]) < objectKey(out[j]) })
	return out
}

// orchestrator drives one parent through a hook the way the external
// control loop does: customize, observe, sync, apply.
type orchestrator struct {
	client    *http.Client
	baseURL   string
	hook      string
	childGVKs []schema.GroupVersionKind
	world     *world
	parent    *unstructured.Unstructured
	owned     map[string]bool
}

func newOrchestrator(client *http.Client, baseURL, hook string, w *world, parent *unstructured.Unstructured, childGVKs ...schema.GroupVersionKind) *orchestrator {
	w.put(parent)
	return &orchestrator{
		client:    client,
		baseURL:   baseURL,
		hook:      hook,
		childGVKs: childGVKs,
		world:     w,
		parent:    parent,
		owned:     map[string]bool{},
	}
}

// current returns the live parent.
func (o *orchestrator) current() *unstructured.Unstructured {
	return o.world.get(o.parent)
}

// children returns the live children of the parent, ordered by key.
func (o *orchestrator) children() []*unstructured.Unstructured {
	var out []*unstructured.Unstructured
	for key := range o.owned {
		if obj := o.world.objects[key]; obj != nil {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return objectKey(out[i]) < objectKey(out[j]) })
	return out
}

// adopt marks obj as a child of the parent and stores it.
func (o *orchestrator) adopt(obj *unstructured.Unstructured) {
	o.world.put(obj)
	o.owned[objectKey(obj)] = true
}

// sync runs one reconcile round and applies the result.
func (o *orchestrator) sync() (*types.SyncResponse, error) {
	return o.round(protocol.OperationSync)
}

// finalize runs one finalize round and applies the result.
func (o *orchestrator) finalize() (*types.SyncResponse, error) {
	return o.round(protocol.OperationFinalize)
}

func (o *orchestrator) round(operation protocol.Operation) (*types.SyncResponse, error) {
	parent := o.current().DeepCopy()

	related, err := o.related(parent)
	if err != nil {
		return nil, err
	}

	children := types.ObjectMap{}
	for _, gvk := range o.childGVKs {
		children[types.KeyFor(gvk)] = map[string]*unstructured.Unstructured{}
	}
	for _, child := range o.children() {
		children.Insert(parent, child.DeepCopy())
	}

	req := &types.SyncRequest{
		Controller: map[string]interface{}{"metadata": map[string]interface{}{"name": o.hook + "-controller"}},
		Parent:     parent,
		Children:   children,
		Related:    related,
		Finalizing: operation == protocol.OperationFinalize,
	}
	var resp types.SyncResponse
	if err := o.post(string(operation), req, &resp); err != nil {
		return nil, err
	}
	o.apply(&resp)
	return &resp, nil
}

// related fetches what the parent's customize rules select.
func (o *orchestrator) related(parent *unstructured.Unstructured) (types.ObjectMap, error) {
	var customized types.CustomizeResponse
	if err := o.post(string(protocol.OperationCustomize), &types.CustomizeRequest{Parent: parent}, &customized); err != nil {
		return nil, err
	}

	related := types.ObjectMap{}
	for _, rule := range customized.RelatedResources {
		gvk := schema.FromAPIVersionAndKind(rule.APIVersion, resourceKinds[rule.Resource])
		if _, ok := related[types.KeyFor(gvk)]; !ok {
			related[types.KeyFor(gvk)] = map[string]*unstructured.Unstructured{}
		}
		selector := labels.Everything()
		if rule.LabelSelector != nil {
			sel, err := util.CompileSelector(rule.LabelSelector)
			if err != nil {
				return nil, err
			}
			selector = sel
		}
		for _, obj := range o.world.list(gvk) {
			if rule.Namespace != "" && obj.GetNamespace() != rule.Namespace {
				continue
			}
			if len(rule.Names) > 0 && !contains(rule.Names, obj.GetName()) {
				continue
			}
			if !selector.Matches(labels.Set(obj.GetLabels())) {
				continue
			}
			related.Insert(parent, obj.DeepCopy())
		}
	}
	return related, nil
}

// apply replaces the parent status and reconciles children to the desired
// set. Live status of children that stay is preserved.
func (o *orchestrator) apply(resp *types.SyncResponse) {
	parent := o.current()
	parent.Object["status"] = runtime.DeepCopyJSON(resp.Status)

	desired := map[string]*unstructured.Unstructured{}
	for _, child := range resp.Children {
		desired[objectKey(child)] = child
	}
	for key := range o.owned {
		if _, keep := desired[key]; !keep {
			delete(o.world.objects, key)
			delete(o.owned, key)
		}
	}
	for key, child := range desired {
		next := child.DeepCopy()
		if live := o.world.objects[key]; live != nil {
			if status, ok := live.Object["status"]; ok {
				next.Object["status"] = status
			}
		}
		o.world.objects[key] = next
		o.owned[key] = true
	}
}

func (o *orchestrator) post(operation string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := o.client.Post(o.baseURL+"/"+o.hook+"/"+operation, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s/%s: HTTP %d: %s", o.hook, operation, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
