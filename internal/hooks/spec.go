package hooks

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/potooio/synchook/internal/types"
)

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeSpec converts parent.spec into out, a pointer to a typed spec, and
// validates it against its validate tags. Every failure is a MalformedRequest.
func DecodeSpec(op string, parent *unstructured.Unstructured, out interface{}) error {
	if parent == nil {
		return types.Malformedf(op, "parent is missing")
	}
	raw, found, err := unstructured.NestedMap(parent.Object, "spec")
	if err != nil {
		return types.Malformedf(op, "parent spec: %w", err)
	}
	if !found {
		return types.Malformedf(op, "parent %s has no spec", parent.GetName())
	}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(raw, out); err != nil {
		return types.Malformedf(op, "parent spec: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return types.Malformedf(op, "parent spec: %s", describeValidation(err))
	}
	return nil
}

// ValidateParentName checks that children derived from the parent name by
// appending suffix remain valid object names.
func ValidateParentName(op string, parent *unstructured.Unstructured, suffix string) error {
	if parent == nil {
		return types.Malformedf(op, "parent is missing")
	}
	name := parent.GetName()
	if name == "" {
		return types.Malformedf(op, "parent has no metadata.name")
	}
	if errs := validation.IsDNS1123Subdomain(name + suffix); len(errs) > 0 {
		return types.Malformedf(op, "parent name %q cannot name children: %s", name, strings.Join(errs, "; "))
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
