package protocol

import (
	"encoding/json"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/potooio/synchook/internal/types"
)

// Operation is one of the calls a hook serves.
type Operation string

const (
	OperationSync      Operation = "sync"
	OperationFinalize  Operation = "finalize"
	OperationCustomize Operation = "customize"
)

// Operations lists the known operations.
var Operations = []Operation{OperationSync, OperationFinalize, OperationCustomize}

// ParseOperation returns the operation named s.
func ParseOperation(s string) (Operation, bool) {
	for _, op := range Operations {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

// DecodeSyncRequest decodes and checks a sync or finalize body.
func DecodeSyncRequest(op string, body []byte) (*types.SyncRequest, error) {
	var req types.SyncRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, types.Malformedf(op, "decoding request: %w", err)
	}
	if err := checkParent(op, req.Parent); err != nil {
		return nil, err
	}
	if err := req.Children.Validate(op, "children"); err != nil {
		return nil, err
	}
	if err := req.Related.Validate(op, "related"); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeCustomizeRequest decodes and checks a customize body.
func DecodeCustomizeRequest(op string, body []byte) (*types.CustomizeRequest, error) {
	var req types.CustomizeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, types.Malformedf(op, "decoding request: %w", err)
	}
	if err := checkParent(op, req.Parent); err != nil {
		return nil, err
	}
	return &req, nil
}

func checkParent(op string, parent *unstructured.Unstructured) error {
	if parent == nil {
		return types.Malformedf(op, "parent is missing")
	}
	if parent.GetName() == "" {
		return types.Malformedf(op, "parent has no metadata.name")
	}
	if parent.GetAPIVersion() == "" {
		return types.Malformedf(op, "parent has no apiVersion")
	}
	return nil
}

// ErrorBody is the payload reported for a failed call. It never carries
// children, so an orchestrator cannot mistake it for an empty desired set.
type ErrorBody struct {
	Error     types.ErrorKind `json:"error"`
	Operation string          `json:"operation,omitempty"`
	Message   string          `json:"message"`
}

// NewErrorBody describes err.
func NewErrorBody(err error) ErrorBody {
	return ErrorBody{
		Error:     types.KindOf(err),
		Operation: types.OpOf(err),
		Message:   err.Error(),
	}
}
