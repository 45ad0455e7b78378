package types

import (
	"context"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Hook computes the desired state of one family of parent resources.
//
// A Hook is a pure function of its request: the same request always yields
// the same response, nothing is read from or written to the cluster, and no
// state is carried between calls. The orchestrator calling the hook owns
// persistence, diffing and garbage collection.
//
// Implementations must be safe for concurrent use.
type Hook interface {
	// Name returns the unique hook identifier. It is the first path segment
	// of the HTTP binding ("/indexedjob/sync") and the metrics label.
	Name() string

	// Handles returns the parent kinds this hook reconciles.
	Handles() []schema.GroupVersionKind

	// Sync computes the desired parent status and the complete desired set
	// of children. Children omitted from the response are deleted by the
	// orchestrator.
	//
	// Contract:
	//   - Must not modify the request.
	//   - Must return an error, never an empty children set, when the request
	//     lacks data the computation depends on.
	//   - Must return children in a deterministic order.
	Sync(ctx context.Context, req *SyncRequest) (*SyncResponse, error)

	// Customize declares the related resources the orchestrator must fetch
	// and pass in SyncRequest.Related. It reads only the parent spec.
	Customize(ctx context.Context, req *CustomizeRequest) (*CustomizeResponse, error)
}

// Finalizer is implemented by hooks that clean up before their parent is
// deleted. The orchestrator keeps calling Finalize until the response
// reports Finalized.
type Finalizer interface {
	Finalize(ctx context.Context, req *SyncRequest) (*SyncResponse, error)
}
