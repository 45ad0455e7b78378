// Package daemonjob reconciles DaemonJob parents into a single DaemonSet
// that runs the job template once on every node.
//
// # Sync
//
// Handles parent: ctl.potoo.io/v1alpha1 DaemonJob
// Children group: DaemonSet.apps/v1 (must be present in the request, may be empty)
//
// The hook is a two-state latch (see package latch):
//
//   - Running: the desired child is DaemonSet <job>-dj. Status is a copy of
//     the observed DaemonSet status with a Complete condition that turns
//     "True" when desiredNumberScheduled == numberReady > 0, or when the
//     DaemonSet itself reports Complete=True.
//   - Frozen: the parent status already carries Complete=True. Status is
//     passed through and the children set is empty, so the orchestrator
//     deletes the DaemonSet.
//
// The call that first sees the DaemonSet finish still returns it; deletion
// only happens on the next call, after the Complete condition was persisted.
//
// # Input example
//
//	spec:
//	  pauseImage: registry.k8s.io/pause:3.10
//	  template:
//	    metadata:
//	      labels:
//	        app: prepull
//	    spec:
//	      containers:
//	      - name: pull
//	        image: nginx:1.27
//	        command: ["true"]
package daemonjob
