// Package indexedjob reconciles IndexedJob parents into indexed Pods.
//
// # Sync
//
// Handles parent: ctl.potoo.io/v1alpha1 IndexedJob
// Children group: Pod.v1 (must be present in the request, may be empty)
//
// A child named <job>-<N> holds index N, where N is a canonical decimal
// integer (no sign, no leading zeros) below spec.completions. Other children
// are ignored and therefore deleted by the orchestrator. Observed Pods are
// classified by status.phase: Succeeded, Failed, anything else is active.
//
// While running, every observed index is kept and free indices are assigned
// in ascending order until spec.parallelism Pods are active. Active Pods
// beyond spec.parallelism (after parallelism was lowered) are dropped from
// the highest index down. Status reports the number of active Pods in the
// response, the observed succeeded and failed counts, and a Complete
// condition that is "True" once every index succeeded.
//
// Once the parent status carries Complete=True or Failed=True the job is
// frozen: status is passed through unchanged and no new index is started.
//
// # Input example
//
//	spec:
//	  completions: 10
//	  parallelism: 2
//	  template:
//	    metadata:
//	      labels:
//	        app: crunch
//	    spec:
//	      restartPolicy: OnFailure
//	      containers:
//	      - name: main
//	        image: busybox
//	        command: ["sh", "-c", "echo $JOB_INDEX"]
package indexedjob
