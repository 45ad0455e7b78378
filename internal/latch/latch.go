// Package latch implements the one-way completion latch shared by the job
// hooks.
//
// A parent starts Running. Once a sync reports a terminal condition
// (Complete, or Failed where the hook uses it) with status "True", the
// orchestrator persists that status and resubmits it with every later
// request. The hook reads it back with Observe at the top of the sync and
// switches to Frozen. There is no way back: a Frozen parent stays Frozen for
// as long as its status carries the terminal condition.
//
// The latch is derived only from the resubmitted parent status, so hooks stay
// stateless and a restart of the hook server loses nothing.
package latch

import (
	"github.com/potooio/synchook/internal/util"
)

// State is the latch state of a parent.
type State string

const (
	Running State = "Running"
	Frozen  State = "Frozen"
)

// Condition types understood by the latch.
const (
	ConditionComplete = "Complete"
	ConditionFailed   = "Failed"
)

const (
	statusTrue  = "True"
	statusFalse = "False"
)

// Observe returns Frozen when status holds any of the terminal condition
// types with status "True", and Running otherwise.
func Observe(status map[string]interface{}, terminal ...string) State {
	for _, condType := range terminal {
		if IsTrue(status, condType) {
			return Frozen
		}
	}
	return Running
}

// IsTrue reports whether status has a condition of condType with status "True".
func IsTrue(status map[string]interface{}, condType string) bool {
	for _, cond := range util.MapItems(util.SafeNestedSlice(status, "conditions")) {
		if util.SafeStringFromMap(cond, "type") == condType {
			return util.SafeStringFromMap(cond, "status") == statusTrue
		}
	}
	return false
}

// ConditionStatus renders a condition value the way conditions store it.
func ConditionStatus(value bool) string {
	if value {
		return statusTrue
	}
	return statusFalse
}

// Condition returns a condition object of condType.
func Condition(condType string, value bool) map[string]interface{} {
	return map[string]interface{}{"type": condType, "status": ConditionStatus(value)}
}

// WithCondition returns a copy of status in which the condition of condType
// is set to value. Other conditions keep their order; a new condition is
// appended. A nil status yields a status holding only the condition.
func WithCondition(status map[string]interface{}, condType string, value bool) map[string]interface{} {
	out := make(map[string]interface{}, len(status)+1)
	for k, v := range status {
		out[k] = v
	}

	conditions := make([]interface{}, 0, 1)
	replaced := false
	for _, item := range util.SafeNestedSlice(status, "conditions") {
		cond, ok := item.(map[string]interface{})
		if ok && util.SafeStringFromMap(cond, "type") == condType {
			if replaced {
				continue
			}
			item = Condition(condType, value)
			replaced = true
		}
		conditions = append(conditions, item)
	}
	if !replaced {
		conditions = append(conditions, Condition(condType, value))
	}
	out["conditions"] = conditions
	return out
}
