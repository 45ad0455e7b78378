// Package builders synthesizes desired child objects from a parent template
// or a related source object.
//
// Builders work on unstructured maps so that every template field, including
// fields unknown to the vendored API types, survives into the child. The
// input is deep-copied first; builders never modify their arguments.
//
// Builders return plain errors. Callers decide which HookError kind a
// failure maps to.
package builders
