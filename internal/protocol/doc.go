// Package protocol decodes hook requests, dispatches them to the registered
// hook and checks the response before it is encoded.
//
// It is transport agnostic: the HTTP server and the synchookctl CLI both
// hand it raw JSON bodies. Every failure is a *types.HookError so callers
// can map the error kind to their own reporting (HTTP status, exit code).
package protocol
