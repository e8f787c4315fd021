// Package server exposes a [controller.Controller] over HTTP.
//
// The routes are:
//
//	GET  /api/state     branch set, selection and fingerprint as JSON
//	GET  /api/layout    the layout document (see [layout.Document])
//	GET  /diagram.svg   interactive SVG; clicks post back to /api/*
//	GET  /diagram.dot   Graphviz DOT source
//	POST /api/select    {"hash": "...", "branch": n}; an empty hash deselects
//	POST /api/append    append after the selection
//	POST /api/fork      fork from the selection
//	POST /api/reset     replace the set with a fresh genesis
//	GET  /healthz       liveness
//	GET  /metrics       Prometheus exposition
//
// Append and fork without a selection are no-ops: they answer 200 with a
// null block and the unchanged state. Errors are JSON objects carrying the
// [errors.Code] and a message; a digest failure answers 500 and leaves the
// state untouched.
package server
