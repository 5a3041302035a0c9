// Package monitor serves a live view of a running flood over HTTP.
//
// JSON endpoints expose the per-worker metric snapshots, and a websocket
// endpoint at /ws pushes periodic stats plus every worker lifecycle event
// published on the flood's event bus.
package monitor
