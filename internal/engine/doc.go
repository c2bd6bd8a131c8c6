// Package engine provides the command/event channel to the simulation engine.
//
// # Overview
//
// The engine is an external, authoritative process. simdeck reaches it only by
// invoking named commands and by subscribing to pushed events. Everything else
// in the module depends on the Channel interface rather than on a transport.
//
// # Components
//
//   - client.go: websocket Client implementing Channel
//   - dispatcher.go: ordered fire-and-forget sender used for pointer traffic
//   - journal.go: Channel decorator recording traffic as JSONL + zstd
//   - types.go: Record, command/event names and argument payloads
//   - errors.go: ErrClosed and engine-reported RemoteError codes
//
// # Wire Format
//
// Every websocket text frame is one JSON object:
//
//	{"type":"invoke","id":"<uuid>","command":"update-setting","args":{"setting_name":"feed","value":0.05}}
//	{"type":"result","id":"<uuid>","result":{...}}
//	{"type":"result","id":"<uuid>","error":{"code":"E_BAD_REQUEST","message":"..."}}
//	{"type":"event","event":"fps-update","payload":59.8}
//
// Requests are written in call order by a single writer goroutine, so the
// connection behaves as one ordered stream. Responses may arrive in any order
// and are matched by id.
//
// # Events
//
//   - simulation-initialized: fires once after engine setup, no payload
//   - fps-update: current frames per second, a JSON number
//
// # Error Handling
//
// Invoke returns a *RemoteError (wrapped) when the engine rejects a command,
// a context error on timeout, and ErrClosed once the connection is gone. No
// call is retried here; callers decide what a failure means.
package engine
