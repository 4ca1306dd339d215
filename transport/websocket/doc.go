// Package websocket provides real-time puzzle state broadcasting.
//
// The hub tracks viewers per session ID. After every rotation, reset or
// bulk run, the REST layer hands the fresh puzzle state to
// BroadcastToSession and every connected viewer of that session receives a
// "puzzle_update" message (or "solved" once all landmarks reach the
// turnpike). Connections are broadcast-only; incoming messages are read
// solely to service ping/pong keepalive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	// In the HTTP layer:
//	hub.ServeWS(w, r, sessionID)
//	hub.BroadcastToSession(sessionID, state)
package websocket
