// Package api provides the REST interface for the Road Rotate city puzzle.
//
// Routes (all JSON, under /api):
//
//	POST   /sessions                    create a session (procedural or by level_id)
//	GET    /sessions                    list sessions (sort, order, limit)
//	GET    /sessions/{id}               session details
//	DELETE /sessions/{id}               delete a session
//	GET    /sessions/{id}/state         current puzzle state
//	POST   /sessions/{id}/rotate        rotate one tile {row, col, reset}
//	POST   /sessions/{id}/bulk-rotate   rotate a sequence {rotations, reset}
//	POST   /sessions/{id}/reset         restore the scrambled rotations
//	GET    /sessions/{id}/history       paginated rotation history
//	GET    /sessions/{id}/hint          reveal one misrotated tile
//	GET    /difficulties                generation tiers and their parameters
//	GET    /levels                      hand-authored level catalog
//	GET    /highscores                  best rotation counts per difficulty
//	GET    /health                      liveness probe
//
// GET /ws?session={id} upgrades to a WebSocket that receives puzzle state
// broadcasts after every mutating operation.
//
// Errors are returned as {"error": "..."} with conventional status codes:
// 400 for malformed requests, 404 for unknown sessions, 201 on creation.
package api
