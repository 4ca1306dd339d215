// Package mcp provides the Model Context Protocol interface for the Road
// Rotate city puzzle.
//
// The client is a thin proxy: every tool call is translated into a request
// against the REST API, so MCP agents and browser players always observe
// the same sessions and the same puzzle state.
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - puzzle_state: current puzzle state with a glyph grid rendering
//   - rotate_tile: rotate one tile 90 degrees clockwise
//   - bulk_rotate: execute a sequence of rotations
//   - reset_puzzle: restore the scrambled starting rotations
//   - rotation_history: paginated rotation history
//   - hint: reveal one misrotated tile
//   - create_session / get_session / list_sessions: session management
//   - list_difficulties / list_levels / high_scores: catalog lookups
//   - game_instructions: complete rules and agent strategy notes
//   - describe_tile: exact kind, rotation and open edges of one cell
//
// The rotate tools carry an "intent" parameter that is never processed;
// asking the agent to articulate its plan before rotating measurably cuts
// down on wasted rotations.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
