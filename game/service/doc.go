// Package service provides the business logic layer for the Road Rotate
// city puzzle.
//
// The service package sits between the transports (REST, WebSocket, MCP)
// and the engine. It owns:
//   - Session creation: procedural generation by difficulty and level
//     number, hand-authored levels by ID, and the fallback to the default
//     level when generation exhausts its retry seeds
//   - Rotation operations, single and bulk, with solve detection and
//     high-score recording
//   - Paginated rotation history
//   - The difficulty and level catalogs
//
// The GameService interface is the single entry point every transport
// shares; SessionManager, LevelManager and ScoreStore are the seams the
// session, config and high-score implementations plug into.
package service
