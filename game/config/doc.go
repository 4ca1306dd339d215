// Package config provides hand-authored level management for the Road
// Rotate city puzzle.
//
// The config package handles:
//   - Loading complete puzzle levels from JSON files
//   - Level validation against the solvability rules
//   - Default level management with a built-in fallback
//   - Level discovery and listing
//
// Level Format:
//
// Levels are stored as JSON files in the levels directory. Each file
// carries a display name, a description and the full level payload:
// the turnpike goal, the landmark destinations, every road tile with its
// solution rotation, cosmetic decorations and the solution paths.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific level
//	file, err := manager.LoadLevel("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Sessions get their own mutable copy
//	level := file.Instantiate()
//
//	// List available levels
//	levels, err := manager.ListLevels()
//
// Validation:
//
// Every loaded or saved level passes engine.ValidateLevel: all landmarks
// must reach the turnpike under solution rotations, no road tile may be
// orphaned off every path, and no cell may exceed the connection cap.
// Invalid files are skipped during listing and rejected during loading.
package config
