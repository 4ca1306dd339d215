// Package engine provides the core logic for the Road Rotate city puzzle.
//
// The engine package implements:
//   - Deterministic, seed-reproducible level generation with a solvability
//     guarantee (placement, random-walk road carving, tile assignment,
//     scrambling, bounded seed retries)
//   - A grid connectivity validator (connection graph construction plus
//     breadth-first reachability queries)
//   - The rotate-and-check gameplay loop over a generated level
//
// Core Types:
//
// LevelGenerator turns a LevelParams set and a seed into a GeneratedLevel:
// one turnpike goal, a set of landmark destinations, a connected road
// network between them, the hidden solution rotations, and the scrambled
// starting rotations. The Engine interface, implemented by PuzzleEngine,
// drives play: every tile rotation rebuilds the connection graph and
// re-checks that each landmark reaches the turnpike.
//
// Usage:
//
//	gen := engine.NewLevelGenerator()
//	level, err := gen.Generate(engine.ParamsForLevel(engine.DifficultyEasy, 1), 12345)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := engine.NewPuzzleEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//	puzzle.RotateTile(engine.TilePosition{Row: 1, Col: 2})
//	if puzzle.IsSolved() {
//		// ...
//	}
//
// Determinism:
//
// All randomness flows through one XORShift32 instance per generation
// attempt, so the same parameters and seed always produce bit-identical
// levels. Seeds that produce unsatisfiable layouts are remembered and
// skipped on later calls.
package engine
