package engine

import (
	"testing"
)

func testLevel(t *testing.T) *GeneratedLevel {
	t.Helper()
	level, err := NewLevelGenerator().Generate(LevelParams{
		GridSize:          5,
		DestinationCount:  2,
		Difficulty:        DifficultyEasy,
		MinPathLength:     3,
		DetourProbability: 0.1,
	}, 42)
	if err != nil {
		t.Fatalf("Level generation failed: %v", err)
	}
	return level
}

func testEngine(t *testing.T) *PuzzleEngine {
	t.Helper()
	eng, err := NewPuzzleEngine(testLevel(t))
	if err != nil {
		t.Fatalf("Engine creation failed: %v", err)
	}
	return eng
}

// solve rotates every tile to its solution rotation through the engine.
func solve(t *testing.T, eng *PuzzleEngine) {
	t.Helper()
	for _, tile := range eng.Level().Tiles() {
		if !tile.Rotatable {
			continue
		}
		for tile.Rotation != tile.SolutionRotation {
			if !eng.RotateTile(tile.Position) {
				t.Fatalf("RotateTile failed at %s", tile.Position.Key())
			}
		}
	}
}

func TestNewPuzzleEngine(t *testing.T) {
	eng := testEngine(t)

	state := eng.GetState()
	if state.Rows != 5 || state.Cols != 5 {
		t.Errorf("Expected a 5x5 state, got %dx%d", state.Rows, state.Cols)
	}
	if state.TotalDestinations != 2 {
		t.Errorf("Expected 2 destinations, got %d", state.TotalDestinations)
	}
	if state.RotationCount != 0 {
		t.Errorf("Expected a fresh rotation count, got %d", state.RotationCount)
	}
	if state.Message == "" {
		t.Error("Expected an initial message")
	}
}

func TestNewPuzzleEngine_RejectsNilAndInvalid(t *testing.T) {
	if _, err := NewPuzzleEngine(nil); err == nil {
		t.Error("Expected error for nil level")
	}

	broken := testLevel(t)
	broken.Destinations = nil
	if _, err := NewPuzzleEngine(broken); err == nil {
		t.Error("Expected error for a level that fails validation")
	}
}

func TestRotateTile_CyclesThrough360(t *testing.T) {
	eng := testEngine(t)
	pos := eng.Level().Roads[0].Position
	start := eng.TileAt(pos).Rotation

	for i := 1; i <= 4; i++ {
		if !eng.RotateTile(pos) {
			t.Fatalf("Rotation %d failed", i)
		}
		want := (start + 90*i) % 360
		if got := eng.TileAt(pos).Rotation; got != want {
			t.Errorf("After %d rotations expected %d, got %d", i, want, got)
		}
	}

	if eng.GetRotationCount() != 4 {
		t.Errorf("Expected rotation count 4, got %d", eng.GetRotationCount())
	}
}

func TestRotateTile_RejectsFixedAndEmptyTiles(t *testing.T) {
	eng := testEngine(t)

	if eng.RotateTile(eng.Level().Goal.Position) {
		t.Error("Expected the turnpike to be fixed")
	}
	if eng.RotateTile(eng.Level().Destinations[0].Position) {
		t.Error("Expected landmarks to be fixed")
	}
	if eng.RotateTile(TilePosition{Row: -1, Col: 0}) {
		t.Error("Expected out-of-bounds rotation to fail")
	}
	if eng.GetRotationCount() != 0 {
		t.Errorf("Failed rotations must not count, got %d", eng.GetRotationCount())
	}
}

func TestCanRotate(t *testing.T) {
	eng := testEngine(t)

	if !eng.CanRotate(eng.Level().Roads[0].Position) {
		t.Error("Expected road tiles to be rotatable")
	}
	if eng.CanRotate(eng.Level().Goal.Position) {
		t.Error("Expected the turnpike to be fixed")
	}
	if eng.CanRotate(TilePosition{Row: 99, Col: 99}) {
		t.Error("Expected out-of-bounds to be non-rotatable")
	}
}

func TestSolveDetection(t *testing.T) {
	eng := testEngine(t)

	solve(t, eng)

	if !eng.IsSolved() {
		t.Fatal("Expected puzzle to be solved once every tile matches its solution rotation")
	}
	state := eng.GetState()
	if len(state.ConnectedDestinations) != state.TotalDestinations {
		t.Errorf("Expected all %d destinations connected, got %d",
			state.TotalDestinations, len(state.ConnectedDestinations))
	}
}

func TestSolveDetection_BreaksOnFurtherRotation(t *testing.T) {
	eng := testEngine(t)
	solve(t, eng)

	// One more quarter turn on any road tile must break at least the case
	// where that tile carried a path.
	pos := eng.Level().Roads[0].Position
	eng.RotateTile(pos)
	eng.RotateTile(pos)
	tile := eng.TileAt(pos)
	if tile.Rotation == tile.SolutionRotation {
		t.Fatal("Expected the tile to be off its solution rotation")
	}

	// Restore and the puzzle must be solved again.
	for tile.Rotation != tile.SolutionRotation {
		eng.RotateTile(pos)
	}
	if !eng.IsSolved() {
		t.Error("Expected puzzle solved after restoring the solution rotation")
	}
}

func TestRotationHistory(t *testing.T) {
	eng := testEngine(t)
	pos := eng.Level().Roads[0].Position

	if eng.GetLastRotation() != nil {
		t.Error("Expected no last rotation on a fresh engine")
	}

	eng.RotateTile(pos)
	eng.RotateTile(pos)

	history := eng.GetRotationHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if history[0].RotationNumber != 1 || history[1].RotationNumber != 2 {
		t.Errorf("Expected sequential rotation numbers, got %d and %d",
			history[0].RotationNumber, history[1].RotationNumber)
	}
	if history[1].FromRotation != history[0].ToRotation {
		t.Error("Expected consecutive entries on one tile to chain rotations")
	}

	last := eng.GetLastRotation()
	if last == nil || last.Position != pos || last.RotationNumber != 2 {
		t.Errorf("Unexpected last rotation: %+v", last)
	}
}

func TestReset(t *testing.T) {
	eng := testEngine(t)
	pos := eng.Level().Roads[0].Position
	initial := eng.TileAt(pos).Rotation

	eng.RotateTile(pos)
	eng.RotateTile(pos)

	state := eng.Reset()

	if got := eng.TileAt(pos).Rotation; got != initial {
		t.Errorf("Expected tile restored to %d, got %d", initial, got)
	}
	// Rotation history is cumulative across resets.
	if len(state.History) != 2 {
		t.Errorf("Expected history to survive reset, got %d entries", len(state.History))
	}
	if state.RotationCount != 2 {
		t.Errorf("Expected rotation count to survive reset, got %d", state.RotationCount)
	}
}

func TestHint(t *testing.T) {
	eng := testEngine(t)

	hint := eng.Hint()
	if hint == nil {
		// The scramble may leave every tile on its solution rotation; force a
		// misrotation so there is something to hint at.
		pos := eng.Level().Roads[0].Position
		eng.RotateTile(pos)
		tile := eng.TileAt(pos)
		if tile.Rotation == tile.SolutionRotation {
			eng.RotateTile(pos)
		}
		hint = eng.Hint()
	}
	if hint == nil {
		t.Fatal("Expected a hint while tiles are misrotated")
	}

	tile := eng.TileAt(hint.Position)
	if tile == nil || tile.Rotation == tile.SolutionRotation {
		t.Errorf("Hint points at %v which is not misrotated", hint.Position)
	}
	if hint.SolutionRotation != tile.SolutionRotation {
		t.Errorf("Hint solution rotation %d does not match tile %d", hint.SolutionRotation, tile.SolutionRotation)
	}
	if hint.Remaining < 1 {
		t.Errorf("Expected at least one remaining misrotation, got %d", hint.Remaining)
	}
}

func TestHint_NilWhenSolved(t *testing.T) {
	eng := testEngine(t)
	solve(t, eng)

	if hint := eng.Hint(); hint != nil {
		t.Errorf("Expected no hint on a solved puzzle, got %+v", hint)
	}
}
