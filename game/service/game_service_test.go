package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/citygrid/road-rotate-game/game/config"
	"github.com/citygrid/road-rotate-game/game/engine"
	"github.com/citygrid/road-rotate-game/game/service"
	"github.com/citygrid/road-rotate-game/game/session"
)

func newTestService(t *testing.T) service.GameService {
	t.Helper()

	levelDir := t.TempDir()
	levels, err := config.NewManager(levelDir)
	if err != nil {
		t.Fatalf("Failed to create level manager: %v", err)
	}
	if err := levels.SaveLevel("classic", config.BuiltinLevel()); err != nil {
		t.Fatalf("Failed to save test level: %v", err)
	}

	scores, err := session.NewHighScoreStore(filepath.Join(t.TempDir(), "highscores.json"))
	if err != nil {
		t.Fatalf("Failed to create score store: %v", err)
	}

	return service.NewGameService(session.NewManager(), levels, scores)
}

// solveRotations lists, per rotatable tile, the rotations needed to bring
// the puzzle to its solution.
func solveRotations(state *engine.PuzzleState) []engine.TilePosition {
	var positions []engine.TilePosition
	for _, row := range state.Grid {
		for _, tile := range row {
			if tile == nil || !tile.Rotatable {
				continue
			}
			turns := ((tile.SolutionRotation - tile.Rotation) / 90) % 4
			if turns < 0 {
				turns += 4
			}
			for i := 0; i < turns; i++ {
				positions = append(positions, tile.Position)
			}
		}
	}
	return positions
}

func TestCreateSession_Procedural(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{
		Difficulty: engine.DifficultyEasy,
		Level:      1,
		Seed:       12345,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if len(info.ID) != 4 {
		t.Errorf("Expected a 4-character session ID, got %q", info.ID)
	}
	if info.Difficulty != engine.DifficultyEasy || info.LevelNumber != 1 {
		t.Errorf("Unexpected session metadata: %+v", info)
	}
	if info.PuzzleState == nil || info.PuzzleState.TotalDestinations < 1 {
		t.Error("Expected a puzzle state with destinations")
	}
	if info.Seed < 12345 || info.Seed >= 12345+engine.MaxGenerationAttempts {
		t.Errorf("Expected a retry seed near 12345, got %d", info.Seed)
	}
}

func TestCreateSession_SameSeedSameStartingGrid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	opts := service.CreateSessionOptions{Difficulty: engine.DifficultyEasy, Level: 1, Seed: 42}

	a, err := svc.CreateSession(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.CreateSession(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	for r := range a.PuzzleState.Grid {
		for c := range a.PuzzleState.Grid[r] {
			ta, tb := a.PuzzleState.Grid[r][c], b.PuzzleState.Grid[r][c]
			if (ta == nil) != (tb == nil) {
				t.Fatalf("Cell (%d,%d) differs between sessions", r, c)
			}
			if ta != nil && (ta.Kind != tb.Kind || ta.Rotation != tb.Rotation) {
				t.Fatalf("Cell (%d,%d) differs: %v vs %v", r, c, ta, tb)
			}
		}
	}
}

func TestCreateSession_InvalidDifficulty(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateSession(context.Background(), service.CreateSessionOptions{Difficulty: "extreme"})
	if err == nil {
		t.Error("Expected error for unknown difficulty")
	}
}

func TestCreateSession_HandAuthoredLevel(t *testing.T) {
	svc := newTestService(t)

	info, err := svc.CreateSession(context.Background(), service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.PuzzleState.Rows != 5 || info.PuzzleState.TotalDestinations != 2 {
		t.Errorf("Expected the 5x5 two-landmark level, got %dx%d with %d destinations",
			info.PuzzleState.Rows, info.PuzzleState.Cols, info.PuzzleState.TotalDestinations)
	}
}

func TestCreateSession_UnknownLevelID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateSession(context.Background(), service.CreateSessionOptions{LevelID: "missing"})
	if err == nil {
		t.Fatal("Expected error for unknown level ID")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.GetSession(context.Background(), "zzzz"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestRotate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	var roadPos engine.TilePosition
	found := false
	for _, row := range info.PuzzleState.Grid {
		for _, tile := range row {
			if tile != nil && tile.Rotatable {
				roadPos = tile.Position
				found = true
			}
		}
	}
	if !found {
		t.Fatal("No rotatable tile in the level")
	}

	result, err := svc.Rotate(ctx, info.ID, roadPos, false)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected rotation to succeed: %s", result.Message)
	}
	if result.PuzzleState.RotationCount != 1 {
		t.Errorf("Expected rotation count 1, got %d", result.PuzzleState.RotationCount)
	}

	// Rotating the fixed turnpike must fail without counting.
	var goalPos engine.TilePosition
	for _, row := range info.PuzzleState.Grid {
		for _, tile := range row {
			if tile != nil && tile.Kind == engine.KindTurnpike {
				goalPos = tile.Position
			}
		}
	}
	result, err = svc.Rotate(ctx, info.ID, goalPos, false)
	if err != nil {
		t.Fatalf("Rotate returned transport error: %v", err)
	}
	if result.Success {
		t.Error("Expected rotating the turnpike to fail")
	}
	if result.PuzzleState.RotationCount != 1 {
		t.Errorf("Failed rotation must not count, got %d", result.PuzzleState.RotationCount)
	}
}

func TestBulkRotate_SolvesAndRecordsHighScore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{
		Difficulty: engine.DifficultyEasy,
		Level:      1,
		Seed:       42,
	})
	if err != nil {
		t.Fatal(err)
	}

	positions := solveRotations(info.PuzzleState)
	if len(positions) == 0 {
		t.Skip("Scramble left the puzzle already solved for this seed")
	}

	result, err := svc.BulkRotate(ctx, info.ID, positions, false)
	if err != nil {
		t.Fatalf("BulkRotate failed: %v", err)
	}
	if !result.Solved {
		t.Fatalf("Expected puzzle solved, message: %s", result.Message)
	}
	if result.RotationsExecuted == 0 || result.RotationsExecuted > len(positions) {
		t.Errorf("Unexpected executed count %d for %d requested", result.RotationsExecuted, len(positions))
	}
	if !result.NewHighScore {
		t.Error("Expected the first solve to set a high score")
	}
	if result.BestRotations != result.RotationsExecuted {
		t.Errorf("Expected best %d, got %d", result.RotationsExecuted, result.BestRotations)
	}

	scores, err := svc.HighScores(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if scores[engine.DifficultyEasy] != result.BestRotations {
		t.Errorf("Expected stored best %d, got %v", result.BestRotations, scores)
	}
}

func TestBulkRotate_StopsOnFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	var roadPos, goalPos engine.TilePosition
	for _, row := range info.PuzzleState.Grid {
		for _, tile := range row {
			if tile == nil {
				continue
			}
			if tile.Rotatable {
				roadPos = tile.Position
			}
			if tile.Kind == engine.KindTurnpike {
				goalPos = tile.Position
			}
		}
	}

	result, err := svc.BulkRotate(ctx, info.ID, []engine.TilePosition{roadPos, goalPos, roadPos}, false)
	if err != nil {
		t.Fatalf("BulkRotate failed: %v", err)
	}
	if result.Success {
		t.Error("Expected bulk rotation to report failure")
	}
	if result.RotationsExecuted != 1 {
		t.Errorf("Expected 1 executed rotation, got %d", result.RotationsExecuted)
	}
	if result.StoppedOnRotation != 2 {
		t.Errorf("Expected stop on rotation 2, got %d", result.StoppedOnRotation)
	}
}

func TestBulkRotate_Truncates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	var roadPos engine.TilePosition
	for _, row := range info.PuzzleState.Grid {
		for _, tile := range row {
			if tile != nil && tile.Rotatable {
				roadPos = tile.Position
			}
		}
	}

	// 4-rotation cycles keep the tile unsolved, so nothing stops the run
	// before the cap.
	positions := make([]engine.TilePosition, service.MaxBulkRotations+40)
	for i := range positions {
		positions[i] = roadPos
	}

	result, err := svc.BulkRotate(ctx, info.ID, positions, false)
	if err != nil {
		t.Fatalf("BulkRotate failed: %v", err)
	}
	if !result.Truncated || result.Limit != service.MaxBulkRotations {
		t.Errorf("Expected truncation at %d, got truncated=%v limit=%d",
			service.MaxBulkRotations, result.Truncated, result.Limit)
	}
}

func TestReset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	var roadPos engine.TilePosition
	var initial int
	for _, row := range info.PuzzleState.Grid {
		for _, tile := range row {
			if tile != nil && tile.Rotatable {
				roadPos = tile.Position
				initial = tile.Rotation
			}
		}
	}

	if _, err := svc.Rotate(ctx, info.ID, roadPos, false); err != nil {
		t.Fatal(err)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if got := state.Grid[roadPos.Row][roadPos.Col].Rotation; got != initial {
		t.Errorf("Expected rotation restored to %d, got %d", initial, got)
	}
}

func TestGetRotationHistory_Pagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	var roadPos engine.TilePosition
	for _, row := range info.PuzzleState.Grid {
		for _, tile := range row {
			if tile != nil && tile.Rotatable {
				roadPos = tile.Position
			}
		}
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.Rotate(ctx, info.ID, roadPos, false); err != nil {
			t.Fatal(err)
		}
	}

	resp, err := svc.GetRotationHistory(ctx, info.ID, service.HistoryOptions{Page: 1, Limit: 2, Order: "desc"})
	if err != nil {
		t.Fatalf("GetRotationHistory failed: %v", err)
	}
	if resp.TotalRotations != 5 || len(resp.Rotations) != 2 {
		t.Errorf("Expected 2 of 5 rotations, got %d of %d", len(resp.Rotations), resp.TotalRotations)
	}
	if resp.TotalPages != 3 || !resp.HasNext || resp.HasPrevious {
		t.Errorf("Unexpected pagination: %+v", resp)
	}
	if resp.Rotations[0].RotationNumber != 5 {
		t.Errorf("Expected newest first, got rotation %d", resp.Rotations[0].RotationNumber)
	}

	asc, err := svc.GetRotationHistory(ctx, info.ID, service.HistoryOptions{Page: 1, Limit: 10, Order: "asc"})
	if err != nil {
		t.Fatal(err)
	}
	if asc.Rotations[0].RotationNumber != 1 {
		t.Errorf("Expected oldest first, got rotation %d", asc.Rotations[0].RotationNumber)
	}
}

func TestHint(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	hint, err := svc.Hint(ctx, info.ID)
	if err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	// The built-in level ships scrambled, so a hint must exist.
	if hint == nil {
		t.Fatal("Expected a hint for a scrambled puzzle")
	}
	tile := info.PuzzleState.Grid[hint.Position.Row][hint.Position.Col]
	if tile == nil || tile.SolutionRotation != hint.SolutionRotation {
		t.Errorf("Hint does not match the tile at %v", hint.Position)
	}
}

func TestDeleteSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{LevelID: "classic"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
}

func TestListDifficulties(t *testing.T) {
	svc := newTestService(t)

	infos := svc.ListDifficulties(context.Background())
	if len(infos) != 3 {
		t.Fatalf("Expected 3 difficulties, got %d", len(infos))
	}
	if infos[0].Difficulty != engine.DifficultyEasy || infos[0].GridSize != 5 {
		t.Errorf("Unexpected easy tier info: %+v", infos[0])
	}
	if infos[2].Difficulty != engine.DifficultyHard || infos[2].DestinationCount != 4 {
		t.Errorf("Unexpected hard tier info: %+v", infos[2])
	}
}

func TestListLevels(t *testing.T) {
	svc := newTestService(t)

	levels, err := svc.ListLevels(context.Background())
	if err != nil {
		t.Fatalf("ListLevels failed: %v", err)
	}
	if len(levels) != 1 || levels[0].LevelID != "classic" {
		t.Errorf("Expected the classic level, got %+v", levels)
	}
}
