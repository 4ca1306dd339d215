// Command validate checks hand-authored level JSON files in a directory.
// It verifies:
//   - JSON structure and required fields
//   - Tile sanity: known kinds, 90-degree rotations, in-bounds positions,
//     no two tiles on the same cell
//   - Presence of exactly one turnpike and at least one landmark
//   - Fixed tiles keep their solution rotation
//   - Connectivity: every landmark reaches the turnpike at the solution
//     rotations, and no road tile is an orphan
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/citygrid/road-rotate-game/game/config"
	"github.com/citygrid/road-rotate-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

var validKinds = map[engine.TileKind]bool{
	engine.KindStraight:   true,
	engine.KindCorner:     true,
	engine.KindTJunction:  true,
	engine.KindCrossroads: true,
	engine.KindHouse:      true,
	engine.KindLandmark:   true,
	engine.KindTurnpike:   true,
}

// validateLevelFile loads and validates a single level JSON file.
func validateLevelFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var file config.LevelFile
	if err := json.Unmarshal(data, &file); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if file.Name == "" {
		result.fail("Missing level name")
	}
	if file.Level == nil {
		result.fail("Missing level payload")
		return result
	}

	level := file.Level
	if level.Rows < 2 || level.Cols < 2 {
		result.fail("Grid too small: %dx%d", level.Rows, level.Cols)
	}

	if level.Goal == nil {
		result.fail("Must have a turnpike tile")
	}

	if len(level.Destinations) == 0 {
		result.fail("Must have at least 1 landmark")
	}

	// Per-tile sanity checks
	seen := map[string]bool{}
	rotatableRoads := 0
	for _, tile := range level.Tiles() {
		if tile == nil {
			continue
		}
		pos := tile.Position

		if pos.Row < 0 || pos.Row >= level.Rows || pos.Col < 0 || pos.Col >= level.Cols {
			result.fail("Tile at (%d,%d) is outside the %dx%d grid", pos.Row, pos.Col, level.Rows, level.Cols)
		}
		if seen[pos.Key()] {
			result.fail("Two tiles share the cell (%d,%d)", pos.Row, pos.Col)
		}
		seen[pos.Key()] = true

		if !validKinds[tile.Kind] {
			result.fail("Tile at (%d,%d) has unknown kind %q", pos.Row, pos.Col, tile.Kind)
		}
		if tile.Rotation%90 != 0 || tile.Rotation < 0 || tile.Rotation >= 360 {
			result.fail("Tile at (%d,%d) has invalid rotation %d", pos.Row, pos.Col, tile.Rotation)
		}
		if tile.SolutionRotation%90 != 0 || tile.SolutionRotation < 0 || tile.SolutionRotation >= 360 {
			result.fail("Tile at (%d,%d) has invalid solution rotation %d", pos.Row, pos.Col, tile.SolutionRotation)
		}
		if !tile.Rotatable && tile.Rotation != tile.SolutionRotation {
			result.fail("Fixed tile at (%d,%d) is away from its solution rotation", pos.Row, pos.Col)
		}
		if tile.Rotatable {
			rotatableRoads++
		}
	}

	for _, tile := range level.Destinations {
		if tile != nil && tile.Kind != engine.KindLandmark {
			result.fail("Destination at (%d,%d) must be a landmark, got %q",
				tile.Position.Row, tile.Position.Col, tile.Kind)
		}
	}
	if level.Goal != nil && level.Goal.Kind != engine.KindTurnpike {
		result.fail("Goal must be a turnpike, got %q", level.Goal.Kind)
	}

	// Connectivity validation over the solution rotations
	if result.Valid {
		if err := engine.ValidateLevel(level); err != nil {
			result.fail("Connectivity failure: %v", err)
		}
	}

	// Add informational data
	if result.Valid {
		result.info("✓ Name: %s", file.Name)
		result.info("✓ Grid: %dx%d", level.Rows, level.Cols)
		result.info("✓ Landmarks: %d", len(level.Destinations))
		result.info("✓ Road tiles: %d (%d rotatable)", len(level.Roads), rotatableRoads)
		result.info("✓ Decorations: %d", len(level.Decorations))
		result.info("✓ Connectivity: all %d landmarks reach the turnpike", len(level.Destinations))
	}

	return result
}

// main scans a level directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	levelDir := "levels"
	if len(os.Args) > 1 {
		levelDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(levelDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No level files found in %s\n", levelDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLevelFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
