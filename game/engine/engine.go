package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Puzzle state management
	GetState() *PuzzleState
	Level() *GeneratedLevel
	Reset() *PuzzleState
	IsSolved() bool
	GetRotationCount() int

	// Tile operations
	RotateTile(pos TilePosition) bool
	CanRotate(pos TilePosition) bool
	TileAt(pos TilePosition) *TileConfig

	// History
	GetRotationHistory() []RotationEntry
	GetLastRotation() *RotationEntry

	// Assistance
	Hint() *HintInfo
}

// PuzzleState represents the complete, client-visible puzzle state
type PuzzleState struct {
	Rows                  int              `json:"rows"`
	Cols                  int              `json:"cols"`
	Grid                  [][]*TileConfig  `json:"grid"`
	Solved                bool             `json:"solved"`
	ConnectedDestinations []TilePosition   `json:"connected_destinations"`
	TotalDestinations     int              `json:"total_destinations"`
	RotationCount         int              `json:"rotation_count"`
	Message               string           `json:"message"`
	History               []RotationEntry  `json:"history"`
}

// RotationEntry records a single tile rotation
type RotationEntry struct {
	Position       TilePosition `json:"position"`
	FromRotation   int          `json:"from_rotation"`
	ToRotation     int          `json:"to_rotation"`
	Solved         bool         `json:"solved"`
	Timestamp      int64        `json:"timestamp"`
	RotationNumber int          `json:"rotation_number"`
}

// HintInfo reveals the solution rotation of one misrotated tile
type HintInfo struct {
	Position         TilePosition `json:"position"`
	CurrentRotation  int          `json:"current_rotation"`
	SolutionRotation int          `json:"solution_rotation"`
	Remaining        int          `json:"remaining"` // misrotated tiles left, including this one
}

// PuzzleEngine implements the Engine interface over one generated level.
// It mutates the level's current tile rotations as the player plays; the
// solution rotations are never touched.
type PuzzleEngine struct {
	level *GeneratedLevel
	state *PuzzleState

	// initialRotations preserves the scrambled starting rotations so Reset
	// can restore them.
	initialRotations map[string]int
}

// NewPuzzleEngine creates an engine for a validated generated level.
func NewPuzzleEngine(level *GeneratedLevel) (*PuzzleEngine, error) {
	if level == nil {
		return nil, fmt.Errorf("level cannot be nil")
	}
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	e := &PuzzleEngine{
		level:            level,
		initialRotations: make(map[string]int),
	}
	for _, t := range level.Tiles() {
		e.initialRotations[t.Position.Key()] = t.Rotation
	}

	e.state = e.freshState()
	e.refreshConnectivity()
	e.state.Message = fmt.Sprintf("Connect all %d landmarks to the turnpike!", len(level.Destinations))
	return e, nil
}

func (e *PuzzleEngine) freshState() *PuzzleState {
	return &PuzzleState{
		Rows:              e.level.Rows,
		Cols:              e.level.Cols,
		Grid:              e.level.Grid(),
		TotalDestinations: len(e.level.Destinations),
		History:           []RotationEntry{},
	}
}

// GetState returns the current puzzle state
func (e *PuzzleEngine) GetState() *PuzzleState {
	return e.state
}

// Level returns the underlying generated level
func (e *PuzzleEngine) Level() *GeneratedLevel {
	return e.level
}

// IsSolved returns whether every destination currently reaches the goal
func (e *PuzzleEngine) IsSolved() bool {
	return e.state.Solved
}

// GetRotationCount returns how many rotations the player has made
func (e *PuzzleEngine) GetRotationCount() int {
	return e.state.RotationCount
}

// TileAt returns the tile at pos, or nil for an empty cell or a position
// outside the grid.
func (e *PuzzleEngine) TileAt(pos TilePosition) *TileConfig {
	if pos.Row < 0 || pos.Row >= e.state.Rows || pos.Col < 0 || pos.Col >= e.state.Cols {
		return nil
	}
	return e.state.Grid[pos.Row][pos.Col]
}

// CanRotate checks whether the tile at pos exists and is player-rotatable
func (e *PuzzleEngine) CanRotate(pos TilePosition) bool {
	tile := e.TileAt(pos)
	return tile != nil && tile.Rotatable
}

// RotateTile rotates the tile at pos by 90 degrees clockwise and re-checks
// connectivity against the new rotation state. Returns false for empty,
// out-of-bounds or fixed tiles.
func (e *PuzzleEngine) RotateTile(pos TilePosition) bool {
	tile := e.TileAt(pos)
	if tile == nil || !tile.Rotatable {
		e.state.Message = fmt.Sprintf("Tile at (%d,%d) cannot be rotated", pos.Row, pos.Col)
		return false
	}

	from := tile.Rotation
	tile.Rotation = (tile.Rotation + 90) % 360
	e.state.RotationCount++

	e.refreshConnectivity()

	entry := RotationEntry{
		Position:       pos,
		FromRotation:   from,
		ToRotation:     tile.Rotation,
		Solved:         e.state.Solved,
		Timestamp:      time.Now().Unix(),
		RotationNumber: e.state.RotationCount,
	}
	e.state.History = append(e.state.History, entry)

	if e.state.Solved {
		e.state.Message = fmt.Sprintf("Solved in %d rotations!", e.state.RotationCount)
	} else {
		e.state.Message = fmt.Sprintf("%d/%d landmarks connected",
			len(e.state.ConnectedDestinations), e.state.TotalDestinations)
	}

	return true
}

// refreshConnectivity rebuilds the connection graph from the current
// rotation state (not the stored solution) and recomputes which
// destinations reach the goal. This is the live solve detection the UI
// relies on after every rotation.
func (e *PuzzleEngine) refreshConnectivity() {
	graph := BuildConnectionGraph(e.state.Grid)
	goals := []*TileConfig{e.level.Goal}

	e.state.ConnectedDestinations = e.state.ConnectedDestinations[:0]
	for _, dest := range e.level.Destinations {
		for _, goal := range goals {
			if FindPath(dest.Position, goal.Position, graph).Exists {
				e.state.ConnectedDestinations = append(e.state.ConnectedDestinations, dest.Position)
				break
			}
		}
	}

	e.state.Solved = len(e.state.ConnectedDestinations) == e.state.TotalDestinations
}

// Reset restores the scrambled initial rotations. The cumulative rotation
// history survives the reset; only the current puzzle positions revert.
func (e *PuzzleEngine) Reset() *PuzzleState {
	prevHistory := e.state.History
	prevCount := e.state.RotationCount

	for _, t := range e.level.Tiles() {
		t.Rotation = e.initialRotations[t.Position.Key()]
	}

	e.state = e.freshState()
	e.state.History = prevHistory
	e.state.RotationCount = prevCount
	e.refreshConnectivity()
	e.state.Message = "Puzzle reset to its scrambled state"

	return e.state
}

// GetRotationHistory returns the complete rotation history
func (e *PuzzleEngine) GetRotationHistory() []RotationEntry {
	return e.state.History
}

// GetLastRotation returns the last rotation made, or nil if none
func (e *PuzzleEngine) GetLastRotation() *RotationEntry {
	if len(e.state.History) == 0 {
		return nil
	}
	return &e.state.History[len(e.state.History)-1]
}

// Hint picks the first misrotated road tile in row-major order and reveals
// its solution rotation. Returns nil when every tile already matches.
func (e *PuzzleEngine) Hint() *HintInfo {
	var first *TileConfig
	remaining := 0

	for r := 0; r < e.state.Rows; r++ {
		for c := 0; c < e.state.Cols; c++ {
			tile := e.state.Grid[r][c]
			if tile == nil || !tile.Rotatable {
				continue
			}
			if tile.Rotation != tile.SolutionRotation {
				remaining++
				if first == nil {
					first = tile
				}
			}
		}
	}

	if first == nil {
		return nil
	}
	return &HintInfo{
		Position:         first.Position,
		CurrentRotation:  first.Rotation,
		SolutionRotation: first.SolutionRotation,
		Remaining:        remaining,
	}
}
