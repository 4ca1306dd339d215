package service

import (
	"time"

	"github.com/citygrid/road-rotate-game/game/engine"
)

// MaxBulkRotations caps how many rotations a single bulk call may execute.
const MaxBulkRotations = 100

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string              `json:"id"`
	Difficulty     engine.Difficulty   `json:"difficulty"`
	LevelNumber    int                 `json:"level_number"`
	Seed           uint32              `json:"seed"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	PuzzleState    *engine.PuzzleState `json:"puzzle_state"`
}

// CreateSessionOptions selects what puzzle a new session starts with.
// LevelID names a hand-authored level and overrides the procedural fields;
// otherwise Difficulty, Level and Seed drive the generator. A zero Seed
// means "pick one".
type CreateSessionOptions struct {
	Difficulty engine.Difficulty `json:"difficulty"`
	Level      int               `json:"level"`
	Seed       uint32            `json:"seed"`
	LevelID    string            `json:"level_id"`
}

// RotateResult contains the result of a single rotation
type RotateResult struct {
	Success     bool                `json:"success"`
	PuzzleState *engine.PuzzleState `json:"puzzle_state"`
	Message     string              `json:"message"`
	Solved      bool                `json:"solved"`

	// High-score fields, populated only on the rotation that solves the
	// puzzle.
	NewHighScore  bool `json:"new_high_score,omitempty"`
	BestRotations int  `json:"best_rotations,omitempty"`
}

// BulkRotateResult contains the result of a sequence of rotations
type BulkRotateResult struct {
	RotationsExecuted  int                 `json:"rotations_executed"`
	RequestedRotations int                 `json:"requested_rotations"`
	Success            bool                `json:"success"`
	PuzzleState        *engine.PuzzleState `json:"puzzle_state"`
	Solved             bool                `json:"solved"`
	SolvedOnRotation   int                 `json:"solved_on_rotation,omitempty"` // 1-based index of the solving rotation
	StoppedReason      string              `json:"stopped_reason,omitempty"`
	StoppedOnRotation  int                 `json:"stopped_on_rotation,omitempty"` // 1-based index of the rotation that stopped the run
	Truncated          bool                `json:"truncated,omitempty"`
	Limit              int                 `json:"limit,omitempty"`
	Message            string              `json:"message,omitempty"`

	NewHighScore  bool `json:"new_high_score,omitempty"`
	BestRotations int  `json:"best_rotations,omitempty"`
}

// HistoryOptions configures rotation history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated rotation history
type HistoryResponse struct {
	Rotations      []engine.RotationEntry `json:"rotations"`
	TotalRotations int                    `json:"total_rotations"`
	Page           int                    `json:"page"`
	PageSize       int                    `json:"page_size"`
	TotalPages     int                    `json:"total_pages"`
	HasNext        bool                   `json:"has_next"`
	HasPrevious    bool                   `json:"has_previous"`
}

// DifficultyInfo describes one generation tier
type DifficultyInfo struct {
	Difficulty        engine.Difficulty `json:"difficulty"`
	GridSize          int               `json:"grid_size"`
	DestinationCount  int               `json:"destination_count"`
	MinPathLength     int               `json:"min_path_length"`
	DetourProbability float64           `json:"detour_probability"`
}

// LevelInfo provides information about a hand-authored level
type LevelInfo struct {
	Filename     string `json:"filename"`
	LevelID      string `json:"level_id"` // identifier to use for session creation
	Name         string `json:"name"`     // display name
	Description  string `json:"description"`
	GridSize     int    `json:"grid_size"`
	Destinations int    `json:"destinations"`
}
