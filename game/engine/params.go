package engine

import "fmt"

// Difficulty names a generation tier. It decides where the goal node is
// placed and scales the numeric parameters derived by ParamsForLevel.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the supported tiers in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d names a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// LevelParams are the five parameters the generator consumes. How they are
// derived (difficulty tier, level number in the surrounding game) is not the
// generator's concern.
type LevelParams struct {
	GridSize          int        `json:"grid_size"`
	DestinationCount  int        `json:"destination_count"`
	Difficulty        Difficulty `json:"difficulty"`
	MinPathLength     int        `json:"min_path_length"`
	DetourProbability float64    `json:"detour_probability"`
}

// Validate checks the parameter set for basic sanity before generation.
func (p LevelParams) Validate() error {
	if p.GridSize < MinGridSize || p.GridSize > MaxGridSize {
		return fmt.Errorf("params validation: grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, p.GridSize)
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("params validation: unknown difficulty %q", p.Difficulty)
	}
	if p.DestinationCount < 1 {
		return fmt.Errorf("params validation: destination_count must be at least 1, got %d", p.DestinationCount)
	}
	if p.MinPathLength < 1 {
		return fmt.Errorf("params validation: min_path_length must be at least 1, got %d", p.MinPathLength)
	}
	if p.DetourProbability < 0 || p.DetourProbability >= 1 {
		return fmt.Errorf("params validation: detour_probability must be in [0, 1), got %v", p.DetourProbability)
	}
	return nil
}

// ParamsForLevel derives the generator parameters for a difficulty tier and
// a 1-based level number in the surrounding game. Grids grow and walks get
// wigglier as the player advances.
func ParamsForLevel(difficulty Difficulty, level int) LevelParams {
	if level < 1 {
		level = 1
	}

	params := LevelParams{Difficulty: difficulty}

	switch difficulty {
	case DifficultyMedium:
		params.GridSize = 6
		params.DestinationCount = 3
		params.MinPathLength = 4
		params.DetourProbability = 0.2
	case DifficultyHard:
		params.GridSize = 7
		params.DestinationCount = 4
		params.MinPathLength = 5
		params.DetourProbability = 0.3
	default:
		params.GridSize = 5
		params.DestinationCount = 2
		params.MinPathLength = 3
		params.DetourProbability = 0.1
	}

	// Growth by level number, capped so generation stays comfortably feasible.
	params.GridSize += min((level-1)/2, 3)
	params.DestinationCount += min((level-1)/4, 2)
	params.DetourProbability = min(params.DetourProbability+0.02*float64(level-1), 0.45)

	return params
}
