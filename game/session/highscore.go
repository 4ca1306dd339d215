package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/citygrid/road-rotate-game/game/engine"
)

// HighScoreStore is a file-backed record of the fewest rotations a solved
// puzzle has ever taken, per difficulty. It is the only state the game
// persists across restarts.
type HighScoreStore struct {
	path   string
	scores map[engine.Difficulty]int
	mu     sync.RWMutex
}

// NewHighScoreStore opens (or creates) the store at path. A missing file
// starts the store empty; a corrupt file is an error so scores are never
// silently discarded.
func NewHighScoreStore(path string) (*HighScoreStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create high-score directory: %w", err)
	}

	s := &HighScoreStore{
		path:   path,
		scores: make(map[engine.Difficulty]int),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read high-score file: %w", err)
	}

	if err := json.Unmarshal(data, &s.scores); err != nil {
		return nil, fmt.Errorf("failed to parse high-score file: %w", err)
	}

	return s, nil
}

// Record submits a solve result. It returns true when the result improves
// on the stored best (or is the first for its difficulty), in which case
// the store is written back to disk.
func (s *HighScoreStore) Record(difficulty engine.Difficulty, rotations int) (bool, error) {
	if rotations < 1 {
		return false, fmt.Errorf("high score: rotations must be at least 1, got %d", rotations)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	best, exists := s.scores[difficulty]
	if exists && rotations >= best {
		return false, nil
	}

	s.scores[difficulty] = rotations
	if err := s.save(); err != nil {
		return false, err
	}
	return true, nil
}

// Best returns the stored best rotation count for a difficulty.
func (s *HighScoreStore) Best(difficulty engine.Difficulty) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, exists := s.scores[difficulty]
	return best, exists
}

// All returns a copy of every stored score.
func (s *HighScoreStore) All() map[engine.Difficulty]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[engine.Difficulty]int, len(s.scores))
	for d, v := range s.scores {
		out[d] = v
	}
	return out
}

// save writes the scores under the lock held by the caller.
func (s *HighScoreStore) save() error {
	data, err := json.MarshalIndent(s.scores, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal high scores: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write high-score file: %w", err)
	}
	return nil
}
