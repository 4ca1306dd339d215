package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/citygrid/road-rotate-game/game/engine"
	"github.com/citygrid/road-rotate-game/game/service"
)

var (
	ErrLevelNotFound = errors.New("level not found")
	ErrInvalidLevel  = errors.New("invalid level")
)

// LevelFile is a hand-authored puzzle stored as JSON: the complete level
// plus the display metadata a level browser needs.
type LevelFile struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Level       *engine.GeneratedLevel `json:"level"`
}

// Instantiate deep-copies the level so a session can rotate tiles without
// corrupting the cached original.
func (f *LevelFile) Instantiate() *engine.GeneratedLevel {
	clone := &engine.GeneratedLevel{
		Rows: f.Level.Rows,
		Cols: f.Level.Cols,
		Seed: f.Level.Seed,
	}

	copyTile := func(t *engine.TileConfig) *engine.TileConfig {
		if t == nil {
			return nil
		}
		c := *t
		return &c
	}

	clone.Goal = copyTile(f.Level.Goal)
	for _, d := range f.Level.Destinations {
		clone.Destinations = append(clone.Destinations, copyTile(d))
	}
	for _, r := range f.Level.Roads {
		clone.Roads = append(clone.Roads, copyTile(r))
	}
	for _, d := range f.Level.Decorations {
		clone.Decorations = append(clone.Decorations, copyTile(d))
	}
	for _, path := range f.Level.SolutionPaths {
		clone.SolutionPaths = append(clone.SolutionPaths, append([]engine.TilePosition(nil), path...))
	}

	return clone
}

// Manager handles hand-authored level loading and caching
type Manager struct {
	levelDir     string
	defaultLevel *LevelFile
	levels       map[string]*LevelFile
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*LevelFile),
	}

	m.mu.Lock()
	err := m.loadDefaultLevelLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level by name
func (m *Manager) LoadLevel(name string) (*LevelFile, error) {
	m.mu.RLock()
	if level, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLevelLocked(name)
}

// loadLevelLocked loads a level by name. The caller must hold the write
// lock; internal callers that already hold it use this to avoid re-locking.
func (m *Manager) loadLevelLocked(name string) (*LevelFile, error) {
	if level, exists := m.levels[name]; exists {
		return level, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	levelPath := filepath.Join(m.levelDir, filename)

	data, err := os.ReadFile(levelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var file LevelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}

	if file.Level == nil {
		return nil, fmt.Errorf("%w: no level payload", ErrInvalidLevel)
	}
	if err := engine.ValidateLevel(file.Level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	m.levels[name] = &file
	return &file, nil
}

// ListLevels returns information about all available hand-authored levels
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []*service.LevelInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")

		file, err := m.LoadLevel(name)
		if err != nil {
			// Skip invalid levels
			continue
		}

		levels = append(levels, &service.LevelInfo{
			Filename:     entry.Name(),
			LevelID:      name, // identifier to use for session creation
			Name:         file.Name,
			Description:  file.Description,
			GridSize:     file.Level.Rows,
			Destinations: len(file.Level.Destinations),
		})
	}

	return levels, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *LevelFile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache reloads all cached levels from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.levels = make(map[string]*LevelFile)

	return m.loadDefaultLevelLocked()
}

// loadDefaultLevelLocked loads the default level, preferring "classic", then
// the first valid file on disk, then the built-in level. The caller must
// hold the write lock.
func (m *Manager) loadDefaultLevelLocked() error {
	if level, err := m.loadLevelLocked("classic"); err == nil {
		m.defaultLevel = level
		return nil
	}

	entries, err := os.ReadDir(m.levelDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".json")
			if level, err := m.loadLevelLocked(name); err == nil {
				m.defaultLevel = level
				return nil
			}
		}
	}

	m.defaultLevel = BuiltinLevel()
	return nil
}

// InstantiateLevel loads a level by name and returns an independent copy a
// session may mutate. Together with ListLevels and DefaultLevel this is the
// service layer's view of the manager.
func (m *Manager) InstantiateLevel(name string) (*engine.GeneratedLevel, error) {
	file, err := m.LoadLevel(name)
	if err != nil {
		return nil, err
	}
	return file.Instantiate(), nil
}

// DefaultLevel returns an independent copy of the default level.
func (m *Manager) DefaultLevel() *engine.GeneratedLevel {
	return m.GetDefault().Instantiate()
}

// SaveLevel saves a level to disk
func (m *Manager) SaveLevel(name string, file *LevelFile) error {
	if file.Level == nil {
		return fmt.Errorf("%w: no level payload", ErrInvalidLevel)
	}
	if err := engine.ValidateLevel(file.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	levelPath := filepath.Join(m.levelDir, filename)

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	if err := os.WriteFile(levelPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[name] = file
	m.mu.Unlock()

	return nil
}

// BuiltinLevel is the hand-authored 5x5 fallback: a central turnpike with
// two landmarks connected through one straight road each. It is used when
// the level directory holds nothing usable and as the last resort when
// procedural generation exhausts its seeds.
func BuiltinLevel() *LevelFile {
	straight := func(row, col, rotation int) *engine.TileConfig {
		return &engine.TileConfig{
			Position:         engine.TilePosition{Row: row, Col: col},
			Kind:             engine.KindStraight,
			Tier:             engine.TierLocal,
			Rotation:         rotation,
			SolutionRotation: 0,
			Rotatable:        true,
		}
	}

	level := &engine.GeneratedLevel{
		Rows: 5,
		Cols: 5,
		Goal: &engine.TileConfig{
			Position: engine.TilePosition{Row: 2, Col: 2},
			Kind:     engine.KindTurnpike,
			Tier:     engine.TierTurnpike,
		},
		Destinations: []*engine.TileConfig{
			{
				Position:         engine.TilePosition{Row: 0, Col: 2},
				Kind:             engine.KindLandmark,
				Tier:             engine.TierLandmark,
				Rotation:         180,
				SolutionRotation: 180,
				LandmarkType:     "museum",
			},
			{
				Position:     engine.TilePosition{Row: 4, Col: 2},
				Kind:         engine.KindLandmark,
				Tier:         engine.TierLandmark,
				LandmarkType: "stadium",
			},
		},
		Roads: []*engine.TileConfig{
			straight(1, 2, 90),
			straight(3, 2, 90),
		},
		Decorations: []*engine.TileConfig{
			{
				Position:       engine.TilePosition{Row: 0, Col: 0},
				Kind:           engine.KindHouse,
				Tier:           engine.TierHouse,
				DecorationType: "tree",
			},
		},
		SolutionPaths: [][]engine.TilePosition{
			{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}},
			{{Row: 4, Col: 2}, {Row: 3, Col: 2}, {Row: 2, Col: 2}},
		},
	}

	return &LevelFile{
		Name:        "default",
		Description: "Built-in fallback level",
		Level:       level,
	}
}
