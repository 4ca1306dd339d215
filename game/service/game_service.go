package service

import (
	"context"
	"time"

	"github.com/citygrid/road-rotate-game/game/engine"
)

// GameService defines all puzzle-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Puzzle Operations
	Rotate(ctx context.Context, sessionID string, pos engine.TilePosition, reset bool) (*RotateResult, error)
	BulkRotate(ctx context.Context, sessionID string, positions []engine.TilePosition, reset bool) (*BulkRotateResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.PuzzleState, error)
	Hint(ctx context.Context, sessionID string) (*engine.HintInfo, error)

	// Puzzle State
	GetPuzzleState(ctx context.Context, sessionID string) (*engine.PuzzleState, error)
	GetRotationHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Catalog
	ListDifficulties(ctx context.Context) []*DifficultyInfo
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	HighScores(ctx context.Context) (map[engine.Difficulty]int, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *engine.GeneratedLevel, difficulty engine.Difficulty, levelNumber int) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// LevelManager handles hand-authored level loading. Instantiated levels are
// independent copies a session may mutate freely.
type LevelManager interface {
	InstantiateLevel(name string) (*engine.GeneratedLevel, error)
	ListLevels() ([]*LevelInfo, error)
	DefaultLevel() *engine.GeneratedLevel
}

// ScoreStore records the fewest rotations a solve has taken per difficulty
type ScoreStore interface {
	Record(difficulty engine.Difficulty, rotations int) (bool, error)
	Best(difficulty engine.Difficulty) (int, bool)
	All() map[engine.Difficulty]int
}

// Session represents an active puzzle session
type Session struct {
	ID             string
	Engine         engine.Engine
	Level          *engine.GeneratedLevel
	Difficulty     engine.Difficulty
	LevelNumber    int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
