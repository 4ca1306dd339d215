package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/citygrid/road-rotate-game/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	levels    LevelManager
	scores    ScoreStore
	generator *engine.LevelGenerator
	mu        sync.RWMutex
}

// NewGameService creates a new game service instance. The scores store may
// be nil, in which case solves are not recorded.
func NewGameService(sessions SessionManager, levels LevelManager, scores ScoreStore) GameService {
	return &gameServiceImpl{
		sessions:  sessions,
		levels:    levels,
		scores:    scores,
		generator: engine.NewLevelGenerator(),
	}
}

// CreateSession creates a new puzzle session. Hand-authored levels are
// selected by LevelID; everything else goes through the procedural
// generator, falling back to the default level if generation exhausts its
// retry seeds.
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.GeneratedLevel

	if opts.LevelID != "" {
		var err error
		level, err = s.levels.InstantiateLevel(opts.LevelID)
		if err != nil {
			available, listErr := s.levels.ListLevels()
			if listErr == nil && len(available) > 0 {
				var ids []string
				for _, l := range available {
					ids = append(ids, l.LevelID)
				}
				return nil, fmt.Errorf("level '%s' not found. Available levels: %v", opts.LevelID, ids)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", opts.LevelID, err)
		}
	} else {
		difficulty := opts.Difficulty
		if difficulty == "" {
			difficulty = engine.DifficultyEasy
		}
		if !difficulty.Valid() {
			return nil, fmt.Errorf("unknown difficulty %q, must be one of %v", difficulty, engine.Difficulties)
		}
		levelNumber := opts.Level
		if levelNumber < 1 {
			levelNumber = 1
		}
		seed := opts.Seed
		if seed == 0 {
			seed = uint32(time.Now().UnixNano())
		}

		params := engine.ParamsForLevel(difficulty, levelNumber)
		generated, err := s.generator.Generate(params, seed)
		if err != nil {
			if !errors.Is(err, engine.ErrGenerationExhausted) {
				return nil, fmt.Errorf("failed to generate level: %w", err)
			}
			log.Printf("[SVC] generation exhausted for difficulty=%s level=%d seed=%d, using default level", difficulty, levelNumber, seed)
			generated = s.levels.DefaultLevel()
		}
		level = generated
		opts.Difficulty = difficulty
		opts.Level = levelNumber
	}

	session, err := s.sessions.Create("", level, opts.Difficulty, opts.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Rotate executes a single tile rotation for a session
func (s *gameServiceImpl) Rotate(ctx context.Context, sessionID string, pos engine.TilePosition, reset bool) (*RotateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if reset {
		sess.Engine.Reset()
	}

	wasSolved := sess.Engine.IsSolved()
	success := sess.Engine.RotateTile(pos)
	state := sess.Engine.GetState()

	result := &RotateResult{
		Success:     success,
		PuzzleState: state,
		Message:     state.Message,
		Solved:      state.Solved,
	}

	if success && state.Solved && !wasSolved {
		result.NewHighScore, result.BestRotations = s.recordSolve(sess)
	}

	return result, nil
}

// BulkRotate executes a sequence of rotations, stopping early on the first
// failed rotation or once the puzzle is solved.
func (s *gameServiceImpl) BulkRotate(ctx context.Context, sessionID string, positions []engine.TilePosition, reset bool) (*BulkRotateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if reset {
		sess.Engine.Reset()
	}

	result := &BulkRotateResult{
		RequestedRotations: len(positions),
		Success:            true,
	}

	if len(positions) > MaxBulkRotations {
		result.Truncated = true
		result.Limit = MaxBulkRotations
		positions = positions[:MaxBulkRotations]
	}

	wasSolved := sess.Engine.IsSolved()

	for i, pos := range positions {
		if sess.Engine.IsSolved() {
			result.StoppedReason = "puzzle already solved"
			result.StoppedOnRotation = i + 1
			break
		}

		if !sess.Engine.RotateTile(pos) {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("rotation %d failed: tile at (%d,%d) cannot be rotated", i+1, pos.Row, pos.Col)
			result.StoppedOnRotation = i + 1
			break
		}
		result.RotationsExecuted++

		if sess.Engine.IsSolved() {
			result.SolvedOnRotation = i + 1
		}
	}

	state := sess.Engine.GetState()
	result.PuzzleState = state
	result.Solved = state.Solved
	result.Message = state.Message

	if state.Solved && !wasSolved {
		result.NewHighScore, result.BestRotations = s.recordSolve(sess)
	}

	return result, nil
}

// Reset restores a session's puzzle to its scrambled starting rotations
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.PuzzleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.Reset(), nil
}

// Hint reveals the solution rotation of one misrotated tile
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*engine.HintInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.Hint(), nil
}

// GetPuzzleState retrieves the current puzzle state
func (s *gameServiceImpl) GetPuzzleState(ctx context.Context, sessionID string) (*engine.PuzzleState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetRotationHistory returns paginated rotation history
func (s *gameServiceImpl) GetRotationHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetRotationHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var rotations []engine.RotationEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			rotations = append(rotations, history[i])
		}
	} else {
		if start < total {
			rotations = history[start:end]
		}
	}
	if rotations == nil {
		rotations = []engine.RotationEntry{}
	}

	return &HistoryResponse{
		Rotations:      rotations,
		TotalRotations: total,
		Page:           opts.Page,
		PageSize:       opts.Limit,
		TotalPages:     totalPages,
		HasNext:        opts.Page < totalPages,
		HasPrevious:    opts.Page > 1,
	}, nil
}

// ListDifficulties returns the supported generation tiers with their
// level-1 parameters.
func (s *gameServiceImpl) ListDifficulties(ctx context.Context) []*DifficultyInfo {
	result := make([]*DifficultyInfo, 0, len(engine.Difficulties))
	for _, d := range engine.Difficulties {
		params := engine.ParamsForLevel(d, 1)
		result = append(result, &DifficultyInfo{
			Difficulty:        d,
			GridSize:          params.GridSize,
			DestinationCount:  params.DestinationCount,
			MinPathLength:     params.MinPathLength,
			DetourProbability: params.DetourProbability,
		})
	}
	return result
}

// ListLevels returns available hand-authored levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// HighScores returns the best rotation counts per difficulty
func (s *gameServiceImpl) HighScores(ctx context.Context) (map[engine.Difficulty]int, error) {
	if s.scores == nil {
		return map[engine.Difficulty]int{}, nil
	}
	return s.scores.All(), nil
}

// recordSolve submits a finished puzzle to the score store and returns
// whether it set a new best plus the stored best.
func (s *gameServiceImpl) recordSolve(sess *Session) (improved bool, best int) {
	if s.scores == nil || sess.Difficulty == "" {
		return false, 0
	}

	rotations := sess.Engine.GetRotationCount()
	improved, err := s.scores.Record(sess.Difficulty, rotations)
	if err != nil {
		log.Printf("[SVC] failed to record high score for session %s: %v", sess.ID, err)
		return false, 0
	}

	best, _ = s.scores.Best(sess.Difficulty)
	return improved, best
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		Difficulty:     sess.Difficulty,
		LevelNumber:    sess.LevelNumber,
		Seed:           sess.Level.Seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		PuzzleState:    sess.Engine.GetState(),
	}
}
