// Package session provides session lifecycle management and the high-score
// store for the Road Rotate city puzzle.
//
// The session package handles:
//   - Creating sessions around generated or hand-authored levels
//   - Case-insensitive lookup by 4-character session ID
//   - Expiry cleanup of idle sessions
//   - The file-backed best-rotations-per-difficulty record
//
// Sessions themselves live in memory only. The single piece of state that
// survives a restart is the high-score file: a JSON map from difficulty to
// the fewest rotations a solve has ever taken.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", level, engine.DifficultyEasy, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scores, err := session.NewHighScoreStore("data/highscores.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	improved, _ := scores.Record(engine.DifficultyEasy, sess.Engine.GetRotationCount())
//
// Thread Safety:
//
// Both Manager and HighScoreStore are safe for concurrent use. The engines
// held by individual sessions are not; callers must serialize operations
// per session.
package session
