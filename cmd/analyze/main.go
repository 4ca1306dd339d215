// Command analyze inspects the procedural level generator. It sweeps seed
// ranges for generation statistics, renders single levels as ASCII grids and
// runs the solver, either on a freshly generated level or against a live
// server session.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/citygrid/road-rotate-game/game/engine"
	"github.com/citygrid/road-rotate-game/game/service"
	"github.com/citygrid/road-rotate-game/solver"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Generation and solver analysis for road-rotate levels",
		Commands: []*cli.Command{
			{
				Name:  "sweep",
				Usage: "Generate a range of seeds and report success statistics",
				Flags: append(paramFlags(),
					&cli.UintFlag{Name: "start-seed", Value: 1, Usage: "First seed of the sweep"},
					&cli.IntFlag{Name: "count", Value: 100, Usage: "Number of seeds to try"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					params, err := paramsFromFlags(cmd)
					if err != nil {
						return err
					}
					stats := runSweep(params, uint32(cmd.Uint("start-seed")), int(cmd.Int("count")))
					fmt.Print(stats)
					return nil
				},
			},
			{
				Name:  "inspect",
				Usage: "Generate one level and render it",
				Flags: append(paramFlags(),
					&cli.UintFlag{Name: "seed", Value: 1, Usage: "Generation seed"},
					&cli.BoolFlag{Name: "solved", Usage: "Render the solution rotations instead of the scrambled state"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					params, err := paramsFromFlags(cmd)
					if err != nil {
						return err
					}
					level, err := engine.NewLevelGenerator().Generate(params, uint32(cmd.Uint("seed")))
					if err != nil {
						return err
					}
					fmt.Print(describeLevel(level, cmd.Bool("solved")))
					return nil
				},
			},
			{
				Name:  "solve",
				Usage: "Solve a generated level, or a live session when --url is given",
				Flags: append(paramFlags(),
					&cli.UintFlag{Name: "seed", Value: 1, Usage: "Generation seed (local mode)"},
					&cli.StringFlag{Name: "url", Usage: "Server base URL, e.g. http://localhost:8080"},
					&cli.StringFlag{Name: "session", Usage: "Session ID on the server (requires --url)"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if url := cmd.String("url"); url != "" {
						session := cmd.String("session")
						if session == "" {
							return fmt.Errorf("--session is required with --url")
						}
						return solveRemote(url, session)
					}

					params, err := paramsFromFlags(cmd)
					if err != nil {
						return err
					}
					return solveLocal(params, uint32(cmd.Uint("seed")))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func paramFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "difficulty", Value: "easy", Usage: "easy, medium or hard"},
		&cli.IntFlag{Name: "level", Value: 1, Usage: "Level number within the difficulty"},
	}
}

func paramsFromFlags(cmd *cli.Command) (engine.LevelParams, error) {
	difficulty := engine.Difficulty(cmd.String("difficulty"))
	if !difficulty.Valid() {
		return engine.LevelParams{}, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	return engine.ParamsForLevel(difficulty, int(cmd.Int("level"))), nil
}

// SweepStats aggregates the outcome of generating a contiguous seed range.
type SweepStats struct {
	Params    engine.LevelParams
	StartSeed uint32
	Count     int

	Generated   int
	Exhausted   int
	RetriesUsed int // extra attempts beyond the first, summed over all seeds

	RoadTiles      int // summed over generated levels
	ShortestPath   int
	LongestPath    int
	PathLengthsSum int
	PathCount      int
}

func runSweep(params engine.LevelParams, startSeed uint32, count int) *SweepStats {
	stats := &SweepStats{
		Params:       params,
		StartSeed:    startSeed,
		Count:        count,
		ShortestPath: int(^uint(0) >> 1),
	}

	for i := 0; i < count; i++ {
		gen := engine.NewLevelGenerator()
		level, err := gen.Generate(params, startSeed+uint32(i))
		stats.RetriesUsed += gen.KnownBadSeeds()
		if err != nil {
			stats.Exhausted++
			// KnownBadSeeds counts every failed attempt; one of them was
			// the first try, not a retry.
			stats.RetriesUsed--
			continue
		}
		stats.Generated++

		stats.RoadTiles += len(level.Roads)
		for _, path := range level.SolutionPaths {
			n := len(path)
			stats.PathCount++
			stats.PathLengthsSum += n
			if n < stats.ShortestPath {
				stats.ShortestPath = n
			}
			if n > stats.LongestPath {
				stats.LongestPath = n
			}
		}
	}

	return stats
}

func (s *SweepStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sweep: difficulty=%s grid=%dx%d destinations=%d seeds=[%d..%d]\n",
		s.Params.Difficulty, s.Params.GridSize, s.Params.GridSize,
		s.Params.DestinationCount, s.StartSeed, s.StartSeed+uint32(s.Count)-1)
	fmt.Fprintf(&b, "Generated: %d/%d (%.1f%%)\n",
		s.Generated, s.Count, 100*float64(s.Generated)/float64(s.Count))
	fmt.Fprintf(&b, "Exhausted: %d\n", s.Exhausted)
	fmt.Fprintf(&b, "Retry attempts consumed: %d\n", s.RetriesUsed)
	if s.Generated > 0 {
		fmt.Fprintf(&b, "Road tiles per level: %.1f avg\n", float64(s.RoadTiles)/float64(s.Generated))
	}
	if s.PathCount > 0 {
		fmt.Fprintf(&b, "Solution path length: min=%d max=%d avg=%.1f\n",
			s.ShortestPath, s.LongestPath, float64(s.PathLengthsSum)/float64(s.PathCount))
	}
	return b.String()
}

func describeLevel(level *engine.GeneratedLevel, solved bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Seed: %d\n", level.Seed)
	fmt.Fprintf(&b, "Grid: %dx%d, roads: %d, destinations: %d, decorations: %d\n",
		level.Rows, level.Cols, len(level.Roads), len(level.Destinations), len(level.Decorations))
	for i, path := range level.SolutionPaths {
		fmt.Fprintf(&b, "Path %d: %d tiles\n", i+1, len(path))
	}
	if solved {
		b.WriteString("\nSolution rotations:\n")
	} else {
		b.WriteString("\nScrambled state:\n")
	}
	b.WriteString(renderLevel(level, solved))
	return b.String()
}

// renderLevel draws the level grid one glyph per cell. With solved set, the
// solution rotations are drawn instead of the current ones.
func renderLevel(level *engine.GeneratedLevel, solved bool) string {
	grid := level.Grid()
	var b strings.Builder
	for r := 0; r < level.Rows; r++ {
		for c := 0; c < level.Cols; c++ {
			b.WriteString(glyph(grid[r][c], solved))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func glyph(tile *engine.TileConfig, solved bool) string {
	if tile == nil {
		return "."
	}

	switch tile.Kind {
	case engine.KindTurnpike:
		return "T"
	case engine.KindLandmark:
		return "L"
	case engine.KindHouse:
		return "H"
	}

	openings := tile.Openings()
	if solved {
		openings = tile.SolutionOpenings()
	}

	var mask int
	for _, d := range openings {
		mask |= 1 << int(d)
	}

	glyphs := map[int]string{
		1<<engine.North | 1<<engine.South:                                   "│",
		1<<engine.East | 1<<engine.West:                                    "─",
		1<<engine.North | 1<<engine.East:                                   "└",
		1<<engine.East | 1<<engine.South:                                   "┌",
		1<<engine.South | 1<<engine.West:                                   "┐",
		1<<engine.West | 1<<engine.North:                                   "┘",
		1<<engine.North | 1<<engine.East | 1<<engine.South:                 "├",
		1<<engine.East | 1<<engine.South | 1<<engine.West:                  "┬",
		1<<engine.South | 1<<engine.West | 1<<engine.North:                 "┤",
		1<<engine.West | 1<<engine.North | 1<<engine.East:                  "┴",
		1<<engine.North | 1<<engine.East | 1<<engine.South | 1<<engine.West: "┼",
	}
	if g, ok := glyphs[mask]; ok {
		return g
	}
	return "?"
}

func solveLocal(params engine.LevelParams, seed uint32) error {
	level, err := engine.NewLevelGenerator().Generate(params, seed)
	if err != nil {
		return err
	}

	start := time.Now()
	sol, err := solver.New().Solve(level)
	if err != nil {
		return err
	}

	fmt.Printf("Solved seed %d: %d rotations on %d tiles, %d states explored in %s\n",
		seed, len(sol.Rotations), sol.TilesTurned, sol.StatesExplored, time.Since(start).Round(time.Microsecond))
	for i, pos := range sol.Rotations {
		fmt.Printf("%d. rotate (%d,%d)\n", i+1, pos.Row, pos.Col)
	}
	return nil
}

// apiClient drives a running server over its REST API.
type apiClient struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func newAPIClient(baseURL, sessionID string) *apiClient {
	return &apiClient{
		baseURL:   baseURL,
		sessionID: sessionID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *apiClient) getState() (*engine.PuzzleState, error) {
	url := fmt.Sprintf("%s/api/sessions/%s/state", c.baseURL, c.sessionID)
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get state failed: %s - %s", resp.Status, string(body))
	}

	var state engine.PuzzleState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &state, nil
}

func (c *apiClient) bulkRotate(positions []engine.TilePosition) (*service.BulkRotateResult, error) {
	rotations := make([]map[string]int, 0, len(positions))
	for _, pos := range positions {
		rotations = append(rotations, map[string]int{"row": pos.Row, "col": pos.Col})
	}

	body, err := json.Marshal(map[string]interface{}{"rotations": rotations})
	if err != nil {
		return nil, fmt.Errorf("marshal rotations: %w", err)
	}

	url := fmt.Sprintf("%s/api/sessions/%s/bulk-rotate", c.baseURL, c.sessionID)
	resp, err := c.client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("bulk rotate: %w", err)
	}
	defer resp.Body.Close()

	var result service.BulkRotateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse bulk rotate response: %w", err)
	}
	return &result, nil
}

// solveRemote fetches the live state of a session, reconstructs the level,
// solves it in-process and submits the rotation sequence back in bulk
// batches.
func solveRemote(baseURL, sessionID string) error {
	client := newAPIClient(baseURL, sessionID)

	state, err := client.getState()
	if err != nil {
		return err
	}
	if state.Solved {
		fmt.Println("Session is already solved")
		return nil
	}

	level, err := levelFromState(state)
	if err != nil {
		return err
	}

	sol, err := solver.New().Solve(level)
	if err != nil {
		return err
	}
	log.Printf("Solver found %d rotations (%d tiles, %d states explored)",
		len(sol.Rotations), sol.TilesTurned, sol.StatesExplored)

	for len(sol.Rotations) > 0 {
		batch := sol.Rotations
		if len(batch) > service.MaxBulkRotations {
			batch = batch[:service.MaxBulkRotations]
		}
		sol.Rotations = sol.Rotations[len(batch):]

		result, err := client.bulkRotate(batch)
		if err != nil {
			return err
		}
		log.Printf("Executed %d/%d rotations", result.RotationsExecuted, result.RequestedRotations)
		if result.Solved {
			fmt.Printf("🎉 Session %s solved in %d total rotations\n",
				sessionID, result.PuzzleState.RotationCount)
			return nil
		}
		if result.StoppedReason != "" {
			return fmt.Errorf("server stopped the run: %s", result.StoppedReason)
		}
	}

	return fmt.Errorf("rotation sequence exhausted without solving the session")
}

// levelFromState rebuilds the tile sets the solver needs from a client-side
// puzzle state.
func levelFromState(state *engine.PuzzleState) (*engine.GeneratedLevel, error) {
	level := &engine.GeneratedLevel{Rows: state.Rows, Cols: state.Cols}

	for r := 0; r < state.Rows; r++ {
		for c := 0; c < state.Cols; c++ {
			tile := state.Grid[r][c]
			if tile == nil {
				continue
			}
			switch tile.Kind {
			case engine.KindTurnpike:
				level.Goal = tile
			case engine.KindLandmark:
				level.Destinations = append(level.Destinations, tile)
			case engine.KindHouse:
				level.Decorations = append(level.Decorations, tile)
			default:
				level.Roads = append(level.Roads, tile)
			}
		}
	}

	if level.Goal == nil {
		return nil, fmt.Errorf("state has no turnpike tile")
	}
	if len(level.Destinations) == 0 {
		return nil, fmt.Errorf("state has no landmark tiles")
	}
	return level, nil
}
