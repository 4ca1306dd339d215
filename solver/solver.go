package solver

import (
	"errors"
	"fmt"

	"github.com/citygrid/road-rotate-game/game/engine"
)

var (
	// ErrNoSolution means the search space was exhausted without finding a
	// rotation assignment that connects every landmark to the turnpike.
	ErrNoSolution = errors.New("no rotation assignment solves the puzzle")

	// ErrSearchBudgetExceeded means the backtracking search hit its state
	// cap before finishing.
	ErrSearchBudgetExceeded = errors.New("search budget exceeded")
)

// DefaultMaxStates bounds the backtracking search. Generated levels prune to
// a handful of viable orientations per tile, so real solves stay far below
// this.
const DefaultMaxStates = 1 << 20

// Solution is the rotation sequence that solves a puzzle from its current
// tile rotations. Each entry is one 90-degree clockwise rotation; entries
// are emitted in row-major tile order and may repeat a position.
type Solution struct {
	Rotations      []engine.TilePosition
	TilesTurned    int
	StatesExplored int
}

// Solver finds solving rotation sequences without looking at the stored
// solution rotations. It searches tile orientations directly, so it also
// works on hand-authored levels whose recorded solution is only one of
// several.
type Solver struct {
	// MaxStates caps the number of orientation assignments tried before
	// the search gives up. Zero means DefaultMaxStates.
	MaxStates int
}

// New returns a solver with the default search budget.
func New() *Solver {
	return &Solver{MaxStates: DefaultMaxStates}
}

// searchState carries the working grid and bookkeeping of one Solve call.
type searchState struct {
	level    *engine.GeneratedLevel
	grid     [][]*engine.TileConfig
	tiles    []*engine.TileConfig // rotatable tiles in row-major order
	assigned map[string]bool
	explored int
	budget   int
}

// Solve searches for a rotation sequence that connects every destination to
// the goal. The input level is not modified.
func (s *Solver) Solve(level *engine.GeneratedLevel) (*Solution, error) {
	if level == nil {
		return nil, fmt.Errorf("level cannot be nil")
	}

	budget := s.MaxStates
	if budget <= 0 {
		budget = DefaultMaxStates
	}

	work := cloneLevel(level)
	st := &searchState{
		level:    work,
		grid:     work.Grid(),
		assigned: make(map[string]bool),
		budget:   budget,
	}

	original := make(map[string]int)
	for r := 0; r < work.Rows; r++ {
		for c := 0; c < work.Cols; c++ {
			tile := st.grid[r][c]
			if tile == nil {
				continue
			}
			if tile.Rotatable {
				st.tiles = append(st.tiles, tile)
				original[tile.Position.Key()] = tile.Rotation
			} else {
				// Fixed tiles keep their current rotation for the
				// whole search.
				st.assigned[tile.Position.Key()] = true
			}
		}
	}

	found, err := st.search(0)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSolution
	}

	sol := &Solution{StatesExplored: st.explored}
	for _, tile := range st.tiles {
		steps := stepsBetween(tile.Kind, original[tile.Position.Key()], tile.Rotation)
		if steps == 0 {
			continue
		}
		sol.TilesTurned++
		for i := 0; i < steps; i++ {
			sol.Rotations = append(sol.Rotations, tile.Position)
		}
	}
	return sol, nil
}

// search assigns an orientation to tiles[idx] and recurses. Returns true
// once a full assignment passes the connectivity check.
func (st *searchState) search(idx int) (bool, error) {
	if idx == len(st.tiles) {
		return st.solvedNow(), nil
	}

	tile := st.tiles[idx]
	for _, rotation := range candidateRotations(tile.Kind) {
		st.explored++
		if st.explored > st.budget {
			return false, ErrSearchBudgetExceeded
		}

		tile.Rotation = rotation
		if !st.orientationFits(tile) {
			continue
		}

		st.assigned[tile.Position.Key()] = true
		found, err := st.search(idx + 1)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		delete(st.assigned, tile.Position.Key())
	}

	return false, nil
}

// orientationFits applies the pruning invariant of solved road networks:
// every opening of a road tile lands on a tier-compatible neighbor, and an
// edge between two road tiles is either open on both sides or closed on
// both. Dangling openings on fixed tiles (a turnpike arm nothing connects
// to, a decorative house) are legal, so fixed neighbors only constrain the
// open direction.
func (st *searchState) orientationFits(tile *engine.TileConfig) bool {
	for _, d := range engine.Directions {
		neighbor := st.tileAt(tile.Position.Step(d))
		opens := tile.HasOpening(d)

		if neighbor == nil || neighbor.Kind == engine.KindHouse {
			if opens {
				return false
			}
			continue
		}

		if opens {
			if !engine.TiersCompatible(tile.Tier, neighbor.Tier) {
				return false
			}
			if st.assigned[neighbor.Position.Key()] && !neighbor.HasOpening(d.Opposite()) {
				return false
			}
			continue
		}

		// Closed toward a settled rotatable neighbor that opens this way:
		// that neighbor's opening could never be reciprocated.
		if neighbor.Rotatable && st.assigned[neighbor.Position.Key()] && neighbor.HasOpening(d.Opposite()) {
			return false
		}
	}
	return true
}

func (st *searchState) solvedNow() bool {
	graph := engine.BuildConnectionGraph(st.grid)
	for _, dest := range st.level.Destinations {
		if !engine.FindPath(dest.Position, st.level.Goal.Position, graph).Exists {
			return false
		}
	}
	return true
}

func (st *searchState) tileAt(pos engine.TilePosition) *engine.TileConfig {
	if pos.Row < 0 || pos.Row >= st.level.Rows || pos.Col < 0 || pos.Col >= st.level.Cols {
		return nil
	}
	return st.grid[pos.Row][pos.Col]
}

// candidateRotations returns the rotations with distinct opening sets for a
// kind. Straights repeat every 180 degrees and crossroads are fully
// symmetric, which halves or quarters their branching.
func candidateRotations(kind engine.TileKind) []int {
	switch kind {
	case engine.KindStraight:
		return []int{0, 90}
	case engine.KindCrossroads:
		return []int{0}
	}
	return []int{0, 90, 180, 270}
}

// stepsBetween counts the clockwise 90-degree rotations needed to take a
// tile of the given kind from one rotation to an orientation with the same
// openings as the target. Symmetric kinds may need fewer steps than the
// nominal rotation difference.
func stepsBetween(kind engine.TileKind, from, to int) int {
	target := openingMask(kind, to)
	for steps := 0; steps < 4; steps++ {
		if openingMask(kind, (from+steps*90)%360) == target {
			return steps
		}
	}
	return 0
}

func openingMask(kind engine.TileKind, rotation int) int {
	mask := 0
	for _, d := range engine.BaseOpenings(kind) {
		mask |= 1 << int(d.Rotated(rotation))
	}
	return mask
}

// cloneLevel deep-copies a level so the search can rotate tiles freely.
func cloneLevel(level *engine.GeneratedLevel) *engine.GeneratedLevel {
	out := &engine.GeneratedLevel{
		Rows: level.Rows,
		Cols: level.Cols,
		Seed: level.Seed,
	}
	if level.Goal != nil {
		goal := *level.Goal
		out.Goal = &goal
	}
	for _, t := range level.Destinations {
		tile := *t
		out.Destinations = append(out.Destinations, &tile)
	}
	for _, t := range level.Roads {
		tile := *t
		out.Roads = append(out.Roads, &tile)
	}
	for _, t := range level.Decorations {
		tile := *t
		out.Decorations = append(out.Decorations, &tile)
	}
	for _, path := range level.SolutionPaths {
		out.SolutionPaths = append(out.SolutionPaths, append([]engine.TilePosition(nil), path...))
	}
	return out
}
