package engine

import (
	"errors"
	"fmt"
	"log"
)

// Generation bounds. The step and retry caps are the termination guarantee
// for the stochastic walk; do not remove them.
const (
	MaxGenerationAttempts = 10
	maxPlacementAttempts  = 60
	maxWalkRetries        = 8
)

// ErrGenerationExhausted is returned when every retry seed failed. The
// caller must fall back to a hand-authored level or surface the error.
var ErrGenerationExhausted = errors.New("level generation exhausted")

// scrambleRotations is the value set each rotatable tile is drawn from.
var scrambleRotations = []int{0, 90, 180, 270}

// landmarkTypes and decorationTypes are cosmetic subtypes attached to
// destination and decoration tiles.
var (
	landmarkTypes   = []string{"museum", "stadium", "harbor", "observatory", "market"}
	decorationTypes = []string{"tree", "fountain", "plaza"}
)

// LevelGenerator produces solvable rotate-the-road puzzles. It remembers
// seeds that produced an unsatisfiable layout and skips them on later calls;
// the memo is a pure optimization, not required for correctness.
//
// A LevelGenerator is not safe for concurrent use; callers that share one
// across goroutines must serialize access.
type LevelGenerator struct {
	badSeeds map[uint32]struct{}
}

// NewLevelGenerator creates a generator with an empty bad-seed memo.
func NewLevelGenerator() *LevelGenerator {
	return &LevelGenerator{badSeeds: make(map[uint32]struct{})}
}

// Generate deterministically constructs a puzzle for the given parameters.
// It tries seed, seed+1, seed+2, ... up to MaxGenerationAttempts, skipping
// seeds already known to fail. Any phase failure discards the attempt and
// advances to the next seed; only total exhaustion is returned to the
// caller. A returned level is always complete and validated.
func (g *LevelGenerator) Generate(params LevelParams, seed uint32) (*GeneratedLevel, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var tried []uint32
	for i := uint32(0); i < MaxGenerationAttempts; i++ {
		s := seed + i
		if _, bad := g.badSeeds[s]; bad {
			continue
		}
		tried = append(tried, s)

		level, err := newAttempt(params, s).run()
		if err != nil {
			log.Printf("[GEN] seed=%d rejected: %v", s, err)
			g.badSeeds[s] = struct{}{}
			continue
		}
		return level, nil
	}

	return nil, fmt.Errorf("%w after %d attempts (seeds tried: %v)", ErrGenerationExhausted, MaxGenerationAttempts, tried)
}

// KnownBadSeeds returns how many seeds the memo has recorded as failing.
func (g *LevelGenerator) KnownBadSeeds() int {
	return len(g.badSeeds)
}

// attempt holds all state for a single generation try. Everything here is
// created fresh per seed and discarded afterwards; nothing leaks across
// attempts except the generator's bad-seed memo.
type attempt struct {
	params LevelParams
	seed   uint32
	rng    *XORShift32
	size   int

	grid  map[string]*TileConfig
	goal  *TileConfig
	dests []*TileConfig
	roads []*TileConfig // insertion order, for deterministic iteration

	// conns records the realized connections between adjacent cells as the
	// walks carve them, keyed by canonical position. Both directions of an
	// edge are stored.
	conns map[string][]string

	paths [][]TilePosition
}

func newAttempt(params LevelParams, seed uint32) *attempt {
	return &attempt{
		params: params,
		seed:   seed,
		rng:    NewXORShift32(seed),
		size:   params.GridSize,
		grid:   make(map[string]*TileConfig),
		conns:  make(map[string][]string),
	}
}

// run drives the ordered phases. There is no backtracking within an
// attempt: the first failing phase aborts the whole seed.
func (a *attempt) run() (*GeneratedLevel, error) {
	a.placeGoal()
	if err := a.placeDestinations(); err != nil {
		return nil, err
	}
	if err := a.carveRoads(); err != nil {
		return nil, err
	}
	a.assignTiles()
	if err := a.validateDegrees(); err != nil {
		return nil, err
	}
	a.scramble()
	a.decorate()

	level := a.build()

	// Final self-check against the solution graph. Earlier phases should
	// make a failure here impossible.
	if err := ValidateLevel(level); err != nil {
		return nil, fmt.Errorf("self-check failed: %w", err)
	}

	return level, nil
}

// placeGoal positions the turnpike by difficulty: easy lands near the
// center, medium on a non-corner edge cell, hard in a corner.
func (a *attempt) placeGoal() {
	var pos TilePosition

	switch a.params.Difficulty {
	case DifficultyMedium:
		offset := a.rng.NextInt(1, a.size-1)
		switch a.rng.NextInt(0, 4) {
		case 0:
			pos = TilePosition{Row: 0, Col: offset}
		case 1:
			pos = TilePosition{Row: offset, Col: a.size - 1}
		case 2:
			pos = TilePosition{Row: a.size - 1, Col: offset}
		default:
			pos = TilePosition{Row: offset, Col: 0}
		}
	case DifficultyHard:
		corners := []TilePosition{
			{Row: 0, Col: 0},
			{Row: 0, Col: a.size - 1},
			{Row: a.size - 1, Col: 0},
			{Row: a.size - 1, Col: a.size - 1},
		}
		pos = Choice(a.rng, corners)
	default:
		center := a.size / 2
		radius := a.size / 4
		pos = TilePosition{
			Row: clamp(center+a.rng.NextInt(-radius, radius+1), 0, a.size-1),
			Col: clamp(center+a.rng.NextInt(-radius, radius+1), 0, a.size-1),
		}
	}

	a.goal = &TileConfig{
		Position:  pos,
		Kind:      KindTurnpike,
		Tier:      TierTurnpike,
		Rotatable: false,
	}
	a.grid[pos.Key()] = a.goal
}

// placeDestinations samples cells for each landmark with bounded
// reject-and-retry: unoccupied, Manhattan distance at least 3 from the goal
// and at least 2 from every earlier destination. Exhausting the budget for
// any single destination fails the whole attempt.
func (a *attempt) placeDestinations() error {
	for i := 0; i < a.params.DestinationCount; i++ {
		placed := false

		for try := 0; try < maxPlacementAttempts; try++ {
			pos := TilePosition{
				Row: a.rng.NextInt(0, a.size),
				Col: a.rng.NextInt(0, a.size),
			}

			if a.grid[pos.Key()] != nil {
				continue
			}
			if pos.ManhattanDistance(a.goal.Position) < 3 {
				continue
			}
			tooClose := false
			for _, d := range a.dests {
				if pos.ManhattanDistance(d.Position) < 2 {
					tooClose = true
					break
				}
			}
			if tooClose {
				continue
			}

			dest := &TileConfig{
				Position:     pos,
				Kind:         KindLandmark,
				Tier:         TierLandmark,
				Rotatable:    false,
				LandmarkType: Choice(a.rng, landmarkTypes),
			}
			a.grid[pos.Key()] = dest
			a.dests = append(a.dests, dest)
			placed = true
			break
		}

		if !placed {
			return fmt.Errorf("destination %d: no valid cell after %d attempts", i, maxPlacementAttempts)
		}
	}

	return nil
}

// carveRoads grows one road path per destination. Later paths may join road
// already carved by earlier ones, which is what produces branching networks.
func (a *attempt) carveRoads() error {
	for i, dest := range a.dests {
		if err := a.carvePathFrom(dest); err != nil {
			return fmt.Errorf("path from destination %d at %s: %w", i, dest.Position.Key(), err)
		}
	}
	return nil
}

// carvePathFrom retries the stochastic walk a bounded number of times
// before giving up on the whole attempt. Walks that join already-carved
// road are extended to the goal along the existing network first, so the
// minimum-length gate applies to the full solution path, not just the
// freshly walked prefix.
func (a *attempt) carvePathFrom(dest *TileConfig) error {
	for retry := 0; retry < maxWalkRetries; retry++ {
		path, edges, joined, ok := a.walk(dest)
		if !ok {
			continue
		}
		if joined {
			tail := a.networkPath(path[len(path)-1], a.goal.Position)
			if len(tail) > 1 {
				path = append(path, tail[1:]...)
			}
			if len(path) < a.params.MinPathLength {
				continue
			}
		}
		a.commit(path, edges)
		return nil
	}
	return fmt.Errorf("random walk stuck after %d retries", maxWalkRetries)
}

// walkEdge is a tentative connection produced while a walk is in flight.
// Edges are only committed into the attempt once the walk succeeds.
type walkEdge struct {
	from, to TilePosition
}

// walk advances one cardinal step at a time from the destination toward the
// goal. Candidate steps exclude cells already visited by this path,
// landmark cells, and any step that would give a cell a fourth connection.
// A step into the goal is accepted once the path is long enough; a step
// onto already-carved road ends the walk by joining the existing network.
// Per step, movement is either Manhattan-distance-minimizing toward the
// goal or a uniformly random detour, decided by the detour probability.
func (a *attempt) walk(dest *TileConfig) (path []TilePosition, edges []walkEdge, joined bool, ok bool) {
	maxSteps := a.size * a.size * 2

	current := dest.Position
	path = []TilePosition{current}
	visited := map[string]bool{current.Key(): true}

	// Degree overlay for connections this walk has tentatively added.
	tentative := make(map[string]int)

	for step := 0; step < maxSteps; step++ {
		type candidate struct {
			pos     TilePosition
			goal    bool
			join    bool
			newEdge bool
		}
		var candidates []candidate

		for _, dir := range Directions {
			next := current.Step(dir)
			if next.Row < 0 || next.Row >= a.size || next.Col < 0 || next.Col >= a.size {
				continue
			}
			if visited[next.Key()] {
				continue
			}

			occupant := a.grid[next.Key()]

			switch {
			case occupant == a.goal:
				// The turnpike only has two openings, so entries must stay
				// pairable: at most two connections, and the second from
				// the side opposite the first.
				if len(path) < a.params.MinPathLength {
					continue
				}
				if !a.goalAccepts(current) {
					continue
				}
				candidates = append(candidates, candidate{pos: next, goal: true, newEdge: true})

			case occupant != nil && occupant.Kind == KindLandmark:
				// Landmarks are dead objects for the walk.
				continue

			case occupant != nil:
				// Existing road: join the network here.
				newEdge := !a.edgeExists(current, next)
				if newEdge && !a.degreeAllows(current, next, tentative) {
					continue
				}
				candidates = append(candidates, candidate{pos: next, join: true, newEdge: newEdge})

			default:
				if !a.degreeAllows(current, next, tentative) {
					continue
				}
				candidates = append(candidates, candidate{pos: next, newEdge: true})
			}
		}

		if len(candidates) == 0 {
			return nil, nil, false, false
		}

		// A reachable goal entry always wins.
		for _, c := range candidates {
			if c.goal {
				path = append(path, c.pos)
				edges = append(edges, walkEdge{from: current, to: c.pos})
				return path, edges, false, true
			}
		}

		var chosen candidate
		if a.rng.Next() < a.params.DetourProbability {
			chosen = Choice(a.rng, candidates)
		} else {
			best := -1
			var ties []candidate
			for _, c := range candidates {
				d := c.pos.ManhattanDistance(a.goal.Position)
				if best == -1 || d < best {
					best = d
					ties = ties[:0]
					ties = append(ties, c)
				} else if d == best {
					ties = append(ties, c)
				}
			}
			chosen = Choice(a.rng, ties)
		}

		path = append(path, chosen.pos)
		if chosen.newEdge {
			edges = append(edges, walkEdge{from: current, to: chosen.pos})
			tentative[current.Key()]++
			tentative[chosen.pos.Key()]++
		}

		if chosen.join {
			return path, edges, true, true
		}

		visited[chosen.pos.Key()] = true
		current = chosen.pos
	}

	return nil, nil, false, false
}

// degreeAllows reports whether adding a connection between from and to
// keeps both cells within the three-connection cap.
func (a *attempt) degreeAllows(from, to TilePosition, tentative map[string]int) bool {
	degFrom := len(a.conns[from.Key()]) + tentative[from.Key()]
	degTo := len(a.conns[to.Key()]) + tentative[to.Key()]
	return degFrom < MaxTileConnections && degTo < MaxTileConnections
}

// goalAccepts reports whether the goal can take one more connection from
// the side facing from.
func (a *attempt) goalAccepts(from TilePosition) bool {
	existing := a.conns[a.goal.Position.Key()]
	if len(existing) >= 2 {
		return false
	}
	if len(existing) == 0 {
		return true
	}
	// Second entry must mirror the first across the tile.
	first := a.directionBetween(a.goal.Position, existing[0])
	incoming := a.directionBetween(a.goal.Position, from.Key())
	return incoming == first.Opposite()
}

// directionBetween returns the direction from a cell to an adjacent cell
// identified by its canonical key.
func (a *attempt) directionBetween(from TilePosition, toKey string) Direction {
	for _, dir := range Directions {
		if from.Step(dir).Key() == toKey {
			return dir
		}
	}
	// Callers only pass adjacent cells.
	log.Printf("[GEN] directionBetween: %s and %s are not adjacent", from.Key(), toKey)
	return North
}

func (a *attempt) edgeExists(x, y TilePosition) bool {
	for _, k := range a.conns[x.Key()] {
		if k == y.Key() {
			return true
		}
	}
	return false
}

func (a *attempt) addEdge(x, y TilePosition) {
	if a.edgeExists(x, y) {
		return
	}
	a.conns[x.Key()] = append(a.conns[x.Key()], y.Key())
	a.conns[y.Key()] = append(a.conns[y.Key()], x.Key())
}

// commit materializes a successful walk: new road tiles are placed, the
// walk's connections are recorded, and the destination's full solution
// path is stored. Cells the path shares with already-carved road keep
// their existing tiles.
func (a *attempt) commit(path []TilePosition, edges []walkEdge) {
	for _, pos := range path {
		if a.grid[pos.Key()] != nil {
			continue
		}
		road := &TileConfig{
			Position:  pos,
			Kind:      KindStraight, // real kind assigned after carving
			Tier:      TierLocal,
			Rotatable: true,
		}
		a.grid[pos.Key()] = road
		a.roads = append(a.roads, road)
	}

	for _, e := range edges {
		a.addEdge(e.from, e.to)
	}

	a.paths = append(a.paths, path)
}

// networkPath runs BFS over the realized connections from start to end.
// Adjacency lists are insertion-ordered, so the result is deterministic.
func (a *attempt) networkPath(start, end TilePosition) []TilePosition {
	if start == end {
		return []TilePosition{start}
	}

	visited := map[string]bool{start.Key(): true}
	parent := make(map[string]string)
	queue := []string{start.Key()}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range a.conns[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur

			if next == end.Key() {
				keys := []string{next}
				for at := cur; ; at = parent[at] {
					keys = append(keys, at)
					if at == start.Key() {
						break
					}
				}
				path := make([]TilePosition, 0, len(keys))
				for i := len(keys) - 1; i >= 0; i-- {
					path = append(path, a.positionOf(keys[i]))
				}
				return path
			}

			queue = append(queue, next)
		}
	}

	// The committed network always contains the goal; reaching here means
	// carving bookkeeping broke.
	log.Printf("[GEN] networkPath: no route from %s to %s", start.Key(), end.Key())
	return []TilePosition{start}
}

func (a *attempt) positionOf(key string) TilePosition {
	if t := a.grid[key]; t != nil {
		return t.Position
	}
	var p TilePosition
	fmt.Sscanf(key, "%d,%d", &p.Row, &p.Col)
	return p
}

// connectionDirections lists the directions in which a cell has realized
// connections, in fixed scan order.
func (a *attempt) connectionDirections(pos TilePosition) []Direction {
	var dirs []Direction
	for _, dir := range Directions {
		if a.edgeExists(pos, pos.Step(dir)) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// assignTiles classifies every road cell by its realized connections and
// fixes the solution rotation. Destinations are oriented to face their
// single connection and the goal aligns its two openings with its entries.
func (a *attempt) assignTiles() {
	for _, road := range a.roads {
		dirs := a.connectionDirections(road.Position)
		kind, rotation, err := classifyRoad(dirs)
		if err != nil {
			// Structurally impossible given the carving constraints;
			// logged and defaulted rather than failing the attempt.
			log.Printf("[GEN] tile assignment at %s: %v, defaulting to straight/0", road.Position.Key(), err)
			kind, rotation = KindStraight, 0
		}
		road.Kind = kind
		road.SolutionRotation = rotation
		road.Rotation = rotation
	}

	for _, dest := range a.dests {
		dirs := a.connectionDirections(dest.Position)
		if len(dirs) != 1 {
			log.Printf("[GEN] destination at %s has %d connections, want 1", dest.Position.Key(), len(dirs))
		}
		if len(dirs) > 0 {
			// Landmark opens north at rotation 0; rotate that opening
			// onto the connected side.
			dest.SolutionRotation = dirs[0].Degrees()
			dest.Rotation = dest.SolutionRotation
		}
	}

	goalDirs := a.connectionDirections(a.goal.Position)
	rotation := 0
	for _, d := range goalDirs {
		if d == East || d == West {
			rotation = 90
		}
	}
	a.goal.SolutionRotation = rotation
	a.goal.Rotation = rotation
}

// classifyRoad maps a realized connection set onto a tile kind and the
// rotation that aligns the kind's base openings with it. The t-junction
// rotation encodes which cardinal direction is closed.
func classifyRoad(dirs []Direction) (TileKind, int, error) {
	has := func(d Direction) bool {
		for _, x := range dirs {
			if x == d {
				return true
			}
		}
		return false
	}

	switch len(dirs) {
	case 2:
		switch {
		case has(North) && has(South):
			return KindStraight, 0, nil
		case has(East) && has(West):
			return KindStraight, 90, nil
		case has(North) && has(East):
			return KindCorner, 0, nil
		case has(East) && has(South):
			return KindCorner, 90, nil
		case has(South) && has(West):
			return KindCorner, 180, nil
		default: // West and North
			return KindCorner, 270, nil
		}
	case 3:
		// Rotation by the missing (closed) direction; base t-junction is
		// closed to the south.
		switch {
		case !has(South):
			return KindTJunction, 0, nil
		case !has(West):
			return KindTJunction, 90, nil
		case !has(North):
			return KindTJunction, 180, nil
		default:
			return KindTJunction, 270, nil
		}
	}

	return "", 0, fmt.Errorf("unexpected connection count %d", len(dirs))
}

// validateDegrees re-derives the connection map from the realized solution
// paths and asserts no cell requires four or more simultaneous connections.
func (a *attempt) validateDegrees() error {
	neighbors := make(map[string]map[string]bool)
	for _, path := range a.paths {
		for i := 1; i < len(path); i++ {
			x, y := path[i-1].Key(), path[i].Key()
			if neighbors[x] == nil {
				neighbors[x] = make(map[string]bool)
			}
			if neighbors[y] == nil {
				neighbors[y] = make(map[string]bool)
			}
			neighbors[x][y] = true
			neighbors[y][x] = true
		}
	}

	for _, path := range a.paths {
		for _, pos := range path {
			if len(neighbors[pos.Key()]) > MaxTileConnections {
				return fmt.Errorf("cell %s requires %d connections, max is %d",
					pos.Key(), len(neighbors[pos.Key()]), MaxTileConnections)
			}
		}
	}

	return nil
}

// scramble reassigns every rotatable road tile's current rotation to a
// uniformly random value, leaving the solution rotation untouched as the
// hidden answer key.
func (a *attempt) scramble() {
	for _, road := range a.roads {
		if !road.Rotatable {
			// Road tiles are always rotatable; anything else here means a
			// phase above misplaced a tile.
			log.Printf("[GEN] scramble: road tile at %s is not rotatable", road.Position.Key())
			continue
		}
		road.Rotation = Choice(a.rng, scrambleRotations)
	}
}

// decorate drops up to MaxDecorations cosmetic tiles on still-empty cells.
// Decorations are placed after every other phase precisely so they can
// never interfere with path carving.
func (a *attempt) decorate() {
	var empty []TilePosition
	for r := 0; r < a.size; r++ {
		for c := 0; c < a.size; c++ {
			pos := TilePosition{Row: r, Col: c}
			if a.grid[pos.Key()] == nil {
				empty = append(empty, pos)
			}
		}
	}
	if len(empty) == 0 {
		return
	}

	Shuffle(a.rng, empty)
	count := min(MaxDecorations, len(empty))
	for i := 0; i < count; i++ {
		deco := &TileConfig{
			Position:       empty[i],
			Kind:           KindHouse,
			Tier:           TierHouse,
			Rotatable:      false,
			DecorationType: Choice(a.rng, decorationTypes),
		}
		a.grid[empty[i].Key()] = deco
	}
}

// build assembles the final level structure from the attempt state.
func (a *attempt) build() *GeneratedLevel {
	level := &GeneratedLevel{
		Rows:          a.size,
		Cols:          a.size,
		Goal:          a.goal,
		Destinations:  a.dests,
		Roads:         a.roads,
		SolutionPaths: a.paths,
		Seed:          a.seed,
	}

	// Decorations are whatever occupies the grid beyond goal, destinations
	// and roads; collect them in row-major order.
	known := make(map[string]bool)
	for _, t := range append(append([]*TileConfig{a.goal}, a.dests...), a.roads...) {
		known[t.Position.Key()] = true
	}
	for r := 0; r < a.size; r++ {
		for c := 0; c < a.size; c++ {
			key := TilePosition{Row: r, Col: c}.Key()
			if t := a.grid[key]; t != nil && !known[key] {
				level.Decorations = append(level.Decorations, t)
			}
		}
	}

	return level
}

// ValidateLevel checks a complete level against the solution graph: every
// destination must reach the goal, every road tile must sit on some
// destination-to-goal path, and no cell may exceed the connection cap.
// Both the generator's self-check and the hand-authored level loader use it.
func ValidateLevel(level *GeneratedLevel) error {
	if level.Goal == nil {
		return errors.New("level validation: no goal node")
	}
	if len(level.Destinations) == 0 {
		return errors.New("level validation: no destinations")
	}

	graph := BuildSolutionGraph(level.Grid())
	goals := []*TileConfig{level.Goal}

	report := ValidateDestinationsConnectToGoal(level.Destinations, goals, graph)
	if !report.AllConnected {
		return fmt.Errorf("level validation: %d destinations cannot reach the goal: %v", len(report.Failures), report.Failures)
	}

	ok, orphans := ValidateAllTilesOnSomePath(level.Roads, level.Destinations, goals, graph)
	if !ok {
		return fmt.Errorf("level validation: %d orphan road tiles: %v", len(orphans), orphans)
	}

	for key, connected := range graph {
		if len(connected) > MaxTileConnections {
			return fmt.Errorf("level validation: cell %s requires %d connections, max is %d", key, len(connected), MaxTileConnections)
		}
	}

	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
