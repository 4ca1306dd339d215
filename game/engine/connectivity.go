package engine

// ConnectionGraph maps a tile's canonical position key to the tiles it is
// currently connected to. Edges are stored from both endpoints.
type ConnectionGraph map[string][]*TileConfig

// PathResult is the outcome of a breadth-first path query.
type PathResult struct {
	Exists bool           `json:"exists"`
	Path   []TilePosition `json:"path,omitempty"`
	Length int            `json:"length"`
}

// ConnectivityReport aggregates a reachability check over a set of tiles.
type ConnectivityReport struct {
	AllConnected bool           `json:"all_connected"`
	Failures     []TilePosition `json:"failures,omitempty"`
}

// BuildConnectionGraph builds the connection graph of a grid using each
// tile's current rotation. Two adjacent tiles connect across a shared edge
// iff each has an opening facing the other and their road tiers are
// mutually compatible. Cells outside grid bounds are simply skipped.
func BuildConnectionGraph(grid [][]*TileConfig) ConnectionGraph {
	return buildGraph(grid, func(t *TileConfig) []Direction { return t.Openings() })
}

// BuildSolutionGraph builds the connection graph using each tile's hidden
// solution rotation instead of its current one. The generator validates
// solvability against this graph.
func BuildSolutionGraph(grid [][]*TileConfig) ConnectionGraph {
	return buildGraph(grid, func(t *TileConfig) []Direction { return t.SolutionOpenings() })
}

func buildGraph(grid [][]*TileConfig, openings func(*TileConfig) []Direction) ConnectionGraph {
	graph := make(ConnectionGraph)

	opensToward := func(t *TileConfig, d Direction) bool {
		for _, o := range openings(t) {
			if o == d {
				return true
			}
		}
		return false
	}

	for r := range grid {
		for c := range grid[r] {
			tile := grid[r][c]
			if tile == nil {
				continue
			}

			key := tile.Position.Key()
			if _, ok := graph[key]; !ok {
				graph[key] = nil
			}

			for _, dir := range Directions {
				nr, nc := tile.Position.Step(dir).Row, tile.Position.Step(dir).Col
				if nr < 0 || nr >= len(grid) || nc < 0 || nc >= len(grid[nr]) {
					continue
				}
				neighbor := grid[nr][nc]
				if neighbor == nil {
					continue
				}

				if !opensToward(tile, dir) {
					continue
				}
				if !opensToward(neighbor, dir.Opposite()) {
					continue
				}
				if !TiersCompatible(tile.Tier, neighbor.Tier) {
					continue
				}

				graph[key] = append(graph[key], neighbor)
			}
		}
	}

	return graph
}

// FindPath runs a breadth-first search from start to end over the graph and
// returns the first-found shortest path in edge count. start == end yields a
// trivial one-node path of length 0.
func FindPath(start, end TilePosition, graph ConnectionGraph) PathResult {
	if start == end {
		return PathResult{Exists: true, Path: []TilePosition{start}, Length: 0}
	}

	visited := map[string]bool{start.Key(): true}
	parent := make(map[string]TilePosition)
	queue := []TilePosition{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range graph[current.Key()] {
			pos := neighbor.Position
			if visited[pos.Key()] {
				continue
			}
			visited[pos.Key()] = true
			parent[pos.Key()] = current

			if pos == end {
				// Walk parents back to start
				path := []TilePosition{end}
				for at := current; ; at = parent[at.Key()] {
					path = append(path, at)
					if at == start {
						break
					}
				}
				reverse(path)
				return PathResult{Exists: true, Path: path, Length: len(path) - 1}
			}

			queue = append(queue, pos)
		}
	}

	return PathResult{Exists: false}
}

// ValidateDestinationsConnectToGoal checks that every destination reaches at
// least one goal node. A destination reachable by no goal is a failure. An
// empty goal set means no destination can ever connect, so all destinations
// are reported as failures.
func ValidateDestinationsConnectToGoal(destinations, goals []*TileConfig, graph ConnectionGraph) ConnectivityReport {
	report := ConnectivityReport{AllConnected: true}

	for _, dest := range destinations {
		connected := false
		for _, goal := range goals {
			if FindPath(dest.Position, goal.Position, graph).Exists {
				connected = true
				break
			}
		}
		if !connected {
			report.AllConnected = false
			report.Failures = append(report.Failures, dest.Position)
		}
	}

	return report
}

// ValidateAllTilesOnSomePath checks that every road tile lies on at least
// one destination-to-goal shortest path. Tiles that are themselves a
// destination or goal are always acceptable; anything else not covered is an
// orphan (a dead end the generator must reject).
func ValidateAllTilesOnSomePath(tiles, destinations, goals []*TileConfig, graph ConnectionGraph) (bool, []TilePosition) {
	covered := make(map[string]bool)
	for _, dest := range destinations {
		covered[dest.Position.Key()] = true
	}
	for _, goal := range goals {
		covered[goal.Position.Key()] = true
	}

	for _, dest := range destinations {
		for _, goal := range goals {
			result := FindPath(dest.Position, goal.Position, graph)
			if !result.Exists {
				continue
			}
			for _, pos := range result.Path {
				covered[pos.Key()] = true
			}
		}
	}

	var orphans []TilePosition
	for _, tile := range tiles {
		if !covered[tile.Position.Key()] {
			orphans = append(orphans, tile.Position)
		}
	}

	return len(orphans) == 0, orphans
}

func reverse(path []TilePosition) {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
}
