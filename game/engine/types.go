package engine

import "fmt"

// Direction is one of the four cardinal directions, a closed rotational
// group under 90-degree steps.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Validation and sizing constants
const (
	MinGridSize = 4
	MaxGridSize = 32

	// MaxTileConnections caps the simultaneous connections any cell may
	// require; the tile vocabulary tops out at the three-way t-junction.
	MaxTileConnections = 3

	// MaxDecorations is the number of cosmetic tiles placed after the
	// puzzle itself is fixed.
	MaxDecorations = 2
)

// Rotated returns the direction after rotating by the given number of
// degrees (multiples of 90).
func (d Direction) Rotated(degrees int) Direction {
	steps := (degrees / 90) % 4
	if steps < 0 {
		steps += 4
	}
	return Direction((int(d) + steps) % 4)
}

// Opposite returns the direction 180 degrees away.
func (d Direction) Opposite() Direction {
	return Direction((int(d) + 2) % 4)
}

// Delta returns the row/column offset of a single step in this direction.
// Rows grow southward, columns grow eastward.
func (d Direction) Delta() (dr, dc int) {
	switch d {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	default:
		return 0, -1
	}
}

// Degrees returns the rotation that maps North onto this direction.
func (d Direction) Degrees() int {
	return int(d) * 90
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Directions lists the cardinal directions in a fixed scan order. Every
// part of the generator iterates neighbors in this order so that a seed
// reproduces an identical level.
var Directions = [4]Direction{North, East, South, West}

// TilePosition identifies a grid cell by row and column.
type TilePosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Key returns the canonical string encoding used as a map key.
func (p TilePosition) Key() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// Step returns the neighboring position one cell away in the given direction.
func (p TilePosition) Step(d Direction) TilePosition {
	dr, dc := d.Delta()
	return TilePosition{Row: p.Row + dr, Col: p.Col + dc}
}

// ManhattanDistance returns the taxicab distance to another position.
func (p TilePosition) ManhattanDistance(o TilePosition) int {
	return abs(p.Row-o.Row) + abs(p.Col-o.Col)
}

// TileKind identifies the shape of a tile's roadway.
type TileKind string

const (
	KindStraight   TileKind = "straight"
	KindCorner     TileKind = "corner"
	KindTJunction  TileKind = "t-junction"
	KindCrossroads TileKind = "crossroads"
	KindHouse      TileKind = "house"
	KindLandmark   TileKind = "landmark"
	KindTurnpike   TileKind = "turnpike"
)

// baseOpenings is the opening set of each kind at rotation 0.
var baseOpenings = map[TileKind][]Direction{
	KindStraight:   {North, South},
	KindCorner:     {North, East},
	KindTJunction:  {North, East, West},
	KindCrossroads: {North, East, South, West},
	KindHouse:      {South},
	KindLandmark:   {North},
	KindTurnpike:   {North, South},
}

// BaseOpenings returns the opening set of a kind before rotation.
func BaseOpenings(kind TileKind) []Direction {
	base := baseOpenings[kind]
	out := make([]Direction, len(base))
	copy(out, base)
	return out
}

// RoadTier is the ordered road-type hierarchy. The generator only needs
// LocalRoad, Turnpike and Landmark for procedural levels, but the full
// table is part of the domain model and hand-authored levels use all of it.
type RoadTier string

const (
	TierHouse    RoadTier = "house"
	TierLocal    RoadTier = "local_road"
	TierArterial RoadTier = "arterial_road"
	TierHighway  RoadTier = "highway"
	TierTurnpike RoadTier = "turnpike"
	TierLandmark RoadTier = "landmark"
)

// tierCompatibility is the fixed adjacency table: which tiers may directly
// connect to which. The table is symmetric.
var tierCompatibility = map[RoadTier]map[RoadTier]bool{
	TierHouse: {
		TierLocal: true,
	},
	TierLocal: {
		TierHouse:    true,
		TierLocal:    true,
		TierArterial: true,
		TierTurnpike: true,
		TierLandmark: true,
	},
	TierArterial: {
		TierLocal:    true,
		TierArterial: true,
		TierHighway:  true,
		TierTurnpike: true,
		TierLandmark: true,
	},
	TierHighway: {
		TierArterial: true,
		TierHighway:  true,
		TierTurnpike: true,
	},
	TierTurnpike: {
		TierLocal:    true,
		TierArterial: true,
		TierHighway:  true,
		TierTurnpike: true,
	},
	TierLandmark: {
		TierLocal:    true,
		TierArterial: true,
	},
}

// TiersCompatible reports whether two road tiers may connect directly.
func TiersCompatible(a, b RoadTier) bool {
	return tierCompatibility[a][b]
}

// TileConfig is the working and output record for one grid cell.
//
// Rotation only differs from SolutionRotation for rotatable road tiles
// after the scrambling phase; goal, destination and decoration tiles always
// keep the two equal.
type TileConfig struct {
	Position         TilePosition `json:"position"`
	Kind             TileKind     `json:"kind"`
	Tier             RoadTier     `json:"tier"`
	Rotation         int          `json:"rotation"`
	SolutionRotation int          `json:"solution_rotation"`
	Rotatable        bool         `json:"rotatable"`
	LandmarkType     string       `json:"landmark_type,omitempty"`
	DecorationType   string       `json:"decoration_type,omitempty"`
}

// Openings returns the tile's open edges at its current rotation.
func (t *TileConfig) Openings() []Direction {
	return rotateOpenings(baseOpenings[t.Kind], t.Rotation)
}

// SolutionOpenings returns the tile's open edges at its solution rotation.
func (t *TileConfig) SolutionOpenings() []Direction {
	return rotateOpenings(baseOpenings[t.Kind], t.SolutionRotation)
}

// HasOpening reports whether the tile currently opens toward d.
func (t *TileConfig) HasOpening(d Direction) bool {
	for _, o := range t.Openings() {
		if o == d {
			return true
		}
	}
	return false
}

func rotateOpenings(base []Direction, degrees int) []Direction {
	out := make([]Direction, len(base))
	for i, d := range base {
		out[i] = d.Rotated(degrees)
	}
	return out
}

// GeneratedLevel is the all-or-nothing output of one successful generation
// attempt. Consumers treat it as read-only.
type GeneratedLevel struct {
	Rows          int              `json:"rows"`
	Cols          int              `json:"cols"`
	Goal          *TileConfig      `json:"goal"`
	Destinations  []*TileConfig    `json:"destinations"`
	Roads         []*TileConfig    `json:"roads"`
	Decorations   []*TileConfig    `json:"decorations"`
	SolutionPaths [][]TilePosition `json:"solution_paths"`
	Seed          uint32           `json:"seed"`
}

// Tiles returns every tile of the level in a deterministic order:
// goal, destinations, roads, decorations.
func (l *GeneratedLevel) Tiles() []*TileConfig {
	tiles := make([]*TileConfig, 0, 1+len(l.Destinations)+len(l.Roads)+len(l.Decorations))
	tiles = append(tiles, l.Goal)
	tiles = append(tiles, l.Destinations...)
	tiles = append(tiles, l.Roads...)
	tiles = append(tiles, l.Decorations...)
	return tiles
}

// Grid materializes the level's tiles into a dense rows x cols array.
// Empty cells are nil.
func (l *GeneratedLevel) Grid() [][]*TileConfig {
	grid := make([][]*TileConfig, l.Rows)
	for r := range grid {
		grid[r] = make([]*TileConfig, l.Cols)
	}
	for _, t := range l.Tiles() {
		if t == nil {
			continue
		}
		if t.Position.Row >= 0 && t.Position.Row < l.Rows && t.Position.Col >= 0 && t.Position.Col < l.Cols {
			grid[t.Position.Row][t.Position.Col] = t
		}
	}
	return grid
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
