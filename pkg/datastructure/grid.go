package datastructure

import (
	"errors"
	"math"

	"github.com/lintang-b-s/Gridpathx/pkg"
)

type Index uint32

const INVALID_INDEX Index = math.MaxUint32

var ErrInvalidDimension = errors.New("grid rows and cols must be positive")

type Cell struct {
	row, col int
	id       Index

	wall  bool
	start bool
	end   bool

	visited     bool
	onFinalPath bool
	distance    int
	predecessor Index
}

func newCell(row, col int, id Index) Cell {
	return Cell{
		row:         row,
		col:         col,
		id:          id,
		distance:    pkg.INF_DISTANCE,
		predecessor: INVALID_INDEX,
	}
}

func (c *Cell) GetRow() int {
	return c.row
}

func (c *Cell) GetCol() int {
	return c.col
}

func (c *Cell) GetID() Index {
	return c.id
}

func (c *Cell) IsWall() bool {
	return c.wall
}

func (c *Cell) IsStart() bool {
	return c.start
}

func (c *Cell) IsEnd() bool {
	return c.end
}

func (c *Cell) IsVisited() bool {
	return c.visited
}

func (c *Cell) IsOnFinalPath() bool {
	return c.onFinalPath
}

func (c *Cell) GetDistance() int {
	return c.distance
}

func (c *Cell) DistanceIsInf() bool {
	return c.distance == pkg.INF_DISTANCE
}

// GetPredecessor returns the cell index the shortest known path arrived from, INVALID_INDEX if none.
func (c *Cell) GetPredecessor() Index {
	return c.predecessor
}

func (c *Cell) HasPredecessor() bool {
	return c.predecessor != INVALID_INDEX
}

func (c *Cell) SetVisited() {
	c.visited = true
}

func (c *Cell) SetOnFinalPath() {
	c.onFinalPath = true
}

func (c *Cell) SetDistance(d int) {
	c.distance = d
}

func (c *Cell) SetPredecessor(p Index) {
	c.predecessor = p
}

func (c *Cell) resetSearchState() {
	c.visited = false
	c.onFinalPath = false
	c.distance = pkg.INF_DISTANCE
	c.predecessor = INVALID_INDEX
}

// Grid. rows x cols cells stored row-major. start & end are indices into cells, never pointers,
// so a full reset can't leave them dangling.
type Grid struct {
	rows, cols int
	cells      []Cell

	startCell Index
	endCell   Index
}

func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimension
	}
	g := &Grid{
		rows: rows,
		cols: cols,
	}
	g.initialize()
	return g, nil
}

func (g *Grid) initialize() {
	g.cells = make([]Cell, g.rows*g.cols)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			id := g.index(row, col)
			g.cells[id] = newCell(row, col, id)
		}
	}
	g.startCell = INVALID_INDEX
	g.endCell = INVALID_INDEX
}

func (g *Grid) index(row, col int) Index {
	return Index(row*g.cols + col)
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

func (g *Grid) Rows() int {
	return g.rows
}

func (g *Grid) Cols() int {
	return g.cols
}

func (g *Grid) NumberOfCells() int {
	return len(g.cells)
}

// CellAt bounds-checked lookup. returns nil when (row, col) is outside the grid.
func (g *Grid) CellAt(row, col int) *Cell {
	if !g.inBounds(row, col) {
		return nil
	}
	return &g.cells[g.index(row, col)]
}

// GetCell returns the cell with row-major index id, nil if out of range.
func (g *Grid) GetCell(id Index) *Cell {
	if int(id) >= len(g.cells) {
		return nil
	}
	return &g.cells[id]
}

func (g *Grid) GetStartCell() *Cell {
	return g.GetCell(g.startCell)
}

func (g *Grid) GetEndCell() *Cell {
	return g.GetCell(g.endCell)
}

func (g *Grid) HasEndpoints() bool {
	return g.startCell != INVALID_INDEX && g.endCell != INVALID_INDEX
}

// up, down, left, right. the order decides frontier tie-breaking, do not reorder.
var neighborOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Neighbors returns the in-bounds, non-wall 4-neighbors of c in the order up, down, left, right.
func (g *Grid) Neighbors(c *Cell) []*Cell {
	neighbors := make([]*Cell, 0, len(neighborOffsets))
	g.ForNeighborsOf(c, func(v *Cell) {
		neighbors = append(neighbors, v)
	})
	return neighbors
}

// ForNeighborsOf same as Neighbors without allocating.
func (g *Grid) ForNeighborsOf(c *Cell, handle func(v *Cell)) {
	for _, d := range neighborOffsets {
		v := g.CellAt(c.row+d[0], c.col+d[1])
		if v == nil || v.wall {
			continue
		}
		handle(v)
	}
}

func (g *Grid) ForEachCell(handle func(c *Cell)) {
	for i := range g.cells {
		handle(&g.cells[i])
	}
}

func (g *Grid) NumberOfWalls() int {
	n := 0
	for i := range g.cells {
		if g.cells[i].wall {
			n++
		}
	}
	return n
}

// ResetSearchState clears visited, onFinalPath, distance & predecessor of every cell. roles are kept.
func (g *Grid) ResetSearchState() {
	for i := range g.cells {
		g.cells[i].resetSearchState()
	}
}

// ResetAll reinitializes every cell to defaults and clears start & end.
var (
	DefaultStart = [2]int{2, 2}
	DefaultEnd   = [2]int{7, 7}
	DefaultWalls = [][2]int{{3, 3}, {3, 4}, {3, 5}, {4, 5}, {5, 5}, {6, 5}}
)

// SeedDefault places the startup scenario: start (2,2), end (7,7) and a short wall segment.
// cells outside the grid are skipped.
func (g *Grid) SeedDefault() {
	g.SetRole(DefaultStart[0], DefaultStart[1], pkg.START)
	g.SetRole(DefaultEnd[0], DefaultEnd[1], pkg.END)
	for _, w := range DefaultWalls {
		if c := g.CellAt(w[0], w[1]); c != nil && !c.IsWall() {
			g.SetRole(w[0], w[1], pkg.WALL)
		}
	}
}

func (g *Grid) ResetAll() {
	g.initialize()
}

// SetRole applies a role to (row, col). conflicting assignments are silently ignored:
// start/end never land on a wall or on each other, walls never cover start/end.
func (g *Grid) SetRole(row, col int, role pkg.Role) {
	c := g.CellAt(row, col)
	if c == nil {
		return
	}

	switch role {
	case pkg.START:
		if c.wall || c.end {
			return
		}
		if prev := g.GetStartCell(); prev != nil {
			prev.start = false
		}
		c.start = true
		g.startCell = c.id
	case pkg.END:
		if c.wall || c.start {
			return
		}
		if prev := g.GetEndCell(); prev != nil {
			prev.end = false
		}
		c.end = true
		g.endCell = c.id
	case pkg.WALL:
		if c.start || c.end {
			return
		}
		c.wall = !c.wall
	}
}

// CycleEndpoint secondary-button assignment: no start -> start, no end -> end,
// an endpoint flips to the other role (leaving its old role unset), otherwise the cell
// becomes the new start. walls are ignored.
func (g *Grid) CycleEndpoint(row, col int) {
	c := g.CellAt(row, col)
	if c == nil || c.wall {
		return
	}

	switch {
	case g.startCell == INVALID_INDEX:
		g.SetRole(row, col, pkg.START)
	case g.endCell == INVALID_INDEX:
		g.SetRole(row, col, pkg.END)
	case c.start:
		c.start = false
		g.startCell = INVALID_INDEX
		g.SetRole(row, col, pkg.END)
	case c.end:
		c.end = false
		g.endCell = INVALID_INDEX
		g.SetRole(row, col, pkg.START)
	default:
		g.SetRole(row, col, pkg.START)
	}
}
