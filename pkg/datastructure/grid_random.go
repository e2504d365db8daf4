package datastructure

import (
	"golang.org/x/exp/rand"
)

// ScatterWalls turns each free cell into a wall with probability density. start & end are never touched.
// returns the number of walls placed.
func (g *Grid) ScatterWalls(rd *rand.Rand, density float64) int {
	if density <= 0 {
		return 0
	}
	placed := 0
	for i := range g.cells {
		c := &g.cells[i]
		if c.wall || c.start || c.end {
			continue
		}
		if rd.Float64() < density {
			c.wall = true
			placed++
		}
	}
	return placed
}

func NewRandomSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
