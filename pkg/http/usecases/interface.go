package usecases

import (
	"context"

	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
	"github.com/lintang-b-s/Gridpathx/pkg/engine"
	"github.com/lintang-b-s/Gridpathx/pkg/engine/routing"
)

// GridSession what the service needs from an engine.Session.
type GridSession interface {
	ID() string
	SetRole(row, col int, role pkg.Role) error
	CycleEndpoint(row, col int) error
	ScatterWalls(seed uint64, density float64) (int, error)
	ClearPath() error
	ClearGrid() error
	SeedDefault() error
	IsSearching() bool
	FindPath(ctx context.Context, speed string, cb routing.Callbacks) (routing.SearchResult, error)
	Solve(ctx context.Context, cb routing.Callbacks) (routing.SearchResult, error)
	Snapshot() (engine.GridSnapshot, error)
	PathCoordinates(path []da.Index) [][2]int
}
