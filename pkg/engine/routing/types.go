package routing

import (
	"github.com/lintang-b-s/Gridpathx/pkg"
	da "github.com/lintang-b-s/Gridpathx/pkg/datastructure"
)

type RunOutcome uint8

const (
	NOT_STARTED RunOutcome = iota
	MISSING_ENDPOINTS
	PATH_FOUND
	NO_PATH
	CANCELLED
)

func (o RunOutcome) String() string {
	switch o {
	case NOT_STARTED:
		return "not_started"
	case MISSING_ENDPOINTS:
		return "missing_endpoints"
	case PATH_FOUND:
		return "path_found"
	case NO_PATH:
		return "no_path"
	case CANCELLED:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Callbacks. every field is optional.
type Callbacks struct {
	// OnExplore fires for every finalized cell except start & end.
	OnExplore func(c *da.Cell)
	// OnPathStep fires for every interior cell of the final path, start to end.
	OnPathStep func(c *da.Cell)
	// OnFinished fires once per started run.
	OnFinished func(success bool, explored, pathLength int, elapsedMs int64)
	OnStatus   func(status pkg.Status)
	// OnProgress running stats after each non-terminal iteration.
	OnProgress func(explored int, elapsedMs int64)
}

func (cb Callbacks) withDefaults() Callbacks {
	if cb.OnExplore == nil {
		cb.OnExplore = func(*da.Cell) {}
	}
	if cb.OnPathStep == nil {
		cb.OnPathStep = func(*da.Cell) {}
	}
	if cb.OnFinished == nil {
		cb.OnFinished = func(bool, int, int, int64) {}
	}
	if cb.OnStatus == nil {
		cb.OnStatus = func(pkg.Status) {}
	}
	if cb.OnProgress == nil {
		cb.OnProgress = func(int, int64) {}
	}
	return cb
}

type SearchResult struct {
	Outcome    RunOutcome
	Explored   int
	PathLength int
	ElapsedMs  int64
	// row-major cell ids from start to end, nil unless Outcome == PATH_FOUND
	Path []da.Index
}

func (r SearchResult) Found() bool {
	return r.Outcome == PATH_FOUND
}

// Started false when the run was rejected before touching the grid.
func (r SearchResult) Started() bool {
	return r.Outcome != NOT_STARTED && r.Outcome != MISSING_ENDPOINTS
}
